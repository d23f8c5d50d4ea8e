package recipegen

import (
	"fmt"
	"strings"

	"dishdecide/pkg/domain"
)

const promptTemplate = `You are a helpful cooking assistant that suggests personalized recipes based on available ingredients.

User preferences:
- Cooking skill: %s
- Dietary restrictions: %s
- Dietary preference: %s
- Favorite cuisines: %s

Please provide recipe suggestions in the following JSON format:
{
  "detectedIngredients": "List of ingredients detected",
  "validation": "Brief validation of ingredients",
  "personalizedRecipes": [
    {
      "name": "Recipe Name",
      "cookingTime": 30,
      "difficulty": "Easy/Medium/Hard",
      "servings": 2,
      "ingredients": ["ingredient 1", "ingredient 2"],
      "instructions": "Step-by-step instructions",
      "matchReason": "Why this recipe matches the user's preferences",
      "nutritionHighlight": "Key nutritional benefit"
    }
  ],
  "encouragement": "Motivational message",
  "shoppingTip": "Shopping or ingredient tip"
}`

// SystemPrompt renders the instruction message for the given preferences.
// Missing fields fall back to generic defaults so users who never filled in
// the personalization screens still get sensible suggestions.
func SystemPrompt(prefs domain.Preferences) string {
	skill := strings.TrimSpace(prefs.CookingSkill)
	if skill == "" {
		skill = "intermediate"
	}
	restrictions := joinOr(prefs.DietaryRestrictions, "none")
	preference := strings.TrimSpace(prefs.DietaryPreference)
	if preference == "" {
		preference = "none"
	}
	cuisines := joinOr(prefs.FavoriteCuisines, "any")
	return fmt.Sprintf(promptTemplate, skill, restrictions, preference, cuisines)
}

// UserMessage renders the user-role message. When an image accompanies the
// request the prompt is prefixed so the model knows to look at the photo.
func UserMessage(prompt string, hasImage bool) string {
	if !hasImage {
		return prompt
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = "What recipes can I make with these ingredients?"
	}
	return "I've uploaded a photo of my ingredients/refrigerator. " + prompt
}

func joinOr(values []string, fallback string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, ", ")
}
