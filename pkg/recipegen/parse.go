package recipegen

import (
	"encoding/json"
	"strings"

	"dishdecide/pkg/domain"
)

// ParseModelReply interprets the model's textual reply. Historically the
// provider returned either the recipe payload directly or wrapped it in a
// {"text": "..."} envelope, so both forms are accepted. Anything that cannot
// be interpreted yields the fallback payload with Degraded set, never an
// error: the caller always receives a well-formed result.
func ParseModelReply(raw, prompt, imageURL string) domain.GenerationResult {
	if result, ok := decodeResult([]byte(stripFences(raw))); ok {
		return result
	}
	var envelope struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err == nil && strings.TrimSpace(envelope.Text) != "" {
		if result, ok := decodeResult([]byte(stripFences(envelope.Text))); ok {
			return result
		}
	}
	return FallbackResult(prompt, imageURL)
}

// stripFences unwraps a markdown code fence around the payload. Chat models
// regularly wrap JSON in ```json fences despite instructions not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 && !strings.ContainsAny(s[:idx], "{}") {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func decodeResult(data []byte) (domain.GenerationResult, bool) {
	var result domain.GenerationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.GenerationResult{}, false
	}
	if len(result.PersonalizedRecipes) == 0 {
		return domain.GenerationResult{}, false
	}
	for i := range result.PersonalizedRecipes {
		result.PersonalizedRecipes[i].ClampServings()
	}
	return result, true
}

// FallbackResult is the hardcoded payload substituted when the model's reply
// cannot be parsed. Degraded marks it so clients and logs can tell it apart
// from a genuine suggestion.
func FallbackResult(prompt, imageURL string) domain.GenerationResult {
	detected := prompt
	if imageURL != "" {
		detected = "Unable to analyze image"
	}
	return domain.GenerationResult{
		DetectedIngredients: detected,
		Validation:          "I'll help you create recipes with your ingredients.",
		PersonalizedRecipes: []domain.RecipeSuggestion{
			{
				Name:               "Simple Stir Fry",
				CookingTime:        20,
				Difficulty:         "Easy",
				Servings:           2,
				Ingredients:        []string{"Available ingredients", "Basic seasonings"},
				Instructions:       "1. Prepare ingredients\n2. Heat pan\n3. Stir fry ingredients\n4. Season and serve",
				MatchReason:        "Quick and adaptable recipe",
				NutritionHighlight: "Balanced meal with vegetables",
			},
		},
		Encouragement: "Let's cook something delicious!",
		ShoppingTip:   "Check your pantry for basic seasonings",
		Degraded:      true,
	}
}
