package domain

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// MinServings is the floor applied to every suggestion before persistence.
// No recipe is suggested for one person.
const MinServings = 2

type Profile struct {
	UserID            string    `json:"user_id"`
	DisplayName       string    `json:"display_name"`
	ProfileImageURL   string    `json:"profile_image_url,omitempty"`
	LastSeenRecipesAt time.Time `json:"last_seen_recipes_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Preferences struct {
	UserID              string   `json:"user_id"`
	CookingSkill        string   `json:"cooking_skill"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	DietaryPreference   string   `json:"dietary_preference"`
	FavoriteCuisines    []string `json:"favorite_cuisines"`
}

// DefaultPreferences is what the generation pipeline assumes for users
// who never filled in the personalization screens.
func DefaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:              userID,
		CookingSkill:        "intermediate",
		DietaryRestrictions: nil,
		DietaryPreference:   "none",
		FavoriteCuisines:    nil,
	}
}

type Recipe struct {
	ID                  string             `json:"id"`
	UserID              string             `json:"user_id"`
	Title               string             `json:"title"`
	Date                time.Time          `json:"date"`
	Summary             string             `json:"summary"`
	DetectedIngredients string             `json:"detected_ingredients"`
	Encouragement       string             `json:"encouragement"`
	ShoppingTip         string             `json:"shopping_tip"`
	RecipeData          []RecipeSuggestion `json:"recipe_data"`
	ImageURL            string             `json:"image_url,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
}

// RecipeSuggestion is the shape the language model is instructed to emit.
// JSON tags match the model-facing schema, not the persisted tables.
type RecipeSuggestion struct {
	Name               string   `json:"name"`
	CookingTime        int      `json:"cookingTime"`
	Difficulty         string   `json:"difficulty"`
	Servings           int      `json:"servings"`
	Ingredients        []string `json:"ingredients"`
	Instructions       string   `json:"instructions"`
	MatchReason        string   `json:"matchReason"`
	NutritionHighlight string   `json:"nutritionHighlight"`
}

// ClampServings normalizes the suggestion's servings to the business floor.
func (s *RecipeSuggestion) ClampServings() {
	if s.Servings < MinServings {
		s.Servings = MinServings
	}
}

// GenerationResult is the full payload returned by the generation endpoint.
type GenerationResult struct {
	DetectedIngredients string             `json:"detectedIngredients"`
	Validation          string             `json:"validation"`
	PersonalizedRecipes []RecipeSuggestion `json:"personalizedRecipes"`
	Encouragement       string             `json:"encouragement"`
	ShoppingTip         string             `json:"shoppingTip"`
	Degraded            bool               `json:"degraded,omitempty"`
}

type Partnership struct {
	ID        string    `json:"id"`
	User1ID   string    `json:"user1_id"`
	User2ID   string    `json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PartnerOf returns the other side of the pair, or "" when userID is
// not part of the partnership.
func (p Partnership) PartnerOf(userID string) string {
	switch userID {
	case p.User1ID:
		return p.User2ID
	case p.User2ID:
		return p.User1ID
	}
	return ""
}

type PartnerRequest struct {
	ID             string        `json:"id"`
	SenderID       string        `json:"sender_id"`
	RecipientEmail string        `json:"recipient_email"`
	Status         RequestStatus `json:"status"`
	RespondedAt    *time.Time    `json:"responded_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

type SharedRecipe struct {
	ID         string    `json:"id"`
	RecipeID   string    `json:"recipe_id"`
	SharedBy   string    `json:"shared_by"`
	SharedWith string    `json:"shared_with"`
	Message    string    `json:"message,omitempty"`
	SharedAt   time.Time `json:"shared_at"`
}

type RecipeReaction struct {
	SharedRecipeID string       `json:"shared_recipe_id"`
	UserID         string       `json:"user_id"`
	Reaction       ReactionKind `json:"reaction"`
	CreatedAt      time.Time    `json:"created_at"`
}

type PartnerMessage struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Message     string    `json:"message"`
	RecipeID    string    `json:"recipe_id,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Payload   string    `json:"payload"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// UnreadCounts summarizes what the partner feed badge shows.
type UnreadCounts struct {
	SharedRecipes   int64 `json:"shared_recipes"`
	PartnerMessages int64 `json:"partner_messages"`
	Notifications   int64 `json:"notifications"`
}
