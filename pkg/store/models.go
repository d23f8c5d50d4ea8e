package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence. Table names match the schema contract
// the mobile clients already rely on.

type ProfileModel struct {
	UserID            string `gorm:"primaryKey"`
	DisplayName       string `gorm:"not null"`
	ProfileImageURL   string
	LastSeenRecipesAt time.Time `gorm:"not null"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time
}

func (ProfileModel) TableName() string { return "user_profiles" }

type PreferencesModel struct {
	UserID              string         `gorm:"primaryKey"`
	CookingSkill        string         `gorm:"not null"`
	DietaryRestrictions datatypes.JSON `gorm:"type:jsonb"`
	DietaryPreference   string
	FavoriteCuisines    datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt           time.Time
}

func (PreferencesModel) TableName() string { return "user_preferences" }

type RecipeModel struct {
	ID                  string    `gorm:"primaryKey"`
	UserID              string    `gorm:"not null;index"`
	Title               string    `gorm:"not null"`
	Date                time.Time `gorm:"not null"`
	Summary             string
	DetectedIngredients string
	Encouragement       string
	ShoppingTip         string
	RecipeData          datatypes.JSON `gorm:"type:jsonb;not null"`
	ImageURL            string
	CreatedAt           time.Time `gorm:"not null;index"`
}

func (RecipeModel) TableName() string { return "recipes" }

// PartnershipModel enforces at most one partnership per user via the unique
// indexes on each side of the pair.
type PartnershipModel struct {
	ID        string    `gorm:"primaryKey"`
	User1ID   string    `gorm:"not null;uniqueIndex"`
	User2ID   string    `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
}

func (PartnershipModel) TableName() string { return "partnerships" }

// PartnerRequestModel additionally carries a partial unique index created in
// the migration: only one pending request per (sender_id, recipient_email).
type PartnerRequestModel struct {
	ID             string `gorm:"primaryKey"`
	SenderID       string `gorm:"not null;index"`
	RecipientEmail string `gorm:"not null;index"`
	Status         string `gorm:"not null"`
	RespondedAt    *time.Time
	CreatedAt      time.Time `gorm:"not null"`
}

func (PartnerRequestModel) TableName() string { return "partner_requests" }

type SharedRecipeModel struct {
	ID         string `gorm:"primaryKey"`
	RecipeID   string `gorm:"not null;uniqueIndex:idx_shared_recipes_once,priority:1"`
	SharedBy   string `gorm:"not null;index"`
	SharedWith string `gorm:"not null;index;uniqueIndex:idx_shared_recipes_once,priority:2"`
	Message    string
	SharedAt   time.Time `gorm:"not null;index"`
}

func (SharedRecipeModel) TableName() string { return "shared_recipes" }

type RecipeReactionModel struct {
	SharedRecipeID string    `gorm:"primaryKey"`
	UserID         string    `gorm:"primaryKey"`
	Reaction       string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (RecipeReactionModel) TableName() string { return "recipe_reactions" }

type PartnerMessageModel struct {
	ID          string    `gorm:"primaryKey"`
	SenderID    string    `gorm:"not null;index:idx_partner_messages_pair,priority:1"`
	RecipientID string    `gorm:"not null;index:idx_partner_messages_pair,priority:2"`
	Message     string    `gorm:"not null"`
	RecipeID    string
	IsRead      bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (PartnerMessageModel) TableName() string { return "partner_messages" }

type NotificationModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Kind      string    `gorm:"not null"`
	Payload   string
	IsRead    bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (NotificationModel) TableName() string { return "notifications" }
