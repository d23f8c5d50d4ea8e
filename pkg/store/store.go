package store

import (
	"errors"
	"time"

	"dishdecide/pkg/domain"
)

// Conflict errors surfaced by partner-linkage and sharing operations.
var (
	ErrAlreadyPartnered   = errors.New("user already has a partner")
	ErrDuplicateRequest   = errors.New("a pending request for this recipient already exists")
	ErrRequestNotPending  = errors.New("partner request is not pending")
	ErrAlreadyShared      = errors.New("recipe already shared with this partner")
	ErrNotFound           = errors.New("record not found")
	ErrMessageNotAllowed  = errors.New("recipient is not the sender's partner")
)

// Store defines persistence for profiles, preferences, recipes, partner
// linkage, sharing, chat, and notifications.
type Store interface {
	// profiles
	EnsureProfile(userID, displayName string) (domain.Profile, error)
	GetProfile(userID string) (domain.Profile, bool, error)
	SaveProfile(profile domain.Profile) error
	TouchLastSeenRecipes(userID string, at time.Time) error

	// preferences
	GetPreferences(userID string) (domain.Preferences, bool, error)
	SavePreferences(prefs domain.Preferences) error

	// recipes
	SaveRecipe(recipe domain.Recipe) error
	GetRecipe(id string) (domain.Recipe, bool, error)
	ListRecipesByUser(userID string) ([]domain.Recipe, error)
	DeleteRecipe(id, userID string) error
	RecipeSharedWith(recipeID, userID string) (bool, error)

	// partner linkage
	GetPartnership(userID string) (domain.Partnership, bool, error)
	CreatePartnerRequest(req domain.PartnerRequest) error
	GetPartnerRequest(id string) (domain.PartnerRequest, bool, error)
	ListIncomingRequests(recipientEmail string) ([]domain.PartnerRequest, error)
	ListOutgoingRequests(senderID string) ([]domain.PartnerRequest, error)
	AcceptPartnerRequest(requestID, recipientID string) (domain.Partnership, error)
	RejectPartnerRequest(requestID string) error
	Unlink(userID string) error

	// sharing
	ShareRecipe(shared domain.SharedRecipe) error
	GetSharedRecipe(id string) (domain.SharedRecipe, bool, error)
	ListSharedWith(userID string) ([]domain.SharedRecipe, error)
	ListSharedBy(userID string) ([]domain.SharedRecipe, error)
	ToggleReaction(sharedRecipeID, userID string, reaction domain.ReactionKind) (*domain.RecipeReaction, error)
	ListReactions(sharedRecipeID string) ([]domain.RecipeReaction, error)

	// chat
	AppendPartnerMessage(msg domain.PartnerMessage) error
	ListConversation(userID, partnerID string, limit int) ([]domain.PartnerMessage, error)
	MarkMessagesRead(recipientID, senderID string) error

	// notifications
	SaveNotification(n domain.Notification) error
	ListNotifications(userID string, limit int) ([]domain.Notification, error)
	MarkNotificationRead(id, userID string) error

	// unread tracking
	UnreadCounts(userID string) (domain.UnreadCounts, error)
}
