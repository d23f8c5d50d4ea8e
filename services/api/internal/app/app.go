package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"dishdecide/pkg/domain"
	"dishdecide/pkg/notify"
	"dishdecide/pkg/storage"
	"dishdecide/pkg/store"
)

// EventPublisher forwards partner-activity events to the notifier.
type EventPublisher interface {
	Publish(ctx context.Context, event notify.Event) error
}

// Config holds runtime configuration for the core application. Store and
// Objects override the Postgres and MinIO backends in tests.
type Config struct {
	DatabaseURL string
	Store       store.Store
	Events      EventPublisher

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	Objects        storage.ObjectStore
}

// App implements the partner linkage, sharing, chat, and profile operations
// on top of the datastore. Event publishing is best-effort: a broker outage
// never fails the caller's write.
type App struct {
	store   store.Store
	events  EventPublisher
	objects storage.ObjectStore
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	objects := cfg.Objects
	if objects == nil && cfg.MinioEndpoint != "" {
		var err error
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("init object store: %w", err)
		}
	}
	return &App{store: dataStore, events: cfg.Events, objects: objects}, nil
}

func (a *App) publish(ctx context.Context, event notify.Event) {
	if a.events == nil {
		return
	}
	if err := a.events.Publish(ctx, event); err != nil {
		slog.Error("publish event failed", "kind", event.Kind, "event_id", event.ID, "error", err)
	}
}

// Profile returns the caller's profile, creating one on first access with a
// display name derived from the email.
func (a *App) Profile(userID, email string) (domain.Profile, error) {
	displayName := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		displayName = email[:at]
	}
	return a.store.EnsureProfile(userID, displayName)
}

// UpdateProfile saves the settings-screen fields.
func (a *App) UpdateProfile(userID, displayName, profileImageURL string) (domain.Profile, error) {
	if _, err := a.store.EnsureProfile(userID, displayName); err != nil {
		return domain.Profile{}, err
	}
	if err := a.store.SaveProfile(domain.Profile{
		UserID:          userID,
		DisplayName:     displayName,
		ProfileImageURL: profileImageURL,
	}); err != nil {
		return domain.Profile{}, err
	}
	profile, _, err := a.store.GetProfile(userID)
	return profile, err
}

// UploadProfilePhoto stores the image in the profile-images bucket and points
// the profile at its relay URL. A previously uploaded photo is removed from
// storage best-effort.
func (a *App) UploadProfilePhoto(ctx context.Context, userID string, body io.Reader, size int64, contentType string) (domain.Profile, error) {
	if a.objects == nil {
		return domain.Profile{}, ErrNoObjectStore
	}
	profile, err := a.Profile(userID, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	key := userID + "/" + uuid.NewString() + extensionFor(contentType)
	if err := a.objects.Put(ctx, storage.BucketProfileImages, key, body, size, contentType); err != nil {
		return domain.Profile{}, fmt.Errorf("store photo: %w", err)
	}
	if oldKey, ok := relayObjectKey(profile.ProfileImageURL); ok {
		if err := a.objects.Delete(ctx, storage.BucketProfileImages, oldKey); err != nil {
			slog.Warn("delete previous profile photo failed", "user_id", userID, "key", oldKey, "error", err)
		}
	}
	query := url.Values{"path": {key}, "bucket": {storage.BucketProfileImages}}
	profile.ProfileImageURL = "/functions/v1/image-proxy?" + query.Encode()
	if err := a.store.SaveProfile(profile); err != nil {
		return domain.Profile{}, err
	}
	updated, _, err := a.store.GetProfile(userID)
	return updated, err
}

// RemoveProfilePhoto clears the profile image and deletes the stored object
// when the URL points at our relay.
func (a *App) RemoveProfilePhoto(ctx context.Context, userID string) (domain.Profile, error) {
	profile, ok, err := a.store.GetProfile(userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if !ok {
		return a.Profile(userID, userID)
	}
	if key, found := relayObjectKey(profile.ProfileImageURL); found && a.objects != nil {
		if err := a.objects.Delete(ctx, storage.BucketProfileImages, key); err != nil {
			slog.Warn("delete profile photo failed", "user_id", userID, "key", key, "error", err)
		}
	}
	profile.ProfileImageURL = ""
	if err := a.store.SaveProfile(profile); err != nil {
		return domain.Profile{}, err
	}
	updated, _, err := a.store.GetProfile(userID)
	return updated, err
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ".jpg"
	}
}

// relayObjectKey extracts the object key from a relay URL pointing at the
// profile-images bucket.
func relayObjectKey(imageURL string) (string, bool) {
	if imageURL == "" {
		return "", false
	}
	parsed, err := url.Parse(imageURL)
	if err != nil || !strings.HasSuffix(parsed.Path, "/image-proxy") {
		return "", false
	}
	query := parsed.Query()
	bucket := query.Get("bucket")
	if bucket != "" && bucket != storage.BucketProfileImages {
		return "", false
	}
	key := query.Get("path")
	return key, key != ""
}

// MarkRecipesSeen advances the unread watermark to now.
func (a *App) MarkRecipesSeen(userID string) error {
	if _, err := a.store.EnsureProfile(userID, userID); err != nil {
		return err
	}
	return a.store.TouchLastSeenRecipes(userID, time.Now().UTC())
}

// Preferences returns stored preferences, or the generic defaults when the
// user never saved any.
func (a *App) Preferences(userID string) (domain.Preferences, error) {
	prefs, ok, err := a.store.GetPreferences(userID)
	if err != nil {
		return domain.Preferences{}, err
	}
	if !ok {
		return domain.DefaultPreferences(userID), nil
	}
	return prefs, nil
}

// SavePreferences upserts the user's preferences.
func (a *App) SavePreferences(prefs domain.Preferences) error {
	return a.store.SavePreferences(prefs)
}

// Recipes lists the caller's generated recipes.
func (a *App) Recipes(userID string) ([]domain.Recipe, error) {
	return a.store.ListRecipesByUser(userID)
}

// Recipe returns a recipe the caller may view: their own, or one a partner
// has shared with them.
func (a *App) Recipe(userID, recipeID string) (domain.Recipe, error) {
	recipe, ok, err := a.store.GetRecipe(recipeID)
	if err != nil {
		return domain.Recipe{}, err
	}
	if !ok {
		return domain.Recipe{}, ErrRecipeNotFound
	}
	if recipe.UserID != userID {
		shared, err := a.store.RecipeSharedWith(recipeID, userID)
		if err != nil {
			return domain.Recipe{}, err
		}
		if !shared {
			return domain.Recipe{}, ErrRecipeForbidden
		}
	}
	return recipe, nil
}

func (a *App) ownedRecipe(userID, recipeID string) (domain.Recipe, error) {
	recipe, ok, err := a.store.GetRecipe(recipeID)
	if err != nil {
		return domain.Recipe{}, err
	}
	if !ok {
		return domain.Recipe{}, ErrRecipeNotFound
	}
	if recipe.UserID != userID {
		return domain.Recipe{}, ErrRecipeForbidden
	}
	return recipe, nil
}

// DeleteRecipe removes one of the caller's recipes along with any shares of
// it and their reactions.
func (a *App) DeleteRecipe(userID, recipeID string) error {
	if _, err := a.ownedRecipe(userID, recipeID); err != nil {
		return err
	}
	return a.store.DeleteRecipe(recipeID, userID)
}

// PartnerView pairs the partnership with the partner's profile.
type PartnerView struct {
	Partnership domain.Partnership `json:"partnership"`
	Partner     domain.Profile     `json:"partner"`
}

// Partner returns the caller's active partnership, if any.
func (a *App) Partner(userID string) (PartnerView, bool, error) {
	partnership, ok, err := a.store.GetPartnership(userID)
	if err != nil || !ok {
		return PartnerView{}, false, err
	}
	partnerID := partnership.PartnerOf(userID)
	profile, found, err := a.store.GetProfile(partnerID)
	if err != nil {
		return PartnerView{}, false, err
	}
	if !found {
		// The partner never opened their profile screen.
		profile = domain.Profile{UserID: partnerID}
	}
	return PartnerView{Partnership: partnership, Partner: profile}, true, nil
}

// SendPartnerRequest opens a pending request to the recipient email.
func (a *App) SendPartnerRequest(userID, senderEmail, recipientEmail string) (domain.PartnerRequest, error) {
	recipientEmail = strings.ToLower(strings.TrimSpace(recipientEmail))
	if recipientEmail == "" {
		return domain.PartnerRequest{}, fmt.Errorf("recipient email is required")
	}
	if recipientEmail == strings.ToLower(strings.TrimSpace(senderEmail)) {
		return domain.PartnerRequest{}, ErrSelfRequest
	}
	if _, taken, err := a.store.GetPartnership(userID); err != nil {
		return domain.PartnerRequest{}, err
	} else if taken {
		return domain.PartnerRequest{}, store.ErrAlreadyPartnered
	}
	req := domain.PartnerRequest{
		ID:             uuid.NewString(),
		SenderID:       userID,
		RecipientEmail: recipientEmail,
		Status:         domain.RequestPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := a.store.CreatePartnerRequest(req); err != nil {
		return domain.PartnerRequest{}, err
	}
	return req, nil
}

// IncomingRequests lists pending requests addressed to the caller's email.
func (a *App) IncomingRequests(email string) ([]domain.PartnerRequest, error) {
	return a.store.ListIncomingRequests(strings.ToLower(strings.TrimSpace(email)))
}

// OutgoingRequests lists requests the caller has sent.
func (a *App) OutgoingRequests(userID string) ([]domain.PartnerRequest, error) {
	return a.store.ListOutgoingRequests(userID)
}

// AcceptRequest accepts a pending request addressed to the caller and
// notifies the sender.
func (a *App) AcceptRequest(ctx context.Context, userID, email, requestID string) (domain.Partnership, error) {
	req, ok, err := a.store.GetPartnerRequest(requestID)
	if err != nil {
		return domain.Partnership{}, err
	}
	if !ok {
		return domain.Partnership{}, ErrRequestNotFound
	}
	if !strings.EqualFold(req.RecipientEmail, strings.TrimSpace(email)) {
		return domain.Partnership{}, ErrRequestForbidden
	}
	partnership, err := a.store.AcceptPartnerRequest(requestID, userID)
	if err != nil {
		return domain.Partnership{}, err
	}
	a.publish(ctx, notify.Event{
		ID:        uuid.NewString(),
		Kind:      notify.KindRequestAccepted,
		UserID:    req.SenderID,
		ActorID:   userID,
		SubjectID: partnership.ID,
	})
	return partnership, nil
}

// RejectRequest rejects a pending request addressed to the caller.
func (a *App) RejectRequest(ctx context.Context, userID, email, requestID string) error {
	req, ok, err := a.store.GetPartnerRequest(requestID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRequestNotFound
	}
	if !strings.EqualFold(req.RecipientEmail, strings.TrimSpace(email)) {
		return ErrRequestForbidden
	}
	if err := a.store.RejectPartnerRequest(requestID); err != nil {
		return err
	}
	a.publish(ctx, notify.Event{
		ID:        uuid.NewString(),
		Kind:      notify.KindRequestRejected,
		UserID:    req.SenderID,
		ActorID:   userID,
		SubjectID: requestID,
	})
	return nil
}

// Unlink dissolves the caller's partnership and notifies the former partner.
func (a *App) Unlink(ctx context.Context, userID string) error {
	partnership, ok, err := a.store.GetPartnership(userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoPartner
	}
	if err := a.store.Unlink(userID); err != nil {
		return err
	}
	a.publish(ctx, notify.Event{
		ID:      uuid.NewString(),
		Kind:    notify.KindPartnerUnlinked,
		UserID:  partnership.PartnerOf(userID),
		ActorID: userID,
	})
	return nil
}

// Share sends one of the caller's recipes to their partner.
func (a *App) Share(ctx context.Context, userID, recipeID, message string) (domain.SharedRecipe, error) {
	recipe, err := a.ownedRecipe(userID, recipeID)
	if err != nil {
		return domain.SharedRecipe{}, err
	}
	partnership, ok, err := a.store.GetPartnership(userID)
	if err != nil {
		return domain.SharedRecipe{}, err
	}
	if !ok {
		return domain.SharedRecipe{}, ErrNoPartner
	}
	shared := domain.SharedRecipe{
		ID:         uuid.NewString(),
		RecipeID:   recipe.ID,
		SharedBy:   userID,
		SharedWith: partnership.PartnerOf(userID),
		Message:    message,
		SharedAt:   time.Now().UTC(),
	}
	if err := a.store.ShareRecipe(shared); err != nil {
		return domain.SharedRecipe{}, err
	}
	a.publish(ctx, notify.Event{
		ID:        uuid.NewString(),
		Kind:      notify.KindRecipeShared,
		UserID:    shared.SharedWith,
		ActorID:   userID,
		SubjectID: shared.ID,
		Message:   message,
	})
	return shared, nil
}

// SharedRecipeView joins a share with its recipe, the sharer's profile, and
// the caller's own reaction.
type SharedRecipeView struct {
	domain.SharedRecipe
	Recipe     *domain.Recipe         `json:"recipe,omitempty"`
	Sharer     *domain.Profile        `json:"sharer,omitempty"`
	MyReaction *domain.RecipeReaction `json:"my_reaction,omitempty"`
}

// SharesReceived lists recipes shared with the caller, newest first.
func (a *App) SharesReceived(userID string) ([]SharedRecipeView, error) {
	shares, err := a.store.ListSharedWith(userID)
	if err != nil {
		return nil, err
	}
	return a.shareViews(userID, shares)
}

// SharesSent lists recipes the caller has shared, newest first.
func (a *App) SharesSent(userID string) ([]SharedRecipeView, error) {
	shares, err := a.store.ListSharedBy(userID)
	if err != nil {
		return nil, err
	}
	return a.shareViews(userID, shares)
}

func (a *App) shareViews(userID string, shares []domain.SharedRecipe) ([]SharedRecipeView, error) {
	views := make([]SharedRecipeView, 0, len(shares))
	for _, share := range shares {
		view := SharedRecipeView{SharedRecipe: share}
		if recipe, ok, err := a.store.GetRecipe(share.RecipeID); err != nil {
			return nil, err
		} else if ok {
			view.Recipe = &recipe
		}
		if sharer, ok, err := a.store.GetProfile(share.SharedBy); err != nil {
			return nil, err
		} else if ok {
			view.Sharer = &sharer
		} else {
			view.Sharer = &domain.Profile{UserID: share.SharedBy}
		}
		reactions, err := a.store.ListReactions(share.ID)
		if err != nil {
			return nil, err
		}
		for i := range reactions {
			if reactions[i].UserID == userID {
				view.MyReaction = &reactions[i]
				break
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (a *App) sharedRecipeFor(userID, sharedRecipeID string) (domain.SharedRecipe, error) {
	shared, ok, err := a.store.GetSharedRecipe(sharedRecipeID)
	if err != nil {
		return domain.SharedRecipe{}, err
	}
	if !ok {
		return domain.SharedRecipe{}, ErrShareNotFound
	}
	if shared.SharedBy != userID && shared.SharedWith != userID {
		return domain.SharedRecipe{}, ErrShareForbidden
	}
	return shared, nil
}

// React toggles the caller's reaction on a share and notifies the other
// side of the pair. Returns nil when the toggle removed the reaction.
func (a *App) React(ctx context.Context, userID, sharedRecipeID string, kind domain.ReactionKind) (*domain.RecipeReaction, error) {
	shared, err := a.sharedRecipeFor(userID, sharedRecipeID)
	if err != nil {
		return nil, err
	}
	reaction, err := a.store.ToggleReaction(sharedRecipeID, userID, kind)
	if err != nil {
		return nil, err
	}
	if reaction != nil {
		other := shared.SharedBy
		if other == userID {
			other = shared.SharedWith
		}
		a.publish(ctx, notify.Event{
			ID:        uuid.NewString(),
			Kind:      notify.KindReaction,
			UserID:    other,
			ActorID:   userID,
			SubjectID: sharedRecipeID,
			Message:   string(reaction.Reaction),
		})
	}
	return reaction, nil
}

// Reactions lists reactions on a share visible to the caller.
func (a *App) Reactions(userID, sharedRecipeID string) ([]domain.RecipeReaction, error) {
	if _, err := a.sharedRecipeFor(userID, sharedRecipeID); err != nil {
		return nil, err
	}
	return a.store.ListReactions(sharedRecipeID)
}

// SendMessage appends a chat message to the caller's partner.
func (a *App) SendMessage(ctx context.Context, userID, message, recipeID string) (domain.PartnerMessage, error) {
	if strings.TrimSpace(message) == "" {
		return domain.PartnerMessage{}, fmt.Errorf("message is required")
	}
	partnership, ok, err := a.store.GetPartnership(userID)
	if err != nil {
		return domain.PartnerMessage{}, err
	}
	if !ok {
		return domain.PartnerMessage{}, ErrNoPartner
	}
	msg := domain.PartnerMessage{
		ID:          uuid.NewString(),
		SenderID:    userID,
		RecipientID: partnership.PartnerOf(userID),
		Message:     message,
		RecipeID:    recipeID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.store.AppendPartnerMessage(msg); err != nil {
		return domain.PartnerMessage{}, err
	}
	a.publish(ctx, notify.Event{
		ID:        uuid.NewString(),
		Kind:      notify.KindPartnerMessage,
		UserID:    msg.RecipientID,
		ActorID:   userID,
		SubjectID: msg.ID,
		Message:   message,
	})
	return msg, nil
}

// Conversation returns recent chat with the caller's partner and marks the
// partner's messages as read, fetching the thread is reading it.
func (a *App) Conversation(userID string, limit int) ([]domain.PartnerMessage, error) {
	partnership, ok, err := a.store.GetPartnership(userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoPartner
	}
	partnerID := partnership.PartnerOf(userID)
	msgs, err := a.store.ListConversation(userID, partnerID, limit)
	if err != nil {
		return nil, err
	}
	if err := a.store.MarkMessagesRead(userID, partnerID); err != nil {
		slog.Error("mark messages read failed", "user_id", userID, "error", err)
	}
	return msgs, nil
}

// MarkConversationRead marks all of the partner's messages to the caller as
// read.
func (a *App) MarkConversationRead(userID string) error {
	partnership, ok, err := a.store.GetPartnership(userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoPartner
	}
	return a.store.MarkMessagesRead(userID, partnership.PartnerOf(userID))
}

// Notifications lists the caller's recent notifications.
func (a *App) Notifications(userID string, limit int) ([]domain.Notification, error) {
	return a.store.ListNotifications(userID, limit)
}

// MarkNotificationRead marks one notification read.
func (a *App) MarkNotificationRead(userID, notificationID string) error {
	return a.store.MarkNotificationRead(notificationID, userID)
}

// Unread summarizes the caller's unread counters.
func (a *App) Unread(userID string) (domain.UnreadCounts, error) {
	return a.store.UnreadCounts(userID)
}
