package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"dishdecide/pkg/domain"
)

const migrateLockID int64 = 84218421

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock
// so concurrently starting replicas do not race each other.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&ProfileModel{},
			&PreferencesModel{},
			&RecipeModel{},
			&PartnershipModel{},
			&PartnerRequestModel{},
			&SharedRecipeModel{},
			&RecipeReactionModel{},
			&PartnerMessageModel{},
			&NotificationModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		// Only one open request per (sender, recipient); decided requests
		// stay around as history.
		if err := tx.Exec(`
			CREATE UNIQUE INDEX IF NOT EXISTS idx_partner_requests_pending
			ON partner_requests (sender_id, recipient_email)
			WHERE status = 'pending'
		`).Error; err != nil {
			return fmt.Errorf("create pending request index: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// EnsureProfile returns the user's profile, lazily creating a default one on
// first access.
func (s *GormStore) EnsureProfile(userID, displayName string) (domain.Profile, error) {
	now := time.Now().UTC()
	model := ProfileModel{
		UserID:            userID,
		DisplayName:       displayName,
		LastSeenRecipesAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&model).Error; err != nil {
		return domain.Profile{}, err
	}
	profile, ok, err := s.GetProfile(userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if !ok {
		return domain.Profile{}, ErrNotFound
	}
	return profile, nil
}

// GetProfile returns the profile for a user.
func (s *GormStore) GetProfile(userID string) (domain.Profile, bool, error) {
	var model ProfileModel
	if err := s.db.First(&model, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Profile{}, false, nil
		}
		return domain.Profile{}, false, err
	}
	return profileFromModel(model), true, nil
}

// SaveProfile upserts profile fields editable from the settings screens.
func (s *GormStore) SaveProfile(profile domain.Profile) error {
	model := profileToModel(profile)
	model.UpdatedAt = time.Now().UTC()
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "profile_image_url", "updated_at"}),
	}).Create(&model).Error
}

// TouchLastSeenRecipes advances the unread-tracking watermark.
func (s *GormStore) TouchLastSeenRecipes(userID string, at time.Time) error {
	res := s.db.Model(&ProfileModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"last_seen_recipes_at": at.UTC(),
			"updated_at":           time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPreferences returns stored preferences for a user.
func (s *GormStore) GetPreferences(userID string) (domain.Preferences, bool, error) {
	var model PreferencesModel
	if err := s.db.First(&model, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Preferences{}, false, nil
		}
		return domain.Preferences{}, false, err
	}
	return preferencesFromModel(model), true, nil
}

// SavePreferences upserts the user's preferences.
func (s *GormStore) SavePreferences(prefs domain.Preferences) error {
	model := preferencesToModel(prefs)
	model.UpdatedAt = time.Now().UTC()
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"cooking_skill", "dietary_restrictions", "dietary_preference", "favorite_cuisines", "updated_at"}),
	}).Create(&model).Error
}

// SaveRecipe stores a generated recipe. Recipes are immutable after creation.
func (s *GormStore) SaveRecipe(recipe domain.Recipe) error {
	model, err := recipeToModel(recipe)
	if err != nil {
		return err
	}
	return s.db.Create(&model).Error
}

// GetRecipe retrieves a recipe.
func (s *GormStore) GetRecipe(id string) (domain.Recipe, bool, error) {
	var model RecipeModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Recipe{}, false, nil
		}
		return domain.Recipe{}, false, err
	}
	return recipeFromModel(model), true, nil
}

// ListRecipesByUser returns the user's recipes, newest first.
func (s *GormStore) ListRecipesByUser(userID string) ([]domain.Recipe, error) {
	var models []RecipeModel
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	recipes := make([]domain.Recipe, 0, len(models))
	for _, m := range models {
		recipes = append(recipes, recipeFromModel(m))
	}
	return recipes, nil
}

// DeleteRecipe removes a user's recipe together with any shares of it and
// their reactions.
func (s *GormStore) DeleteRecipe(id, userID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var model RecipeModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}
		var sharedIDs []string
		if err := tx.Model(&SharedRecipeModel{}).
			Where("recipe_id = ?", id).
			Pluck("id", &sharedIDs).Error; err != nil {
			return err
		}
		if len(sharedIDs) > 0 {
			if err := tx.Delete(&RecipeReactionModel{}, "shared_recipe_id IN ?", sharedIDs).Error; err != nil {
				return err
			}
			if err := tx.Delete(&SharedRecipeModel{}, "id IN ?", sharedIDs).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&RecipeModel{}, "id = ?", id).Error
	})
}

// RecipeSharedWith reports whether the recipe has been shared with the user.
func (s *GormStore) RecipeSharedWith(recipeID, userID string) (bool, error) {
	var count int64
	err := s.db.Model(&SharedRecipeModel{}).
		Where("recipe_id = ? AND shared_with = ?", recipeID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetPartnership returns the active partnership for either side of the pair.
func (s *GormStore) GetPartnership(userID string) (domain.Partnership, bool, error) {
	var model PartnershipModel
	if err := s.db.First(&model, "user1_id = ? OR user2_id = ?", userID, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Partnership{}, false, nil
		}
		return domain.Partnership{}, false, err
	}
	return partnershipFromModel(model), true, nil
}

// CreatePartnerRequest records a new pending request. The partial unique
// index rejects a second open request for the same recipient.
func (s *GormStore) CreatePartnerRequest(req domain.PartnerRequest) error {
	model := partnerRequestToModel(req)
	if err := s.db.Create(&model).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateRequest
		}
		return err
	}
	return nil
}

// GetPartnerRequest retrieves a request by ID.
func (s *GormStore) GetPartnerRequest(id string) (domain.PartnerRequest, bool, error) {
	var model PartnerRequestModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.PartnerRequest{}, false, nil
		}
		return domain.PartnerRequest{}, false, err
	}
	return partnerRequestFromModel(model), true, nil
}

// ListIncomingRequests returns pending requests addressed to the email.
func (s *GormStore) ListIncomingRequests(recipientEmail string) ([]domain.PartnerRequest, error) {
	return s.listRequests("recipient_email = ? AND status = ?", recipientEmail, string(domain.RequestPending))
}

// ListOutgoingRequests returns all requests the user has sent.
func (s *GormStore) ListOutgoingRequests(senderID string) ([]domain.PartnerRequest, error) {
	return s.listRequests("sender_id = ?", senderID)
}

func (s *GormStore) listRequests(query string, args ...any) ([]domain.PartnerRequest, error) {
	var models []PartnerRequestModel
	if err := s.db.Where(query, args...).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	reqs := make([]domain.PartnerRequest, 0, len(models))
	for _, m := range models {
		reqs = append(reqs, partnerRequestFromModel(m))
	}
	return reqs, nil
}

// AcceptPartnerRequest atomically marks the request accepted and creates the
// symmetric partnership. Either both writes land or neither does, so a
// half-linked state is impossible.
func (s *GormStore) AcceptPartnerRequest(requestID, recipientID string) (domain.Partnership, error) {
	var partnership domain.Partnership
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var req PartnerRequestModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&req, "id = ?", requestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}
		if req.Status != string(domain.RequestPending) {
			return ErrRequestNotPending
		}
		var taken int64
		if err := tx.Model(&PartnershipModel{}).
			Where("user1_id IN ? OR user2_id IN ?", []string{req.SenderID, recipientID}, []string{req.SenderID, recipientID}).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrAlreadyPartnered
		}
		now := time.Now().UTC()
		if err := tx.Model(&PartnerRequestModel{}).
			Where("id = ?", requestID).
			Updates(map[string]any{
				"status":       string(domain.RequestAccepted),
				"responded_at": now,
			}).Error; err != nil {
			return err
		}
		model := PartnershipModel{
			ID:        uuid.NewString(),
			User1ID:   req.SenderID,
			User2ID:   recipientID,
			CreatedAt: now,
		}
		if err := tx.Create(&model).Error; err != nil {
			if isDuplicate(err) {
				return ErrAlreadyPartnered
			}
			return err
		}
		partnership = partnershipFromModel(model)
		return nil
	})
	if err != nil {
		return domain.Partnership{}, err
	}
	return partnership, nil
}

// RejectPartnerRequest marks a pending request rejected.
func (s *GormStore) RejectPartnerRequest(requestID string) error {
	res := s.db.Model(&PartnerRequestModel{}).
		Where("id = ? AND status = ?", requestID, string(domain.RequestPending)).
		Updates(map[string]any{
			"status":       string(domain.RequestRejected),
			"responded_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRequestNotPending
	}
	return nil
}

// Unlink removes the partnership matching either side of the pair, along
// with the shares and reactions exchanged inside it. Chat history survives
// so past conversations stay readable.
func (s *GormStore) Unlink(userID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var model PartnershipModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "user1_id = ? OR user2_id = ?", userID, userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}
		pair := []string{model.User1ID, model.User2ID}
		var sharedIDs []string
		if err := tx.Model(&SharedRecipeModel{}).
			Where("shared_by IN ? AND shared_with IN ?", pair, pair).
			Pluck("id", &sharedIDs).Error; err != nil {
			return err
		}
		if len(sharedIDs) > 0 {
			if err := tx.Delete(&RecipeReactionModel{}, "shared_recipe_id IN ?", sharedIDs).Error; err != nil {
				return err
			}
			if err := tx.Delete(&SharedRecipeModel{}, "id IN ?", sharedIDs).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&PartnershipModel{}, "id = ?", model.ID).Error
	})
}

// ShareRecipe records a share. The composite unique index rejects sharing
// the same recipe with the same partner twice.
func (s *GormStore) ShareRecipe(shared domain.SharedRecipe) error {
	model := sharedRecipeToModel(shared)
	if err := s.db.Create(&model).Error; err != nil {
		if isDuplicate(err) {
			return ErrAlreadyShared
		}
		return err
	}
	return nil
}

// GetSharedRecipe retrieves a share by ID.
func (s *GormStore) GetSharedRecipe(id string) (domain.SharedRecipe, bool, error) {
	var model SharedRecipeModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.SharedRecipe{}, false, nil
		}
		return domain.SharedRecipe{}, false, err
	}
	return sharedRecipeFromModel(model), true, nil
}

// ListSharedWith returns shares addressed to the user, newest first.
func (s *GormStore) ListSharedWith(userID string) ([]domain.SharedRecipe, error) {
	return s.listShares("shared_with = ?", userID)
}

// ListSharedBy returns shares the user has sent, newest first.
func (s *GormStore) ListSharedBy(userID string) ([]domain.SharedRecipe, error) {
	return s.listShares("shared_by = ?", userID)
}

func (s *GormStore) listShares(query string, args ...any) ([]domain.SharedRecipe, error) {
	var models []SharedRecipeModel
	if err := s.db.Where(query, args...).Order("shared_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	shares := make([]domain.SharedRecipe, 0, len(models))
	for _, m := range models {
		shares = append(shares, sharedRecipeFromModel(m))
	}
	return shares, nil
}

// ToggleReaction applies upsert-or-delete semantics: a new reaction is
// inserted, a different one replaces the old, and repeating the current one
// removes it. Returns the reaction now in effect, or nil after removal.
func (s *GormStore) ToggleReaction(sharedRecipeID, userID string, reaction domain.ReactionKind) (*domain.RecipeReaction, error) {
	var current *domain.RecipeReaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing RecipeReactionModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&existing, "shared_recipe_id = ? AND user_id = ?", sharedRecipeID, userID).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			model := RecipeReactionModel{
				SharedRecipeID: sharedRecipeID,
				UserID:         userID,
				Reaction:       string(reaction),
				CreatedAt:      time.Now().UTC(),
			}
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
			current = reactionFromModel(model)
			return nil
		case err != nil:
			return err
		case existing.Reaction == string(reaction):
			return tx.Delete(&RecipeReactionModel{}, "shared_recipe_id = ? AND user_id = ?", sharedRecipeID, userID).Error
		default:
			if err := tx.Model(&RecipeReactionModel{}).
				Where("shared_recipe_id = ? AND user_id = ?", sharedRecipeID, userID).
				Update("reaction", string(reaction)).Error; err != nil {
				return err
			}
			existing.Reaction = string(reaction)
			current = reactionFromModel(existing)
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return current, nil
}

// ListReactions returns reactions on a share.
func (s *GormStore) ListReactions(sharedRecipeID string) ([]domain.RecipeReaction, error) {
	var models []RecipeReactionModel
	if err := s.db.Where("shared_recipe_id = ?", sharedRecipeID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	reactions := make([]domain.RecipeReaction, 0, len(models))
	for _, m := range models {
		reactions = append(reactions, *reactionFromModel(m))
	}
	return reactions, nil
}

// AppendPartnerMessage records a chat message.
func (s *GormStore) AppendPartnerMessage(msg domain.PartnerMessage) error {
	model := partnerMessageToModel(msg)
	return s.db.Create(&model).Error
}

// ListConversation returns recent messages between the pair in chronological
// order.
func (s *GormStore) ListConversation(userID, partnerID string, limit int) ([]domain.PartnerMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []PartnerMessageModel
	if err := s.db.
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, partnerID, partnerID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.PartnerMessage, 0, len(models))
	for i := len(models) - 1; i >= 0; i-- {
		msgs = append(msgs, partnerMessageFromModel(models[i]))
	}
	return msgs, nil
}

// MarkMessagesRead marks all messages from sender to recipient as read.
func (s *GormStore) MarkMessagesRead(recipientID, senderID string) error {
	return s.db.Model(&PartnerMessageModel{}).
		Where("recipient_id = ? AND sender_id = ? AND is_read = ?", recipientID, senderID, false).
		Update("is_read", true).Error
}

// SaveNotification inserts a notification. Re-delivered events are ignored
// by ID so the notifier can safely retry.
func (s *GormStore) SaveNotification(n domain.Notification) error {
	model := notificationToModel(n)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&model).Error
}

// ListNotifications returns recent notifications for a user.
func (s *GormStore) ListNotifications(userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var models []NotificationModel
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]domain.Notification, 0, len(models))
	for _, m := range models {
		items = append(items, notificationFromModel(m))
	}
	return items, nil
}

// MarkNotificationRead marks one of the user's notifications read.
func (s *GormStore) MarkNotificationRead(id, userID string) error {
	res := s.db.Model(&NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UnreadCounts summarizes shares newer than the profile watermark plus
// unread messages and notifications.
func (s *GormStore) UnreadCounts(userID string) (domain.UnreadCounts, error) {
	profile, ok, err := s.GetProfile(userID)
	if err != nil {
		return domain.UnreadCounts{}, err
	}
	watermark := profile.LastSeenRecipesAt
	if !ok {
		watermark = time.Time{}
	}
	var counts domain.UnreadCounts
	if err := s.db.Model(&SharedRecipeModel{}).
		Where("shared_with = ? AND shared_at > ?", userID, watermark).
		Count(&counts.SharedRecipes).Error; err != nil {
		return domain.UnreadCounts{}, err
	}
	if err := s.db.Model(&PartnerMessageModel{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&counts.PartnerMessages).Error; err != nil {
		return domain.UnreadCounts{}, err
	}
	if err := s.db.Model(&NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&counts.Notifications).Error; err != nil {
		return domain.UnreadCounts{}, err
	}
	return counts, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func profileToModel(p domain.Profile) ProfileModel {
	return ProfileModel{
		UserID:            p.UserID,
		DisplayName:       p.DisplayName,
		ProfileImageURL:   p.ProfileImageURL,
		LastSeenRecipesAt: p.LastSeenRecipesAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func profileFromModel(m ProfileModel) domain.Profile {
	return domain.Profile{
		UserID:            m.UserID,
		DisplayName:       m.DisplayName,
		ProfileImageURL:   m.ProfileImageURL,
		LastSeenRecipesAt: m.LastSeenRecipesAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func preferencesToModel(p domain.Preferences) PreferencesModel {
	restrictions, _ := json.Marshal(p.DietaryRestrictions)
	cuisines, _ := json.Marshal(p.FavoriteCuisines)
	return PreferencesModel{
		UserID:              p.UserID,
		CookingSkill:        p.CookingSkill,
		DietaryRestrictions: restrictions,
		DietaryPreference:   p.DietaryPreference,
		FavoriteCuisines:    cuisines,
	}
}

func preferencesFromModel(m PreferencesModel) domain.Preferences {
	var restrictions, cuisines []string
	if len(m.DietaryRestrictions) > 0 {
		_ = json.Unmarshal(m.DietaryRestrictions, &restrictions)
	}
	if len(m.FavoriteCuisines) > 0 {
		_ = json.Unmarshal(m.FavoriteCuisines, &cuisines)
	}
	return domain.Preferences{
		UserID:              m.UserID,
		CookingSkill:        m.CookingSkill,
		DietaryRestrictions: restrictions,
		DietaryPreference:   m.DietaryPreference,
		FavoriteCuisines:    cuisines,
	}
}

func recipeToModel(r domain.Recipe) (RecipeModel, error) {
	data, err := json.Marshal(r.RecipeData)
	if err != nil {
		return RecipeModel{}, fmt.Errorf("marshal recipe data: %w", err)
	}
	return RecipeModel{
		ID:                  r.ID,
		UserID:              r.UserID,
		Title:               r.Title,
		Date:                r.Date,
		Summary:             r.Summary,
		DetectedIngredients: r.DetectedIngredients,
		Encouragement:       r.Encouragement,
		ShoppingTip:         r.ShoppingTip,
		RecipeData:          data,
		ImageURL:            r.ImageURL,
		CreatedAt:           r.CreatedAt,
	}, nil
}

func recipeFromModel(m RecipeModel) domain.Recipe {
	var data []domain.RecipeSuggestion
	if len(m.RecipeData) > 0 {
		_ = json.Unmarshal(m.RecipeData, &data)
	}
	return domain.Recipe{
		ID:                  m.ID,
		UserID:              m.UserID,
		Title:               m.Title,
		Date:                m.Date,
		Summary:             m.Summary,
		DetectedIngredients: m.DetectedIngredients,
		Encouragement:       m.Encouragement,
		ShoppingTip:         m.ShoppingTip,
		RecipeData:          data,
		ImageURL:            m.ImageURL,
		CreatedAt:           m.CreatedAt,
	}
}

func partnershipFromModel(m PartnershipModel) domain.Partnership {
	return domain.Partnership{
		ID:        m.ID,
		User1ID:   m.User1ID,
		User2ID:   m.User2ID,
		CreatedAt: m.CreatedAt,
	}
}

func partnerRequestToModel(r domain.PartnerRequest) PartnerRequestModel {
	return PartnerRequestModel{
		ID:             r.ID,
		SenderID:       r.SenderID,
		RecipientEmail: r.RecipientEmail,
		Status:         string(r.Status),
		RespondedAt:    r.RespondedAt,
		CreatedAt:      r.CreatedAt,
	}
}

func partnerRequestFromModel(m PartnerRequestModel) domain.PartnerRequest {
	return domain.PartnerRequest{
		ID:             m.ID,
		SenderID:       m.SenderID,
		RecipientEmail: m.RecipientEmail,
		Status:         domain.RequestStatus(m.Status),
		RespondedAt:    m.RespondedAt,
		CreatedAt:      m.CreatedAt,
	}
}

func sharedRecipeToModel(s domain.SharedRecipe) SharedRecipeModel {
	return SharedRecipeModel{
		ID:         s.ID,
		RecipeID:   s.RecipeID,
		SharedBy:   s.SharedBy,
		SharedWith: s.SharedWith,
		Message:    s.Message,
		SharedAt:   s.SharedAt,
	}
}

func sharedRecipeFromModel(m SharedRecipeModel) domain.SharedRecipe {
	return domain.SharedRecipe{
		ID:         m.ID,
		RecipeID:   m.RecipeID,
		SharedBy:   m.SharedBy,
		SharedWith: m.SharedWith,
		Message:    m.Message,
		SharedAt:   m.SharedAt,
	}
}

func reactionFromModel(m RecipeReactionModel) *domain.RecipeReaction {
	return &domain.RecipeReaction{
		SharedRecipeID: m.SharedRecipeID,
		UserID:         m.UserID,
		Reaction:       domain.ReactionKind(m.Reaction),
		CreatedAt:      m.CreatedAt,
	}
}

func partnerMessageToModel(msg domain.PartnerMessage) PartnerMessageModel {
	return PartnerMessageModel{
		ID:          msg.ID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Message:     msg.Message,
		RecipeID:    msg.RecipeID,
		IsRead:      msg.IsRead,
		CreatedAt:   msg.CreatedAt,
	}
}

func partnerMessageFromModel(m PartnerMessageModel) domain.PartnerMessage {
	return domain.PartnerMessage{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Message:     m.Message,
		RecipeID:    m.RecipeID,
		IsRead:      m.IsRead,
		CreatedAt:   m.CreatedAt,
	}
}

func notificationToModel(n domain.Notification) NotificationModel {
	return NotificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		Kind:      n.Kind,
		Payload:   n.Payload,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func notificationFromModel(m NotificationModel) domain.Notification {
	return domain.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Kind:      m.Kind,
		Payload:   m.Payload,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}
