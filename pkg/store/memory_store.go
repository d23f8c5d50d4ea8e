package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dishdecide/pkg/domain"
)

// MemoryStore keeps everything in-process. It mirrors GormStore's semantics,
// including the uniqueness rules, and backs the service tests.
type MemoryStore struct {
	mu            sync.RWMutex
	profiles      map[string]domain.Profile
	preferences   map[string]domain.Preferences
	recipes       map[string]domain.Recipe
	partnerships  map[string]domain.Partnership
	requests      map[string]domain.PartnerRequest
	shares        map[string]domain.SharedRecipe
	reactions     map[string]domain.RecipeReaction // key: sharedRecipeID + "/" + userID
	messages      []domain.PartnerMessage
	notifications map[string]domain.Notification
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:      make(map[string]domain.Profile),
		preferences:   make(map[string]domain.Preferences),
		recipes:       make(map[string]domain.Recipe),
		partnerships:  make(map[string]domain.Partnership),
		requests:      make(map[string]domain.PartnerRequest),
		shares:        make(map[string]domain.SharedRecipe),
		reactions:     make(map[string]domain.RecipeReaction),
		notifications: make(map[string]domain.Notification),
	}
}

func (m *MemoryStore) EnsureProfile(userID, displayName string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if profile, ok := m.profiles[userID]; ok {
		return profile, nil
	}
	now := time.Now().UTC()
	profile := domain.Profile{
		UserID:            userID,
		DisplayName:       displayName,
		LastSeenRecipesAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	m.profiles[userID] = profile
	return profile, nil
}

func (m *MemoryStore) GetProfile(userID string) (domain.Profile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[userID]
	return profile, ok, nil
}

func (m *MemoryStore) SaveProfile(profile domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.profiles[profile.UserID]
	if ok {
		existing.DisplayName = profile.DisplayName
		existing.ProfileImageURL = profile.ProfileImageURL
		existing.UpdatedAt = time.Now().UTC()
		m.profiles[profile.UserID] = existing
		return nil
	}
	profile.UpdatedAt = time.Now().UTC()
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *MemoryStore) TouchLastSeenRecipes(userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	profile.LastSeenRecipesAt = at.UTC()
	profile.UpdatedAt = time.Now().UTC()
	m.profiles[userID] = profile
	return nil
}

func (m *MemoryStore) GetPreferences(userID string) (domain.Preferences, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefs, ok := m.preferences[userID]
	return prefs, ok, nil
}

func (m *MemoryStore) SavePreferences(prefs domain.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preferences[prefs.UserID] = prefs
	return nil
}

func (m *MemoryStore) SaveRecipe(recipe domain.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipes[recipe.ID] = recipe
	return nil
}

func (m *MemoryStore) GetRecipe(id string) (domain.Recipe, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recipe, ok := m.recipes[id]
	return recipe, ok, nil
}

func (m *MemoryStore) ListRecipesByUser(userID string) ([]domain.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Recipe, 0)
	for _, recipe := range m.recipes {
		if recipe.UserID == userID {
			res = append(res, recipe)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) DeleteRecipe(id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recipe, ok := m.recipes[id]
	if !ok || recipe.UserID != userID {
		return ErrNotFound
	}
	for shareID, share := range m.shares {
		if share.RecipeID != id {
			continue
		}
		for key, reaction := range m.reactions {
			if reaction.SharedRecipeID == shareID {
				delete(m.reactions, key)
			}
		}
		delete(m.shares, shareID)
	}
	delete(m.recipes, id)
	return nil
}

func (m *MemoryStore) RecipeSharedWith(recipeID, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, share := range m.shares {
		if share.RecipeID == recipeID && share.SharedWith == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) GetPartnership(userID string) (domain.Partnership, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.partnershipOf(userID)
	return p, ok, nil
}

func (m *MemoryStore) partnershipOf(userID string) (domain.Partnership, bool) {
	for _, p := range m.partnerships {
		if p.User1ID == userID || p.User2ID == userID {
			return p, true
		}
	}
	return domain.Partnership{}, false
}

func (m *MemoryStore) CreatePartnerRequest(req domain.PartnerRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.requests {
		if existing.SenderID == req.SenderID &&
			existing.RecipientEmail == req.RecipientEmail &&
			existing.Status == domain.RequestPending {
			return ErrDuplicateRequest
		}
	}
	m.requests[req.ID] = req
	return nil
}

func (m *MemoryStore) GetPartnerRequest(id string) (domain.PartnerRequest, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	return req, ok, nil
}

func (m *MemoryStore) ListIncomingRequests(recipientEmail string) ([]domain.PartnerRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.PartnerRequest, 0)
	for _, req := range m.requests {
		if req.RecipientEmail == recipientEmail && req.Status == domain.RequestPending {
			res = append(res, req)
		}
	}
	sortRequests(res)
	return res, nil
}

func (m *MemoryStore) ListOutgoingRequests(senderID string) ([]domain.PartnerRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.PartnerRequest, 0)
	for _, req := range m.requests {
		if req.SenderID == senderID {
			res = append(res, req)
		}
	}
	sortRequests(res)
	return res, nil
}

func sortRequests(reqs []domain.PartnerRequest) {
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
}

func (m *MemoryStore) AcceptPartnerRequest(requestID, recipientID string) (domain.Partnership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok {
		return domain.Partnership{}, ErrNotFound
	}
	if req.Status != domain.RequestPending {
		return domain.Partnership{}, ErrRequestNotPending
	}
	if _, taken := m.partnershipOf(req.SenderID); taken {
		return domain.Partnership{}, ErrAlreadyPartnered
	}
	if _, taken := m.partnershipOf(recipientID); taken {
		return domain.Partnership{}, ErrAlreadyPartnered
	}
	now := time.Now().UTC()
	req.Status = domain.RequestAccepted
	req.RespondedAt = &now
	m.requests[requestID] = req
	partnership := domain.Partnership{
		ID:        uuid.NewString(),
		User1ID:   req.SenderID,
		User2ID:   recipientID,
		CreatedAt: now,
	}
	m.partnerships[partnership.ID] = partnership
	return partnership, nil
}

func (m *MemoryStore) RejectPartnerRequest(requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok || req.Status != domain.RequestPending {
		return ErrRequestNotPending
	}
	now := time.Now().UTC()
	req.Status = domain.RequestRejected
	req.RespondedAt = &now
	m.requests[requestID] = req
	return nil
}

func (m *MemoryStore) Unlink(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	partnership, ok := m.partnershipOf(userID)
	if !ok {
		return ErrNotFound
	}
	pair := map[string]bool{partnership.User1ID: true, partnership.User2ID: true}
	for id, share := range m.shares {
		if pair[share.SharedBy] && pair[share.SharedWith] {
			for key, reaction := range m.reactions {
				if reaction.SharedRecipeID == id {
					delete(m.reactions, key)
				}
			}
			delete(m.shares, id)
		}
	}
	delete(m.partnerships, partnership.ID)
	return nil
}

func (m *MemoryStore) ShareRecipe(shared domain.SharedRecipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.shares {
		if existing.RecipeID == shared.RecipeID && existing.SharedWith == shared.SharedWith {
			return ErrAlreadyShared
		}
	}
	m.shares[shared.ID] = shared
	return nil
}

func (m *MemoryStore) GetSharedRecipe(id string) (domain.SharedRecipe, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	share, ok := m.shares[id]
	return share, ok, nil
}

func (m *MemoryStore) ListSharedWith(userID string) ([]domain.SharedRecipe, error) {
	return m.listShares(func(s domain.SharedRecipe) bool { return s.SharedWith == userID })
}

func (m *MemoryStore) ListSharedBy(userID string) ([]domain.SharedRecipe, error) {
	return m.listShares(func(s domain.SharedRecipe) bool { return s.SharedBy == userID })
}

func (m *MemoryStore) listShares(keep func(domain.SharedRecipe) bool) ([]domain.SharedRecipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.SharedRecipe, 0)
	for _, share := range m.shares {
		if keep(share) {
			res = append(res, share)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].SharedAt.After(res[j].SharedAt) })
	return res, nil
}

func (m *MemoryStore) ToggleReaction(sharedRecipeID, userID string, reaction domain.ReactionKind) (*domain.RecipeReaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sharedRecipeID + "/" + userID
	existing, ok := m.reactions[key]
	if ok && existing.Reaction == reaction {
		delete(m.reactions, key)
		return nil, nil
	}
	next := domain.RecipeReaction{
		SharedRecipeID: sharedRecipeID,
		UserID:         userID,
		Reaction:       reaction,
		CreatedAt:      time.Now().UTC(),
	}
	if ok {
		next.CreatedAt = existing.CreatedAt
	}
	m.reactions[key] = next
	return &next, nil
}

func (m *MemoryStore) ListReactions(sharedRecipeID string) ([]domain.RecipeReaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.RecipeReaction, 0)
	for _, reaction := range m.reactions {
		if reaction.SharedRecipeID == sharedRecipeID {
			res = append(res, reaction)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) AppendPartnerMessage(msg domain.PartnerMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *MemoryStore) ListConversation(userID, partnerID string, limit int) ([]domain.PartnerMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.PartnerMessage, 0)
	for _, msg := range m.messages {
		between := (msg.SenderID == userID && msg.RecipientID == partnerID) ||
			(msg.SenderID == partnerID && msg.RecipientID == userID)
		if between {
			res = append(res, msg)
		}
	}
	if len(res) > limit {
		res = res[len(res)-limit:]
	}
	return res, nil
}

func (m *MemoryStore) MarkMessagesRead(recipientID, senderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, msg := range m.messages {
		if msg.RecipientID == recipientID && msg.SenderID == senderID {
			m.messages[i].IsRead = true
		}
	}
	return nil
}

func (m *MemoryStore) SaveNotification(n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.notifications[n.ID]; exists {
		return nil
	}
	m.notifications[n.ID] = n
	return nil
}

func (m *MemoryStore) ListNotifications(userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Notification, 0)
	for _, n := range m.notifications {
		if n.UserID == userID {
			res = append(res, n)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *MemoryStore) MarkNotificationRead(id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.IsRead = true
	m.notifications[id] = n
	return nil
}

func (m *MemoryStore) UnreadCounts(userID string) (domain.UnreadCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var counts domain.UnreadCounts
	watermark := time.Time{}
	if profile, ok := m.profiles[userID]; ok {
		watermark = profile.LastSeenRecipesAt
	}
	for _, share := range m.shares {
		if share.SharedWith == userID && share.SharedAt.After(watermark) {
			counts.SharedRecipes++
		}
	}
	for _, msg := range m.messages {
		if msg.RecipientID == userID && !msg.IsRead {
			counts.PartnerMessages++
		}
	}
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			counts.Notifications++
		}
	}
	return counts, nil
}
