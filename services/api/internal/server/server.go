package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"dishdecide/internal/usertoken"
	"dishdecide/internal/util"
	"dishdecide/pkg/domain"
	"dishdecide/pkg/feed"
	"dishdecide/pkg/store"
	"dishdecide/services/api/internal/app"
)

// TokenVerifier authenticates bearer tokens issued by the auth provider.
type TokenVerifier interface {
	Verify(token string) (usertoken.Identity, error)
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App           *app.App
	TokenVerifier TokenVerifier
	Feed          *feed.Feed
}

// Server exposes the client-facing REST and realtime endpoints.
type Server struct {
	app           *app.App
	tokenVerifier TokenVerifier
	feed          *feed.Feed
	mux           *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:           cfg.App,
		tokenVerifier: cfg.TokenVerifier,
		feed:          cfg.Feed,
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("api", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.Handle("/api/v1/profile", s.withUser(s.handleProfile))
	s.mux.Handle("/api/v1/profile/photo", s.withUser(s.handleProfilePhoto))
	s.mux.Handle("/api/v1/profile/seen-recipes", s.withUser(s.handleSeenRecipes))
	s.mux.Handle("/api/v1/preferences", s.withUser(s.handlePreferences))

	s.mux.Handle("/api/v1/recipes", s.withUser(s.handleRecipes))
	s.mux.Handle("/api/v1/recipes/", s.withUser(s.handleRecipeByID))

	s.mux.Handle("/api/v1/partner", s.withUser(s.handlePartner))
	s.mux.Handle("/api/v1/partner/requests", s.withUser(s.handlePartnerRequests))
	s.mux.Handle("/api/v1/partner/requests/", s.withUser(s.handlePartnerRequestAction))

	s.mux.Handle("/api/v1/shares", s.withUser(s.handleShares))
	s.mux.Handle("/api/v1/shares/sent", s.withUser(s.handleSharesSent))
	s.mux.Handle("/api/v1/shares/", s.withUser(s.handleShareReactions))

	s.mux.Handle("/api/v1/messages", s.withUser(s.handleMessages))
	s.mux.Handle("/api/v1/messages/read", s.withUser(s.handleMessagesRead))

	s.mux.Handle("/api/v1/notifications", s.withUser(s.handleNotifications))
	s.mux.Handle("/api/v1/notifications/", s.withUser(s.handleNotificationAction))

	s.mux.Handle("/api/v1/unread", s.withUser(s.handleUnread))
	s.mux.Handle("/api/v1/changes/stream", s.withUser(s.handleChangesStream))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(http.ResponseWriter, *http.Request, usertoken.Identity)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		identity, err := s.tokenVerifier.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, identity)
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	switch r.Method {
	case http.MethodGet:
		profile, err := s.app.Profile(identity.UserID, identity.Email)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	case http.MethodPatch:
		var req struct {
			DisplayName     string `json:"display_name"`
			ProfileImageURL string `json:"profile_image_url"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.DisplayName) == "" {
			writeError(w, http.StatusBadRequest, "display_name is required")
			return
		}
		profile, err := s.app.UpdateProfile(identity.UserID, req.DisplayName, req.ProfileImageURL)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	default:
		methodNotAllowed(w)
	}
}

const maxPhotoBytes = 5 << 20

func (s *Server) handleProfilePhoto(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	switch r.Method {
	case http.MethodPost:
		file, header, err := r.FormFile("photo")
		if err != nil {
			writeError(w, http.StatusBadRequest, "photo file is required")
			return
		}
		defer file.Close()
		if header.Size > maxPhotoBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "photo exceeds the size limit")
			return
		}
		contentType := header.Header.Get("Content-Type")
		profile, err := s.app.UploadProfilePhoto(r.Context(), identity.UserID, file, header.Size, contentType)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	case http.MethodDelete:
		profile, err := s.app.RemoveProfilePhoto(r.Context(), identity.UserID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSeenRecipes(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.app.MarkRecipesSeen(identity.UserID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	switch r.Method {
	case http.MethodGet:
		prefs, err := s.app.Preferences(identity.UserID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	case http.MethodPut:
		var prefs domain.Preferences
		if !decodeBody(w, r, &prefs) {
			return
		}
		prefs.UserID = identity.UserID
		if err := s.app.SavePreferences(prefs); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	recipes, err := s.app.Recipes(identity.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (s *Server) handleRecipeByID(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/recipes/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		recipe, err := s.app.Recipe(identity.UserID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recipe)
	case http.MethodDelete:
		if err := s.app.DeleteRecipe(identity.UserID, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handlePartner(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	switch r.Method {
	case http.MethodGet:
		view, ok, err := s.app.Partner(identity.UserID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "no active partnership")
			return
		}
		writeJSON(w, http.StatusOK, view)
	case http.MethodDelete:
		if err := s.app.Unlink(r.Context(), identity.UserID); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "unlinked"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handlePartnerRequests(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	switch r.Method {
	case http.MethodGet:
		incoming, err := s.app.IncomingRequests(identity.Email)
		if err != nil {
			writeAppError(w, err)
			return
		}
		outgoing, err := s.app.OutgoingRequests(identity.UserID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"incoming": incoming, "outgoing": outgoing})
	case http.MethodPost:
		var req struct {
			RecipientEmail string `json:"recipient_email"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.RecipientEmail) == "" {
			writeError(w, http.StatusBadRequest, "recipient_email is required")
			return
		}
		created, err := s.app.SendPartnerRequest(identity.UserID, identity.Email, req.RecipientEmail)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handlePartnerRequestAction(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/partner/requests/")
	id, action, ok := strings.Cut(rest, "/")
	if !ok || id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch action {
	case "accept":
		partnership, err := s.app.AcceptRequest(r.Context(), identity.UserID, identity.Email, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, partnership)
	case "reject":
		if err := s.app.RejectRequest(r.Context(), identity.UserID, identity.Email, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleShares(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	switch r.Method {
	case http.MethodGet:
		shares, err := s.app.SharesReceived(identity.UserID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, shares)
	case http.MethodPost:
		var req struct {
			RecipeID string `json:"recipe_id"`
			Message  string `json:"message"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.RecipeID == "" {
			writeError(w, http.StatusBadRequest, "recipe_id is required")
			return
		}
		shared, err := s.app.Share(r.Context(), identity.UserID, req.RecipeID, req.Message)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, shared)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSharesSent(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	shares, err := s.app.SharesSent(identity.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shares)
}

func (s *Server) handleShareReactions(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/shares/")
	id, tail, ok := strings.Cut(rest, "/")
	if !ok || id == "" || tail != "reactions" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		reactions, err := s.app.Reactions(identity.UserID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reactions)
	case http.MethodPost:
		var req struct {
			Reaction string `json:"reaction"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		kind := domain.ReactionKind(req.Reaction)
		if kind != domain.ReactionLike && kind != domain.ReactionDislike {
			writeError(w, http.StatusBadRequest, "reaction must be like or dislike")
			return
		}
		reaction, err := s.app.React(r.Context(), identity.UserID, id, kind)
		if err != nil {
			writeAppError(w, err)
			return
		}
		if reaction == nil {
			writeJSON(w, http.StatusOK, map[string]any{"reaction": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reaction": reaction})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	switch r.Method {
	case http.MethodGet:
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = parsed
		}
		msgs, err := s.app.Conversation(identity.UserID, limit)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	case http.MethodPost:
		var req struct {
			Message  string `json:"message"`
			RecipeID string `json:"recipe_id"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		msg, err := s.app.SendMessage(r.Context(), identity.UserID, req.Message, req.RecipeID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleMessagesRead(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.app.MarkConversationRead(identity.UserID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	items, err := s.app.Notifications(identity.UserID, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleNotificationAction(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/notifications/")
	id, action, ok := strings.Cut(rest, "/")
	if !ok || id == "" || action != "read" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err := s.app.MarkNotificationRead(identity.UserID, id); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUnread(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	counts, err := s.app.Unread(identity.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// handleChangesStream pushes the caller's change feed as server-sent events.
// The stream ends when the client disconnects.
func (s *Server) handleChangesStream(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if s.feed == nil {
		writeError(w, http.StatusServiceUnavailable, "realtime feed unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	events, err := s.feed.Subscribe(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "realtime feed unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, data)
		flusher.Flush()
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrRecipeNotFound),
		errors.Is(err, app.ErrRequestNotFound),
		errors.Is(err, app.ErrShareNotFound),
		errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrRecipeForbidden),
		errors.Is(err, app.ErrRequestForbidden),
		errors.Is(err, app.ErrShareForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrSelfRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNoObjectStore):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, app.ErrNoPartner),
		errors.Is(err, store.ErrAlreadyPartnered),
		errors.Is(err, store.ErrDuplicateRequest),
		errors.Is(err, store.ErrRequestNotPending),
		errors.Is(err, store.ErrAlreadyShared):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
