package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dishdecide/internal/ratelimit"
	"dishdecide/internal/usertoken"
	"dishdecide/internal/util"
	"dishdecide/pkg/storage"
	"dishdecide/services/functions/internal/app"
)

// TokenVerifier authenticates bearer tokens issued by the auth provider.
type TokenVerifier interface {
	Verify(token string) (usertoken.Identity, error)
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App           *app.App
	TokenVerifier TokenVerifier

	RedisAddr             string
	RedisPassword         string
	GenerateRatePerMinute int
	GenerateLimiter       *ratelimit.FixedWindowLimiter
}

// Server exposes the serverless-style function endpoints.
type Server struct {
	app             *app.App
	tokenVerifier   TokenVerifier
	generateLimiter *ratelimit.FixedWindowLimiter
	mux             *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	limiter := cfg.GenerateLimiter
	if limiter == nil {
		limit := cfg.GenerateRatePerMinute
		if limit <= 0 {
			limit = 10
		}
		var err error
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "dishdecide:functions:ratelimit:generate", limit, time.Minute)
		if err != nil {
			return nil, err
		}
	}
	s := &Server{
		app:             cfg.App,
		tokenVerifier:   cfg.TokenVerifier,
		generateLimiter: limiter,
		mux:             http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("functions", util.WithCORS(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/functions/v1/openai-completion", s.withUser(s.handleCompletion))
	s.mux.HandleFunc("/functions/v1/image-proxy", s.handleImageProxy)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(http.ResponseWriter, *http.Request, usertoken.Identity)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "No authorization header")
			return
		}
		identity, err := s.tokenVerifier.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next(w, r, identity)
	})
}

type completionRequest struct {
	Prompt   string `json:"prompt"`
	ImageURL string `json:"imageUrl"`
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request, identity usertoken.Identity) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, identity.UserID) {
		return
	}
	var req completionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	result, err := s.app.GenerateRecipes(r.Context(), identity.UserID, req.Prompt, req.ImageURL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleImageProxy relays storage objects as public images. Native image
// components cannot attach authorization headers, so this stays unauthenticated
// and read-only.
func (s *Server) handleImageProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	path := r.URL.Query().Get("path")
	bucket := r.URL.Query().Get("bucket")
	if bucket == "" {
		bucket = storage.BucketProfileImages
	}
	if path == "" {
		writeText(w, http.StatusBadRequest, "Image path is required")
		return
	}
	data, err := s.app.FetchImage(r.Context(), bucket, path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrBucketNotAllowed) {
			writeText(w, http.StatusNotFound, "Image not found")
			return
		}
		writeText(w, http.StatusInternalServerError, "Server error")
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(path))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func contentTypeFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".png"):
		return "image/png"
	case strings.HasSuffix(path, ".gif"):
		return "image/gif"
	case strings.HasSuffix(path, ".webp"):
		return "image/webp"
	case strings.HasSuffix(path, ".svg"):
		return "image/svg+xml"
	default:
		return "image/jpeg"
	}
}

func (s *Server) allowRate(w http.ResponseWriter, userID string) bool {
	if s.generateLimiter.Allow(userID) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "too many generation requests, retry later")
	return false
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
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
