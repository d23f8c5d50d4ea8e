package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"dishdecide/internal/usertoken"
	"dishdecide/pkg/ai"
	"dishdecide/pkg/domain"
	"dishdecide/pkg/storage"
	"dishdecide/pkg/store"
	"dishdecide/services/functions/internal/app"
)

type stubVerifier struct {
	identity usertoken.Identity
	err      error
}

func (v stubVerifier) Verify(string) (usertoken.Identity, error) {
	return v.identity, v.err
}

type stubGenerator struct {
	reply string
	err   error
}

func (g stubGenerator) GenerateChat(context.Context, ai.ChatRequest) (string, error) {
	return g.reply, g.err
}

type memObjects struct {
	objects map[string][]byte
}

func (m memObjects) Get(_ context.Context, bucket, key string) ([]byte, error) {
	if !storage.AllowedBucket(bucket) {
		return nil, storage.ErrBucketNotAllowed
	}
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m memObjects) Put(_ context.Context, bucket, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[bucket+"/"+key] = data
	return nil
}

func (m memObjects) Delete(_ context.Context, bucket, key string) error {
	delete(m.objects, bucket+"/"+key)
	return nil
}

func newTestServer(t *testing.T, generator ai.ChatGenerator, dataStore store.Store, objects storage.ObjectStore, rateLimit int) *httptest.Server {
	t.Helper()
	if dataStore == nil {
		dataStore = store.NewMemoryStore()
	}
	if objects == nil {
		objects = memObjects{objects: map[string][]byte{}}
	}
	appCore, err := app.New(app.Config{
		Store:     dataStore,
		Generator: generator,
		Objects:   objects,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	redis := miniredis.RunT(t)
	srv, err := New(Config{
		App:                   appCore,
		TokenVerifier:         stubVerifier{identity: usertoken.Identity{UserID: "user-1", Email: "user-1@example.com"}},
		RedisAddr:             redis.Addr(),
		GenerateRatePerMinute: rateLimit,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	testServer := httptest.NewServer(srv.Router())
	t.Cleanup(testServer.Close)
	return testServer
}

const validReply = `{"detectedIngredients":"rice, egg","validation":"looks good","personalizedRecipes":[{"name":"Fried Rice","cookingTime":15,"difficulty":"Easy","servings":1,"ingredients":["rice","egg"],"instructions":"cook","matchReason":"quick","nutritionHighlight":"protein"}],"encouragement":"go","shoppingTip":"soy sauce"}`

func postCompletion(t *testing.T, url string, body string, auth bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/functions/v1/openai-completion", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer token-1")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func TestCompletionEndToEnd(t *testing.T) {
	dataStore := store.NewMemoryStore()
	srv := newTestServer(t, stubGenerator{reply: validReply}, dataStore, nil, 100)

	resp := postCompletion(t, srv.URL, `{"prompt":"rice and egg"}`, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result domain.GenerationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Degraded {
		t.Fatalf("valid reply should not degrade")
	}
	if result.PersonalizedRecipes[0].Servings != 2 {
		t.Fatalf("servings should be clamped to 2, got %d", result.PersonalizedRecipes[0].Servings)
	}

	recipes, err := dataStore.ListRecipesByUser("user-1")
	if err != nil || len(recipes) != 1 {
		t.Fatalf("generation should persist one recipe, got %d err=%v", len(recipes), err)
	}
	if recipes[0].Title != "Fried Rice" {
		t.Fatalf("recipe title should come from the first suggestion, got %q", recipes[0].Title)
	}
	if recipes[0].Summary != "looks good" {
		t.Fatalf("recipe summary should carry the validation text, got %q", recipes[0].Summary)
	}
}

func TestCompletionFallbackOnUnparseableReply(t *testing.T) {
	srv := newTestServer(t, stubGenerator{reply: "I cannot respond in JSON, sorry"}, nil, nil, 100)

	resp := postCompletion(t, srv.URL, `{"prompt":"mystery box"}`, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fallback path must stay 200, got %d", resp.StatusCode)
	}
	var result domain.GenerationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Degraded {
		t.Fatalf("fallback payload should be flagged degraded")
	}
	if result.PersonalizedRecipes[0].Name != "Simple Stir Fry" {
		t.Fatalf("unexpected fallback recipe: %q", result.PersonalizedRecipes[0].Name)
	}
}

func TestCompletionProviderErrorIs500(t *testing.T) {
	srv := newTestServer(t, stubGenerator{err: errors.New("provider down")}, nil, nil, 100)

	resp := postCompletion(t, srv.URL, `{"prompt":"rice"}`, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("error payload should carry a message")
	}
}

func TestCompletionRequiresAuth(t *testing.T) {
	srv := newTestServer(t, stubGenerator{reply: validReply}, nil, nil, 100)

	resp := postCompletion(t, srv.URL, `{"prompt":"rice"}`, false)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("error responses must carry CORS headers, got %q", got)
	}
}

func TestCompletionRateLimit(t *testing.T) {
	srv := newTestServer(t, stubGenerator{reply: validReply}, nil, nil, 1)

	resp1 := postCompletion(t, srv.URL, `{"prompt":"rice"}`, true)
	resp1.Body.Close()
	if resp1.StatusCode != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", resp1.StatusCode)
	}
	resp2 := postCompletion(t, srv.URL, `{"prompt":"rice"}`, true)
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", resp2.StatusCode)
	}
	if resp2.Header.Get("Retry-After") != "60" {
		t.Fatalf("429 should carry Retry-After")
	}
}

func TestImageProxyContentTypes(t *testing.T) {
	objects := memObjects{objects: map[string][]byte{
		"profile-images/avatar.png":     []byte("pngbytes"),
		"profile-images/pic.gif":        []byte("gifbytes"),
		"ingredient-images/fridge.webp": []byte("webpbytes"),
		"profile-images/logo.svg":       []byte("svgbytes"),
		"profile-images/photo":          []byte("jpegbytes"),
	}}
	srv := newTestServer(t, stubGenerator{reply: validReply}, nil, objects, 100)

	cases := []struct {
		bucket, path, contentType string
	}{
		{"profile-images", "avatar.png", "image/png"},
		{"profile-images", "pic.gif", "image/gif"},
		{"ingredient-images", "fridge.webp", "image/webp"},
		{"profile-images", "logo.svg", "image/svg+xml"},
		{"profile-images", "photo", "image/jpeg"},
	}
	for _, tc := range cases {
		resp, err := http.Get(srv.URL + "/functions/v1/image-proxy?path=" + tc.path + "&bucket=" + tc.bucket)
		if err != nil {
			t.Fatalf("get %s: %v", tc.path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.path, resp.StatusCode)
		}
		if got := resp.Header.Get("Content-Type"); got != tc.contentType {
			t.Fatalf("%s: expected content type %q, got %q", tc.path, tc.contentType, got)
		}
		if got := resp.Header.Get("Cache-Control"); got != "public, max-age=86400" {
			t.Fatalf("%s: unexpected cache header %q", tc.path, got)
		}
		if got := resp.Header.Get("Content-Length"); got != "" && len(body) == 0 {
			t.Fatalf("%s: empty body with content length %s", tc.path, got)
		}
	}
}

func TestImageProxyDefaultsToProfileBucket(t *testing.T) {
	objects := memObjects{objects: map[string][]byte{
		"profile-images/avatar.jpg": []byte("jpegbytes"),
	}}
	srv := newTestServer(t, stubGenerator{reply: validReply}, nil, objects, 100)

	resp, err := http.Get(srv.URL + "/functions/v1/image-proxy?path=avatar.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from default bucket, got %d", resp.StatusCode)
	}
}

func TestImageProxyErrors(t *testing.T) {
	srv := newTestServer(t, stubGenerator{reply: validReply}, nil, nil, 100)

	resp, err := http.Get(srv.URL + "/functions/v1/image-proxy")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing path expected 400, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/functions/v1/image-proxy?path=missing.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing object expected 404, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/functions/v1/image-proxy?path=x.png&bucket=secrets")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("disallowed bucket expected 404, got %d", resp.StatusCode)
	}
}

func TestPreflightReturns200WithCORS(t *testing.T) {
	srv := newTestServer(t, stubGenerator{reply: validReply}, nil, nil, 100)

	for _, path := range []string{"/functions/v1/openai-completion", "/functions/v1/image-proxy"} {
		req, _ := http.NewRequest(http.MethodOptions, srv.URL+path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("options %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("preflight %s expected 200, got %d", path, resp.StatusCode)
		}
		if got := resp.Header.Get("Access-Control-Allow-Headers"); got != "authorization, x-client-info, apikey, content-type" {
			t.Fatalf("preflight %s unexpected allow headers %q", path, got)
		}
	}
}
