package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"dishdecide/pkg/ai"
	"dishdecide/pkg/domain"
	"dishdecide/pkg/recipegen"
	"dishdecide/pkg/storage"
	"dishdecide/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store

	OpenAIBaseURL string
	OpenAIAPIKey  string
	Generator     ai.ChatGenerator
	TextModel     string
	VisionModel   string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	Objects        storage.ObjectStore
}

// App wires the generation pipeline, storage, and persistence together.
type App struct {
	store    store.Store
	objects  storage.ObjectStore
	pipeline *recipegen.Pipeline
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
	if objects == nil {
		var err error
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("init object store: %w", err)
		}
	}

	generator := cfg.Generator
	if generator == nil {
		generator = ai.NewOpenAIGenerator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)
	}

	a := &App{store: dataStore, objects: objects}
	a.pipeline = recipegen.NewPipeline(generator, prefsLoader{store: dataStore}, recipegen.Options{
		TextModel:   cfg.TextModel,
		VisionModel: cfg.VisionModel,
	})
	return a, nil
}

type prefsLoader struct {
	store store.Store
}

func (l prefsLoader) PreferencesFor(_ context.Context, userID string) (domain.Preferences, error) {
	prefs, ok, err := l.store.GetPreferences(userID)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	if !ok {
		return domain.DefaultPreferences(userID), nil
	}
	return prefs, nil
}

// GenerateRecipes runs the pipeline for the caller and persists the result
// as a recipe row. Persistence is best-effort: the caller still gets their
// suggestions when the write fails.
func (a *App) GenerateRecipes(ctx context.Context, userID, prompt, imageURL string) (domain.GenerationResult, error) {
	result, err := a.pipeline.Generate(ctx, userID, prompt, imageURL)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	recipe := recipeFromResult(userID, imageURL, result)
	if err := a.store.SaveRecipe(recipe); err != nil {
		slog.Error("save generated recipe failed", "user_id", userID, "error", err)
	}
	return result, nil
}

func recipeFromResult(userID, imageURL string, result domain.GenerationResult) domain.Recipe {
	title := "Recipe Suggestions"
	if len(result.PersonalizedRecipes) > 0 && strings.TrimSpace(result.PersonalizedRecipes[0].Name) != "" {
		title = result.PersonalizedRecipes[0].Name
	}
	now := time.Now().UTC()
	return domain.Recipe{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Title:               title,
		Date:                now,
		Summary:             result.Validation,
		DetectedIngredients: result.DetectedIngredients,
		Encouragement:       result.Encouragement,
		ShoppingTip:         result.ShoppingTip,
		RecipeData:          result.PersonalizedRecipes,
		ImageURL:            imageURL,
		CreatedAt:           now,
	}
}

// FetchImage reads an object from one of the image buckets.
func (a *App) FetchImage(ctx context.Context, bucket, path string) ([]byte, error) {
	return a.objects.Get(ctx, bucket, path)
}
