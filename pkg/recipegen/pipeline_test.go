package recipegen

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"dishdecide/pkg/ai"
	"dishdecide/pkg/domain"
)

type fakeGenerator struct {
	reply string
	err   error
	got   ai.ChatRequest
}

func (f *fakeGenerator) GenerateChat(_ context.Context, req ai.ChatRequest) (string, error) {
	f.got = req
	return f.reply, f.err
}

type fakePrefs struct {
	prefs domain.Preferences
	err   error
}

func (f fakePrefs) PreferencesFor(context.Context, string) (domain.Preferences, error) {
	return f.prefs, f.err
}

func TestSystemPromptEmbedsPreferences(t *testing.T) {
	prompt := SystemPrompt(domain.Preferences{
		CookingSkill:        "beginner",
		DietaryRestrictions: []string{"gluten", "dairy"},
		DietaryPreference:   "vegetarian",
		FavoriteCuisines:    []string{"thai"},
	})
	for _, want := range []string{
		"- Cooking skill: beginner",
		"- Dietary restrictions: gluten, dairy",
		"- Dietary preference: vegetarian",
		"- Favorite cuisines: thai",
		`"personalizedRecipes"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSystemPromptDefaults(t *testing.T) {
	prompt := SystemPrompt(domain.Preferences{})
	for _, want := range []string{
		"- Cooking skill: intermediate",
		"- Dietary restrictions: none",
		"- Dietary preference: none",
		"- Favorite cuisines: any",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("default prompt missing %q", want)
		}
	}
}

func TestUserMessageImagePrefix(t *testing.T) {
	if got := UserMessage("leftover rice", false); got != "leftover rice" {
		t.Fatalf("unexpected text-only message: %q", got)
	}
	withImage := UserMessage("", true)
	if withImage != "I've uploaded a photo of my ingredients/refrigerator. What recipes can I make with these ingredients?" {
		t.Fatalf("unexpected image message: %q", withImage)
	}
	if got := UserMessage("leftover rice", true); !strings.HasSuffix(got, "leftover rice") {
		t.Fatalf("image message should keep the prompt: %q", got)
	}
}

func TestParseModelReplyDirect(t *testing.T) {
	raw := `{"detectedIngredients":"rice, egg","validation":"ok","personalizedRecipes":[{"name":"Fried Rice","cookingTime":15,"difficulty":"Easy","servings":1,"ingredients":["rice"],"instructions":"cook","matchReason":"quick","nutritionHighlight":"carbs"}],"encouragement":"go","shoppingTip":"eggs"}`
	result := ParseModelReply(raw, "rice", "")
	if result.Degraded {
		t.Fatalf("valid reply should not be degraded")
	}
	if result.PersonalizedRecipes[0].Servings != 2 {
		t.Fatalf("servings should be clamped to 2, got %d", result.PersonalizedRecipes[0].Servings)
	}
}

func TestParseModelReplyTextEnvelope(t *testing.T) {
	inner := `{"detectedIngredients":"rice","validation":"ok","personalizedRecipes":[{"name":"Congee","cookingTime":40,"difficulty":"Easy","servings":4,"ingredients":["rice"],"instructions":"simmer","matchReason":"comfort","nutritionHighlight":"light"}],"encouragement":"nice","shoppingTip":"ginger"}`
	raw := `{"text":` + strconv.Quote(inner) + `}`
	result := ParseModelReply(raw, "rice", "")
	if result.Degraded {
		t.Fatalf("enveloped reply should parse, got degraded fallback")
	}
	if result.PersonalizedRecipes[0].Name != "Congee" {
		t.Fatalf("unexpected recipe: %q", result.PersonalizedRecipes[0].Name)
	}
}

func TestParseModelReplyCodeFence(t *testing.T) {
	inner := `{"detectedIngredients":"tofu","validation":"ok","personalizedRecipes":[{"name":"Mapo Tofu","cookingTime":25,"difficulty":"Medium","servings":3,"ingredients":["tofu"],"instructions":"braise","matchReason":"spicy","nutritionHighlight":"protein"}],"encouragement":"yum","shoppingTip":"doubanjiang"}`
	raw := "```json\n" + inner + "\n```"
	result := ParseModelReply(raw, "tofu", "")
	if result.Degraded {
		t.Fatalf("fenced reply should parse, got degraded fallback")
	}
	if result.PersonalizedRecipes[0].Name != "Mapo Tofu" {
		t.Fatalf("unexpected recipe: %q", result.PersonalizedRecipes[0].Name)
	}
}

func TestParseModelReplyFallback(t *testing.T) {
	result := ParseModelReply("Sorry, I cannot help with that.", "rice and beans", "")
	if !result.Degraded {
		t.Fatalf("unparseable reply should degrade")
	}
	if result.DetectedIngredients != "rice and beans" {
		t.Fatalf("text fallback should echo the prompt, got %q", result.DetectedIngredients)
	}
	if result.PersonalizedRecipes[0].Name != "Simple Stir Fry" {
		t.Fatalf("unexpected fallback recipe: %q", result.PersonalizedRecipes[0].Name)
	}

	imageResult := ParseModelReply("not json", "", "https://example.test/fridge.jpg")
	if imageResult.DetectedIngredients != "Unable to analyze image" {
		t.Fatalf("image fallback mismatch: %q", imageResult.DetectedIngredients)
	}
}

func TestPipelineTextOnly(t *testing.T) {
	gen := &fakeGenerator{reply: `{"detectedIngredients":"rice","validation":"ok","personalizedRecipes":[{"name":"Fried Rice","cookingTime":15,"difficulty":"Easy","servings":3,"ingredients":["rice"],"instructions":"cook","matchReason":"quick","nutritionHighlight":"carbs"}],"encouragement":"go","shoppingTip":"eggs"}`}
	p := NewPipeline(gen, fakePrefs{prefs: domain.Preferences{CookingSkill: "advanced"}}, Options{})

	result, err := p.Generate(context.Background(), "user-1", "rice", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Degraded {
		t.Fatalf("unexpected degraded result")
	}
	if gen.got.Model != "gpt-4" {
		t.Fatalf("text request should use the text model, got %q", gen.got.Model)
	}
	if gen.got.ImageDataURI != "" {
		t.Fatalf("text request should not carry an image part")
	}
	if !strings.Contains(gen.got.System, "- Cooking skill: advanced") {
		t.Fatalf("preferences not embedded in system prompt")
	}
}

func TestPipelineWithImage(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("jpegbytes"))
	}))
	defer imageServer.Close()

	gen := &fakeGenerator{reply: "not json at all"}
	p := NewPipeline(gen, fakePrefs{}, Options{})

	result, err := p.Generate(context.Background(), "user-1", "", imageServer.URL+"/fridge.jpg")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if gen.got.Model != "gpt-4-vision-preview" {
		t.Fatalf("image request should use the vision model, got %q", gen.got.Model)
	}
	wantURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpegbytes"))
	if gen.got.ImageDataURI != wantURI {
		t.Fatalf("image data uri mismatch: %q", gen.got.ImageDataURI)
	}
	if !result.Degraded || result.DetectedIngredients != "Unable to analyze image" {
		t.Fatalf("unparseable reply with image should use the image fallback: %+v", result)
	}
}

func TestPipelineImageFetchFailure(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer imageServer.Close()

	p := NewPipeline(&fakeGenerator{reply: "{}"}, fakePrefs{}, Options{})
	if _, err := p.Generate(context.Background(), "user-1", "rice", imageServer.URL+"/missing.jpg"); err == nil {
		t.Fatalf("image fetch failure should surface an error")
	}
}

func TestPipelineProviderError(t *testing.T) {
	p := NewPipeline(&fakeGenerator{err: errors.New("provider down")}, fakePrefs{}, Options{})
	if _, err := p.Generate(context.Background(), "user-1", "rice", ""); err == nil {
		t.Fatalf("provider failure should surface an error")
	}
}
