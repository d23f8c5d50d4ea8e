package recipegen

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"dishdecide/pkg/ai"
	"dishdecide/pkg/domain"
)

const (
	defaultTextModel   = "gpt-4"
	defaultVisionModel = "gpt-4-vision-preview"

	defaultTemperature = 0.7
	defaultMaxTokens   = 2000

	// defaultCallTimeout bounds the whole generation round trip, matching
	// the client-side abort the mobile app used to apply.
	defaultCallTimeout = 30 * time.Second
)

// PreferencesLoader resolves a caller's stored preferences.
// Implementations return domain.DefaultPreferences when the user never
// saved any.
type PreferencesLoader interface {
	PreferencesFor(ctx context.Context, userID string) (domain.Preferences, error)
}

// Options tune a Pipeline. Zero values fall back to the defaults above.
type Options struct {
	TextModel   string
	VisionModel string
	Temperature float64
	MaxTokens   int
	CallTimeout time.Duration
	HTTPClient  *http.Client
}

// Pipeline runs a single recipe-generation request end to end: load the
// caller's preferences, optionally fetch and re-encode the ingredient photo,
// call the language model, and parse its reply.
type Pipeline struct {
	generator ai.ChatGenerator
	prefs     PreferencesLoader
	opts      Options
}

func NewPipeline(generator ai.ChatGenerator, prefs PreferencesLoader, opts Options) *Pipeline {
	if opts.TextModel == "" {
		opts.TextModel = defaultTextModel
	}
	if opts.VisionModel == "" {
		opts.VisionModel = defaultVisionModel
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Pipeline{generator: generator, prefs: prefs, opts: opts}
}

// Generate produces suggestions for the caller. prompt and imageURL may each
// be empty; an unparseable model reply degrades to the fallback payload
// rather than failing.
func (p *Pipeline) Generate(ctx context.Context, userID, prompt, imageURL string) (domain.GenerationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.CallTimeout)
	defer cancel()

	prompt = strings.TrimSpace(prompt)
	imageURL = strings.TrimSpace(imageURL)

	var (
		prefs        domain.Preferences
		imageDataURI string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prefs, err = p.prefs.PreferencesFor(gctx, userID)
		return err
	})
	if imageURL != "" {
		g.Go(func() error {
			var err error
			imageDataURI, err = FetchImageDataURI(gctx, p.opts.HTTPClient, imageURL)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return domain.GenerationResult{}, err
	}

	model := p.opts.TextModel
	if imageDataURI != "" {
		model = p.opts.VisionModel
	}
	reply, err := p.generator.GenerateChat(ctx, ai.ChatRequest{
		Model:        model,
		System:       SystemPrompt(prefs),
		UserText:     UserMessage(prompt, imageDataURI != ""),
		ImageDataURI: imageDataURI,
		Temperature:  p.opts.Temperature,
		MaxTokens:    p.opts.MaxTokens,
	})
	if err != nil {
		return domain.GenerationResult{}, err
	}
	return ParseModelReply(reply, prompt, imageURL), nil
}
