package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-screener/internal/ai"
)

type fakeModels struct {
	mu    sync.Mutex
	calls []modelCall
	queue []fakeResponse
}

type modelCall struct {
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prompt := ""
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		prompt = contents[0].Parts[0].Text
	}
	f.calls = append(f.calls, modelCall{model: model, prompt: prompt, config: config})

	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestGeneratorDefaults(t *testing.T) {
	g := newGenerator(&fakeModels{}, Config{}, nil)

	assert.Equal(t, DefaultModel, g.Model())
	require.NotNil(t, g.config.Temperature)
	assert.InDelta(t, DefaultTemperature, *g.config.Temperature, 1e-6)
	assert.EqualValues(t, DefaultMaxOutputTokens, g.config.MaxOutputTokens)
	assert.Equal(t, "application/json", g.config.ResponseMIMEType)
}

func TestGeneratorGenerateContent(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse(" {\"a\": ", "", "1} "), nil)

	g := newGenerator(models, Config{Model: "gemini-pro", Temperature: 0.3, MaxOutputTokens: 100}, zap.NewNop())

	out, err := g.GenerateContent(context.Background(), "  extract this  ")
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":\n1}", out)

	require.Len(t, models.calls, 1)
	call := models.calls[0]
	assert.Equal(t, "gemini-pro", call.model)
	assert.Equal(t, "extract this", call.prompt)
	assert.InDelta(t, 0.3, *call.config.Temperature, 1e-6)
	assert.EqualValues(t, 100, call.config.MaxOutputTokens)
}

func TestGeneratorWrapsProviderErrors(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "quota"})

	g := newGenerator(models, Config{Model: "gemini-pro"}, zap.NewNop())

	_, err := g.GenerateContent(context.Background(), "prompt")
	require.Error(t, err)

	var terr *ai.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, Provider, terr.Provider)
	assert.Equal(t, "gemini-pro", terr.Model)
	assert.Equal(t, http.StatusTooManyRequests, terr.Code)
}

func TestGeneratorEmptyResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{nil, {Content: nil}}}, nil)

	g := newGenerator(models, Config{}, zap.NewNop())

	_, err := g.GenerateContent(context.Background(), "prompt")
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)

	var terr *ai.TransportError
	assert.True(t, errors.As(err, &terr))
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	models := &fakeModels{}
	g := newGenerator(models, Config{}, zap.NewNop())

	_, err := g.GenerateContent(context.Background(), "   ")
	require.Error(t, err)
	assert.Empty(t, models.calls)

	var nilGenerator *Generator
	_, err = nilGenerator.GenerateContent(context.Background(), "prompt")
	assert.Error(t, err)
	assert.Equal(t, "", nilGenerator.Model())
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	_, err := NewGenerator(context.Background(), Config{APIKey: "  "}, zap.NewNop())
	assert.EqualError(t, err, "gemini api key is required")
}
