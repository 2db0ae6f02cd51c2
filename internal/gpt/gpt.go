// Package gpt rewrites translated horoscope texts into the bot's own
// voice. YandexGPT is the primary model; Gemini steps in when the
// primary is unconfigured or failing.
package gpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/alexguevara007/Astrobot-2.0/internal/logger"
	"github.com/alexguevara007/Astrobot-2.0/internal/metrics"
)

const (
	defaultEndpoint    = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"
	defaultIAMEndpoint = "https://iam.api.cloud.yandex.net/iam/v1/tokens"
	geminiModel        = "gemini-1.5-flash"
)

// Rewriter generates stylized text from a system and user prompt.
type Rewriter struct {
	client     *http.Client
	apiKey     string
	folderID   string
	oauthToken string
	geminiKey  string

	endpoint    string
	iamEndpoint string

	mu       sync.Mutex
	iamToken string
}

type Option func(*Rewriter)

// WithEndpoints overrides the provider URLs, used in tests.
func WithEndpoints(completion, iam string) Option {
	return func(r *Rewriter) {
		r.endpoint = completion
		r.iamEndpoint = iam
	}
}

func New(client *http.Client, apiKey, folderID, oauthToken, geminiKey string, opts ...Option) *Rewriter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	r := &Rewriter{
		client:      client,
		apiKey:      apiKey,
		folderID:    folderID,
		oauthToken:  oauthToken,
		geminiKey:   geminiKey,
		endpoint:    defaultEndpoint,
		iamEndpoint: defaultIAMEndpoint,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite runs the completion. On total failure it returns an error;
// callers decide how to degrade.
func (r *Rewriter) Rewrite(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error) {
	if r.apiKey != "" || r.oauthToken != "" {
		text, err := r.completeYandex(ctx, system, prompt, temperature, maxTokens)
		if err == nil {
			metrics.Global.IncRewritesOK()
			return text, nil
		}
		logger.Warn("yandexgpt completion failed", "error", err)
	}

	if r.geminiKey != "" {
		text, err := r.completeGemini(ctx, system, prompt, temperature, maxTokens)
		if err == nil {
			metrics.Global.IncRewritesOK()
			return text, nil
		}
		logger.Warn("gemini completion failed", "error", err)
	}

	metrics.Global.IncRewritesFailed()
	return "", fmt.Errorf("no text generation provider succeeded")
}

type completionRequest struct {
	ModelURI          string            `json:"modelUri"`
	CompletionOptions completionOptions `json:"completionOptions"`
	Messages          []message         `json:"messages"`
}

type completionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   string  `json:"maxTokens"`
}

type message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type completionResponse struct {
	Result struct {
		Alternatives []struct {
			Message message `json:"message"`
		} `json:"alternatives"`
	} `json:"result"`
}

func (r *Rewriter) completeYandex(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error) {
	auth := ""
	if r.apiKey != "" {
		auth = "Api-Key " + r.apiKey
	} else {
		token, err := r.fetchIAMToken(ctx)
		if err != nil {
			return "", err
		}
		auth = "Bearer " + token
	}

	text, status, err := r.callYandex(ctx, auth, system, prompt, temperature, maxTokens)
	if err == nil {
		return text, nil
	}
	if status != http.StatusUnauthorized || r.oauthToken == "" {
		return "", err
	}

	token, iamErr := r.fetchIAMToken(ctx)
	if iamErr != nil {
		return "", fmt.Errorf("api key rejected and IAM exchange failed: %w", iamErr)
	}
	text, _, err = r.callYandex(ctx, "Bearer "+token, system, prompt, temperature, maxTokens)
	return text, err
}

func (r *Rewriter) callYandex(ctx context.Context, auth, system, prompt string, temperature float64, maxTokens int) (string, int, error) {
	body, err := json.Marshal(completionRequest{
		ModelURI: fmt.Sprintf("gpt://%s/yandexgpt-lite", r.folderID),
		CompletionOptions: completionOptions{
			Stream:      false,
			Temperature: temperature,
			MaxTokens:   strconv.Itoa(maxTokens),
		},
		Messages: []message{
			{Role: "system", Text: system},
			{Role: "user", Text: prompt},
		},
	})
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", resp.StatusCode, fmt.Errorf("completion: status %d: %s", resp.StatusCode, raw)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("completion: decode response: %w", err)
	}
	if len(parsed.Result.Alternatives) == 0 || parsed.Result.Alternatives[0].Message.Text == "" {
		return "", resp.StatusCode, fmt.Errorf("completion: empty response")
	}
	return parsed.Result.Alternatives[0].Message.Text, resp.StatusCode, nil
}

func (r *Rewriter) fetchIAMToken(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.iamToken != "" {
		return r.iamToken, nil
	}
	if r.oauthToken == "" {
		return "", fmt.Errorf("no OAuth token configured for IAM exchange")
	}

	body, _ := json.Marshal(map[string]string{"yandexPassportOauthToken": r.oauthToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.iamEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("IAM exchange: status %d", resp.StatusCode)
	}

	var parsed struct {
		IAMToken string `json:"iamToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("IAM exchange: decode response: %w", err)
	}
	if parsed.IAMToken == "" {
		return "", fmt.Errorf("IAM exchange: empty token")
	}

	r.iamToken = parsed.IAMToken
	return r.iamToken, nil
}

func (r *Rewriter) completeGemini(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(r.geminiKey))
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(geminiModel)
	model.SetTemperature(float32(temperature))
	model.SetMaxOutputTokens(int32(maxTokens))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: empty response")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok && text != "" {
			return string(text), nil
		}
	}
	return "", fmt.Errorf("gemini: no text part in response")
}
