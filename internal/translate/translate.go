// Package translate converts scraped horoscope texts into the user's
// language. Translation is best-effort: every failure degrades to the
// original input so the pipeline never loses the text.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alexguevara007/Astrobot-2.0/internal/logger"
	"github.com/alexguevara007/Astrobot-2.0/internal/metrics"
)

const (
	defaultEndpoint    = "https://translate.api.cloud.yandex.net/translate/v2/translate"
	defaultIAMEndpoint = "https://iam.api.cloud.yandex.net/iam/v1/tokens"
)

// Translator talks to Yandex Translate, falling back to an OpenAI
// chat completion when the primary provider is not configured or
// keeps failing.
type Translator struct {
	client     *http.Client
	apiKey     string
	folderID   string
	oauthToken string
	openaiKey  string

	endpoint    string
	iamEndpoint string

	mu       sync.Mutex
	iamToken string
}

type Option func(*Translator)

// WithEndpoints overrides the provider URLs, used in tests.
func WithEndpoints(translate, iam string) Option {
	return func(t *Translator) {
		t.endpoint = translate
		t.iamEndpoint = iam
	}
}

func New(client *http.Client, apiKey, folderID, oauthToken, openaiKey string, opts ...Option) *Translator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	t := &Translator{
		client:      client,
		apiKey:      apiKey,
		folderID:    folderID,
		oauthToken:  oauthToken,
		openaiKey:   openaiKey,
		endpoint:    defaultEndpoint,
		iamEndpoint: defaultIAMEndpoint,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate converts text from source to target language. When the
// languages match, the text passes through untouched. On any provider
// failure the original text is returned.
func (t *Translator) Translate(ctx context.Context, text, source, target string) string {
	if text == "" || source == target {
		return text
	}

	if t.apiKey != "" || t.oauthToken != "" {
		if translated, err := t.translateYandex(ctx, text, source, target); err == nil {
			metrics.Global.IncTranslationsOK()
			return translated
		} else {
			logger.Warn("yandex translate failed", "error", err)
		}
	}

	if t.openaiKey != "" {
		if translated, err := t.translateOpenAI(ctx, text, target); err == nil {
			metrics.Global.IncTranslationsOK()
			return translated
		} else {
			logger.Warn("openai translate failed", "error", err)
		}
	}

	metrics.Global.IncTranslationsFailed()
	return text
}

type yandexRequest struct {
	SourceLanguageCode string   `json:"sourceLanguageCode"`
	TargetLanguageCode string   `json:"targetLanguageCode"`
	Texts              []string `json:"texts"`
	FolderID           string   `json:"folderId,omitempty"`
}

type yandexResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// translateYandex calls the v2 endpoint with the static API key. A 401
// means the key is stale; one retry goes through an exchanged IAM token.
func (t *Translator) translateYandex(ctx context.Context, text, source, target string) (string, error) {
	auth := ""
	if t.apiKey != "" {
		auth = "Api-Key " + t.apiKey
	}
	if auth == "" {
		token, err := t.fetchIAMToken(ctx)
		if err != nil {
			return "", err
		}
		auth = "Bearer " + token
	}

	translated, status, err := t.callYandex(ctx, auth, text, source, target)
	if err == nil {
		return translated, nil
	}
	if status != http.StatusUnauthorized || t.oauthToken == "" {
		return "", err
	}

	token, iamErr := t.fetchIAMToken(ctx)
	if iamErr != nil {
		return "", fmt.Errorf("api key rejected and IAM exchange failed: %w", iamErr)
	}
	translated, _, err = t.callYandex(ctx, "Bearer "+token, text, source, target)
	return translated, err
}

func (t *Translator) callYandex(ctx context.Context, auth, text, source, target string) (string, int, error) {
	body, err := json.Marshal(yandexRequest{
		SourceLanguageCode: source,
		TargetLanguageCode: target,
		Texts:              []string{text},
		FolderID:           t.folderID,
	})
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", resp.StatusCode, fmt.Errorf("translate: status %d: %s", resp.StatusCode, raw)
	}

	var parsed yandexResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("translate: decode response: %w", err)
	}
	if len(parsed.Translations) == 0 || parsed.Translations[0].Text == "" {
		return "", resp.StatusCode, fmt.Errorf("translate: empty response")
	}
	return parsed.Translations[0].Text, resp.StatusCode, nil
}

// fetchIAMToken exchanges the OAuth token for a short-lived IAM token.
// The token is kept for the process lifetime; Yandex rotates them well
// past the daily cache window this bot operates on.
func (t *Translator) fetchIAMToken(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.iamToken != "" {
		return t.iamToken, nil
	}
	if t.oauthToken == "" {
		return "", fmt.Errorf("no OAuth token configured for IAM exchange")
	}

	body, _ := json.Marshal(map[string]string{"yandexPassportOauthToken": t.oauthToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.iamEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
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

	t.iamToken = parsed.IAMToken
	return t.iamToken, nil
}

func (t *Translator) translateOpenAI(ctx context.Context, text, target string) (string, error) {
	client := openai.NewClient(t.openaiKey)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT3Dot5Turbo,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You are a translator. Translate the user's text to %q. Reply with the translation only.", target),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
