package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GeminiProvider implements Provider against the Google generative
// language API.
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// GeminiConfig holds Gemini provider configuration
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultGeminiConfig returns default Gemini configuration
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Model:   "gemini-2.0-flash",
		Timeout: 30 * time.Second,
	}
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeminiConfig().BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiConfig().Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultGeminiConfig().Timeout
	}

	return &GeminiProvider{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Gemini API types
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateFeedback asks Gemini for a Korean coaching summary of the
// analysis result.
func (p *GeminiProvider) GenerateFeedback(ctx context.Context, a *Analysis) (string, error) {
	prompt := buildPrompt(a)

	geminiReq := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}

	body, err := json.Marshal(geminiReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Gemini API error: %s - %s", resp.Status, string(bodyBytes))
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if geminiResp.Error != nil {
		return "", fmt.Errorf("Gemini API error: %s", geminiResp.Error.Message)
	}
	if len(geminiResp.Candidates) == 0 {
		return "", fmt.Errorf("Gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("Gemini returned an empty candidate")
	}

	return text.String(), nil
}

// buildPrompt assembles the Korean coaching prompt from the analysis.
func buildPrompt(a *Analysis) string {
	fillers, _ := json.Marshal(a.FillerWords)

	unit := "WPM"
	if a.RateMode == "syllables" {
		unit = "SPM"
	}

	var b strings.Builder
	b.WriteString("다음은 사용자의 발화 분석 결과입니다. 이에 대한 전문가 같은 피드백을 제공해주세요.\n\n")
	b.WriteString("[발화 내용]\n")
	b.WriteString(a.FullText)
	b.WriteString("\n\n[분석 결과]\n")
	fmt.Fprintf(&b, "- 평균 속도: %.2f %s\n", a.Rate, unit)
	fmt.Fprintf(&b, "- 속도 피드백: %s\n", a.RateFeedback)
	fmt.Fprintf(&b, "- 사용된 필러 단어: %d회\n", a.TotalFillers)
	fmt.Fprintf(&b, "- 필러 단어 상세: %s\n", string(fillers))
	fmt.Fprintf(&b, "- 발화 시간: %.2f초\n", a.SpeechDuration)
	b.WriteString("\n다음 사항을 고려하여 한국어로 피드백을 작성해주세요:\n")
	b.WriteString("1. 발화 속도가 적절한지 평가\n")
	b.WriteString("2. 필러 단어 사용 패턴 분석\n")
	b.WriteString("3. 전체적인 발화 흐름과 명확성 평가\n")
	b.WriteString("4. 개선을 위한 구체적인 조언\n")
	b.WriteString("5. 격려의 메시지 포함\n")
	b.WriteString("\n피드백은 3-4문단으로 구성해주세요.\n")
	return b.String()
}
