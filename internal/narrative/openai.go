package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/claude/pulsereport/internal/config"
	"github.com/claude/pulsereport/internal/models"
)

// ErrEmptyCompletion marks an LLM response with no usable text.
var ErrEmptyCompletion = errors.New("empty completion")

const suggestionsSystemPrompt = "你是一位专业的健康教练和营养师。请根据用户的健康数据，生成个性化的健康分析和建议。" +
	"只描述数据中出现的数值，不要虚构任何测量值。回答必须是一个JSON对象，不要包含其他文本。"

// LLMBackend generates narrative text through an OpenAI-compatible chat
// endpoint. It is optional: construction returns nil when no key is set.
type LLMBackend struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewLLMBackend builds the backend from config, or nil when the API key is
// absent so callers can branch on configuration with a nil check.
func NewLLMBackend(cfg config.LLMConfig) *LLMBackend {
	if cfg.APIKey == "" {
		return nil
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &LLMBackend{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout(),
	}
}

// Generate runs one chat completion bounded by the configured timeout.
func (b *LLMBackend) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	completion, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// llmSuggestionsResponse is the JSON shape requested from the model.
type llmSuggestionsResponse struct {
	Priority1  llmRecommendation `json:"priority1"`
	Priority2  llmRecommendation `json:"priority2"`
	Diet       string            `json:"diet"`
	Routine    string            `json:"routine"`
	Advantages string            `json:"advantages"`
	Risks      string            `json:"risks"`
	Conclusion string            `json:"conclusion"`
	Plan       string            `json:"plan"`
}

type llmRecommendation struct {
	Title       string `json:"title"`
	Problem     string `json:"problem"`
	Action      string `json:"action"`
	Expectation string `json:"expectation"`
}

// llmSuggestions asks the backend for the four-part advice block. Any
// failure, HTTP, timeout, or unparseable output, is returned for fallback.
func (g *Generator) llmSuggestions(ctx context.Context, s *models.DailySummary) (*Suggestions, error) {
	prompt := suggestionsPrompt(s)
	text, err := g.llm.Generate(ctx, suggestionsSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	// Models sometimes wrap JSON in a code fence.
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var resp llmSuggestionsResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("parsing llm suggestions: %w", err)
	}
	if resp.Priority1.Title == "" || resp.Conclusion == "" {
		return nil, fmt.Errorf("llm suggestions incomplete")
	}
	return &Suggestions{
		Priority1:  Recommendation(resp.Priority1),
		Priority2:  Recommendation(resp.Priority2),
		Diet:       resp.Diet,
		Routine:    resp.Routine,
		Advantages: resp.Advantages,
		Risks:      resp.Risks,
		Conclusion: resp.Conclusion,
		Plan:       resp.Plan,
	}, nil
}

func suggestionsPrompt(s *models.DailySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## 用户今日健康数据（%s）\n\n", s.Date)
	fmt.Fprintf(&b, "- 步数: %.0f 步\n", s.Float(models.MetricSteps))
	if s.Sleep != nil {
		fmt.Fprintf(&b, "- 睡眠: %.1f 小时\n", s.Sleep.TotalHours)
	} else {
		b.WriteString("- 睡眠: 无数据\n")
	}
	fmt.Fprintf(&b, "- HRV: %.1f ms\n", s.Float(models.MetricHRV))
	fmt.Fprintf(&b, "- 静息心率: %.0f bpm\n", s.Float(models.MetricRestingHR))
	fmt.Fprintf(&b, "- 活跃消耗: %.0f kcal\n", s.Float(models.MetricActiveEnergy))
	fmt.Fprintf(&b, "- 运动次数: %d 次\n", len(s.Workouts))
	fmt.Fprintf(&b, "- 评分: 恢复%d/100 睡眠%d/100 运动%d/100\n\n", s.Scores.Recovery, s.Scores.Sleep, s.Scores.Exercise)
	b.WriteString(`请生成以下JSON（每个文本字段100-300字）：
{
  "priority1": {"title": "...", "problem": "...", "action": "...", "expectation": "..."},
  "priority2": {"title": "...", "problem": "...", "action": "...", "expectation": "..."},
  "diet": "...",
  "routine": "...",
  "advantages": "...",
  "risks": "...",
  "conclusion": "...",
  "plan": "..."
}`)
	return b.String()
}
