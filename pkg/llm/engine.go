// Package llm wraps an OpenAI-compatible chat API with conversation history,
// structured JSON output, per-model rate limiting and raw-response logging.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/tico-news/newsmonitor/pkg/config"
	"github.com/tico-news/newsmonitor/pkg/ratelimit"
)

// OpenAI-compatible endpoints of the supported backends. The "openai" entry
// is empty because the SDK default applies.
var engineBaseURLs = map[string]string{
	"openai":     "",
	"gemini":     "https://generativelanguage.googleapis.com/v1beta/openai/",
	"deepseek":   "https://api.deepseek.com/v1",
	"openrouter": "https://openrouter.ai/api/v1",
}

// Engine owns the API client shared by all chats, plus the per-model rate
// limiters and the audit log settings.
type Engine struct {
	client   *openai.Client
	cfg      config.EngineConfig
	limiters *ratelimit.Registry
	logger   *slog.Logger
}

// NewEngine builds an Engine from configuration and registers rate limiters
// for every configured model slot.
func NewEngine(cfg config.EngineConfig, logger *slog.Logger) (*Engine, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		mapped, ok := engineBaseURLs[cfg.Engine]
		if !ok {
			return nil, fmt.Errorf("unknown engine %q and no AGENT_ENGINE_BASE_URL set", cfg.Engine)
		}
		baseURL = mapped
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	limiters := ratelimit.NewRegistry(logger)
	for _, m := range []config.ModelConfig{cfg.Basic, cfg.Light, cfg.Supplementary} {
		if m.Name != "" && m.RequestLimit > 0 {
			limiters.Register(m.Name, m.RequestLimit, m.RequestLimitPeriod)
		}
	}

	return &Engine{
		client:   openai.NewClientWithConfig(clientCfg),
		cfg:      cfg,
		limiters: limiters,
		logger:   logger.With("component", "llm", "engine", cfg.Engine),
	}, nil
}

// Basic returns the heavy model slot.
func (e *Engine) Basic() config.ModelConfig { return e.cfg.Basic }

// Light returns the light model slot.
func (e *Engine) Light() config.ModelConfig { return e.cfg.Light }

// ChatConfig configures one conversation.
type ChatConfig struct {
	// SessionID groups the raw-response logs of the agents working on one
	// article. AgentID distinguishes the agents within the session.
	SessionID string
	AgentID   string

	Model        config.ModelConfig
	Temperature  float32
	MaxTokens    int
	SystemPrompt string

	// Schema, when set, requests structured JSON output. SchemaName is the
	// name advertised to the API.
	SchemaName string
	Schema     *jsonschema.Definition
}

// Chat is a conversation with history. Prompts and successful answers stay
// in the history so later prompts can refer to earlier turns. Not safe for
// concurrent use.
type Chat struct {
	engine  *Engine
	cfg     ChatConfig
	history []openai.ChatCompletionMessage
}

// NewChat starts a conversation using cfg.
func (e *Engine) NewChat(cfg ChatConfig) *Chat {
	c := &Chat{engine: e, cfg: cfg}
	if cfg.SystemPrompt != "" {
		c.history = append(c.history, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: cfg.SystemPrompt,
		})
	}
	return c
}

// Generate sends prompt and returns the model's text answer. The prompt is
// rolled back from history when the call fails so the history never holds a
// prompt without its answer. Unusable answers surface as *ResponseError.
func (c *Chat) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.engine.limiters.Wait(ctx, c.cfg.Model.Name); err != nil {
		return "", err
	}

	c.history = append(c.history, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model.Name,
		Messages:    c.history,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	// Models that cannot do structured output get plain text here; the
	// supplementary model re-packs it afterwards.
	if c.cfg.Schema != nil && !c.cfg.Model.RequiresSupplementary {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   c.cfg.SchemaName,
				Schema: c.cfg.Schema,
				Strict: true,
			},
		}
	}

	resp, err := c.engine.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.history = c.history[:len(c.history)-1]
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.history = c.history[:len(c.history)-1]
		return "", &ResponseError{Kind: "empty_response", Detail: "no choices returned"}
	}

	choice := resp.Choices[0]
	c.engine.saveRawResponse(c.cfg.SessionID, c.cfg.AgentID, c.cfg.Model.Name, choice.Message.Content, string(choice.FinishReason))

	if choice.FinishReason != openai.FinishReasonStop {
		c.history = c.history[:len(c.history)-1]
		c.engine.logger.Error("unexpected finish reason",
			"agent", c.cfg.AgentID, "model", c.cfg.Model.Name, "finish_reason", choice.FinishReason)
		return "", &ResponseError{Kind: "finish_reason", Detail: string(choice.FinishReason)}
	}

	c.history = append(c.history, choice.Message)

	content := choice.Message.Content
	if c.cfg.Schema != nil && c.cfg.Model.RequiresSupplementary {
		return c.engine.repack(ctx, c.cfg, content)
	}
	return content, nil
}

// GenerateStructured sends prompt and decodes the JSON answer into out.
// A payload that does not decode is a *ResponseError.
func (c *Chat) GenerateStructured(ctx context.Context, prompt string, out any) error {
	raw, err := c.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	if err := DecodeJSON(raw, out); err != nil {
		return &ResponseError{Kind: "schema", Detail: err.Error()}
	}
	return nil
}

// repack converts a free-text answer into schema-conforming JSON using the
// supplementary model.
func (e *Engine) repack(ctx context.Context, cfg ChatConfig, text string) (string, error) {
	supp := e.cfg.Supplementary
	if supp.Name == "" {
		return "", &ResponseError{Kind: "config", Detail: "supplementary model required but not configured"}
	}
	if err := e.limiters.Wait(ctx, supp.Name); err != nil {
		return "", err
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       supp.Name,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Convert the user's message into JSON that matches the requested schema exactly. Output only the JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   cfg.SchemaName,
				Schema: cfg.Schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("supplementary repack failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].FinishReason != openai.FinishReasonStop {
		return "", &ResponseError{Kind: "finish_reason", Detail: "supplementary repack did not finish"}
	}
	e.saveRawResponse(cfg.SessionID, cfg.AgentID+"_repack", supp.Name, resp.Choices[0].Message.Content, string(resp.Choices[0].FinishReason))
	return resp.Choices[0].Message.Content, nil
}

// saveRawResponse appends the raw model answer to the audit log when enabled.
// Responses are grouped in one directory per session, one file per agent call
// timestamp.
func (e *Engine) saveRawResponse(sessionID, agentID, model, content, finishReason string) {
	if !e.cfg.KeepRawResponses {
		return
	}
	dir := filepath.Join(e.cfg.RawResponsesDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.logger.Warn("failed to create raw response dir", "dir", dir, "error", err)
		return
	}
	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", agentID, now.Format("2006-01-02_15-04-05")))
	entry := fmt.Sprintf("[%s] %s response (finish: %s):\n%s\n\n",
		now.Format("2006-01-02 15:04:05"), model, finishReason, content)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		e.logger.Warn("failed to write raw response", "path", path, "error", err)
		return
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(entry); err != nil {
		e.logger.Warn("failed to write raw response", "path", path, "error", err)
	}
}

// DecodeJSON unmarshals a model answer into out, tolerating markdown code
// fences around the payload.
func DecodeJSON(raw string, out any) error {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	return nil
}
