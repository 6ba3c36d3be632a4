package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "loopwar",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI model requests",
	}, []string{"model", "operation"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loopwar",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of failed AI model requests",
	}, []string{"model", "operation"})
)

// ErrEmptyResponse is returned when the model produced no usable content.
var ErrEmptyResponse = errors.New("ai model returned an empty response")

// OpenAIConfig defines configuration options for the OpenAI client.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIClient implements CodeReviewer, Tutor and QuizGenerator against the chat completion API.
type OpenAIClient struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIClient builds a new client using the provided configuration.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/loopwar-api/pkg/ai/openai"),
		logger: logger.With().Str("component", "openai").Logger(),
	}, nil
}

// Review asks the model to grade the code and returns its JSON analysis.
func (c *OpenAIClient) Review(ctx context.Context, input ReviewInput) (json.RawMessage, error) {
	content, err := c.complete(ctx, "review", true, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: reviewerSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: buildReviewPrompt(input)},
	})
	if err != nil {
		return nil, err
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &probe); err != nil {
		return nil, fmt.Errorf("parse review json: %w", err)
	}
	if _, ok := probe["isCorrect"]; !ok {
		return nil, fmt.Errorf("parse review json: missing isCorrect")
	}
	if _, ok := probe["success"]; !ok {
		probe["success"] = json.RawMessage("true")
	}

	raw, err := json.Marshal(probe)
	if err != nil {
		return nil, fmt.Errorf("encode review json: %w", err)
	}
	return raw, nil
}

// Reply continues a tutoring conversation.
func (c *OpenAIClient) Reply(ctx context.Context, system string, history []Message) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	return c.complete(ctx, "chat", false, messages)
}

// GenerateQuiz asks the model for count multiple choice questions.
func (c *OpenAIClient) GenerateQuiz(ctx context.Context, input QuizInput) ([]QuizQuestion, error) {
	content, err := c.complete(ctx, "quiz", true, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: quizSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: buildQuizPrompt(input)},
	})
	if err != nil {
		return nil, err
	}
	return parseQuizResponse(content, input.Count)
}

func (c *OpenAIClient) complete(parent context.Context, operation string, jsonMode bool, messages []openai.ChatCompletionMessage) (string, error) {
	ctx, span := c.tracer.Start(parent, "openai."+operation, trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages:    messages,
	}
	if jsonMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(c.cfg.Model, operation).Observe(time.Since(start).Seconds())
	if err == nil && (len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "") {
		err = ErrEmptyResponse
	}
	if err != nil {
		aiFailures.WithLabelValues(c.cfg.Model, operation).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn().Err(err).Str("operation", operation).Msg("openai request failed")
		return "", fmt.Errorf("openai %s: %w", operation, err)
	}

	span.SetAttributes(attribute.Int("tokens.total", resp.Usage.TotalTokens))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func reviewerSystemPrompt() string {
	return "You are an automated code reviewer for programming exercises. Respond with a JSON object containing " +
		"isCorrect (boolean), score (0-100), feedback (string), detailedAnalysis with syntax {isValid, issues}, " +
		"logic {isCorrect, issues, suggestions}, efficiency {timeComplexity, spaceComplexity, suggestions} and " +
		"testCases {passed, total, results: [{input, expected, actual, passed}]}, hints (array) and learningPoints (array). " +
		"Trace the code against every test case before deciding isCorrect."
}

func buildReviewPrompt(input ReviewInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Problem\n")
	builder.WriteString(input.ProblemTitle)
	builder.WriteString("\n\n## Description\n")
	builder.WriteString(input.Description)
	builder.WriteString("\n\n## Language\n")
	builder.WriteString(input.Language)
	builder.WriteString("\n\n## Code\n")
	builder.WriteString(input.Code)
	if len(input.TestCases) > 0 {
		builder.WriteString("\n\n## Test Cases\n")
		for i, tc := range input.TestCases {
			fmt.Fprintf(&builder, "%d. input: %s\n   expected: %s\n", i+1, tc.Input, tc.Expected)
		}
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func quizSystemPrompt() string {
	return "You write multiple choice quizzes for programming learners. Respond with a JSON object " +
		"{\"questions\": [{\"question\", \"options\" (exactly 4 strings), \"answerIndex\" (0-3), \"explanation\"}]}."
}

func buildQuizPrompt(input QuizInput) string {
	return fmt.Sprintf("Write %d questions about the following problem.\n\n# %s\n\n%s\n\nReturn JSON.",
		input.Count, input.ProblemTitle, input.Description)
}

func parseQuizResponse(content string, limit int) ([]QuizQuestion, error) {
	var payload struct {
		Questions []QuizQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("parse quiz json: %w", err)
	}

	questions := make([]QuizQuestion, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) != 4 {
			continue
		}
		if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
			continue
		}
		questions = append(questions, q)
		if limit > 0 && len(questions) == limit {
			break
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("parse quiz json: %w", ErrEmptyResponse)
	}
	return questions, nil
}
