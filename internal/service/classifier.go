package service

import (
	"context"
	"encoding/json"
	"errors"
	"feedbackbot/internal/config"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

var (
	// ErrClassifierResponse means the model answered with something that is not the expected JSON
	ErrClassifierResponse = errors.New("malformed classifier response")
	// ErrClassifierDisabled is returned when no API key is configured
	ErrClassifierDisabled = errors.New("classifier is not configured")
)

const noResolutionSuggested = "Конкретного рішення не запропоновано."

const classifierSystemPrompt = "You are an assistant that analyzes anonymous employee feedback for an auto service. " +
	"Provide sentiment, criticality, and a brief resolution suggestion in JSON format. Ensure all values are present. " +
	"Sentiment must be POSITIVE, NEUTRAL, or NEGATIVE. Criticality is 1-5."

// Classifier turns feedback text into sentiment, criticality and a suggestion.
// One call is one attempt; rate limiting is reported as ErrRateLimited.
type Classifier interface {
	Classify(ctx context.Context, text string) (model.AnalysisResult, error)
}

// OpenAIClassifier classifies feedback with an OpenAI-compatible chat completions API
type OpenAIClassifier struct {
	client openai.Client
	model  string
	log    *logger.Logger
}

// NewClassifier returns an OpenAI classifier, or one that always fails with
// ErrClassifierDisabled when no API key is configured.
func NewClassifier(cfg *config.ClassifierConfig, log *logger.Logger, opts ...option.RequestOption) Classifier {
	if !cfg.IsEnabled() {
		return disabledClassifier{}
	}
	base := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/"),
		// retries are owned by the pipeline
		option.WithMaxRetries(0),
	}
	if cfg.TimeoutMS > 0 {
		base = append(base, option.WithRequestTimeout(cfg.Timeout()))
	}
	return &OpenAIClassifier{
		client: openai.NewClient(append(base, opts...)...),
		model:  cfg.Model,
		log:    log.With("component", "classifier"),
	}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (model.AnalysisResult, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifierSystemPrompt),
			openai.UserMessage(buildClassificationPrompt(text)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return model.AnalysisResult{}, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return model.AnalysisResult{}, fmt.Errorf("classifier request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.AnalysisResult{}, fmt.Errorf("%w: no choices", ErrClassifierResponse)
	}

	result, err := parseAnalysis(resp.Choices[0].Message.Content)
	if err != nil {
		c.log.Warn("classifier returned unparsable content", "error", err)
		return model.AnalysisResult{}, err
	}
	return result, nil
}

func buildClassificationPrompt(text string) string {
	return fmt.Sprintf("Analyze the following employee feedback from an auto service and output a JSON object with "+
		"'sentiment' (POSITIVE, NEUTRAL, NEGATIVE), 'criticalityLevel' (1-5), and 'resolutionSuggestion' "+
		"(a brief plan on how to resolve the issue). Ensure the JSON is valid.\n\n"+
		"Feedback: %q. Give an output in Ukrainian language.", text)
}

// parseAnalysis reads the model's JSON object, filling in defaults for
// missing or unrecognized fields. Content that is not a JSON object is an error.
func parseAnalysis(content string) (model.AnalysisResult, error) {
	content = stripCodeFence(content)
	var raw struct {
		Sentiment            string          `json:"sentiment"`
		CriticalityLevel     json.RawMessage `json:"criticalityLevel"`
		ResolutionSuggestion string          `json:"resolutionSuggestion"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("%w: %v", ErrClassifierResponse, err)
	}

	sentiment, ok := model.ParseSentiment(raw.Sentiment)
	if !ok {
		sentiment = model.SentimentNeutral
	}
	suggestion := strings.TrimSpace(raw.ResolutionSuggestion)
	if suggestion == "" {
		suggestion = noResolutionSuggested
	}
	return model.AnalysisResult{
		Sentiment:            sentiment,
		CriticalityLevel:     model.ClampCriticality(parseCriticality(raw.CriticalityLevel)),
		ResolutionSuggestion: suggestion,
	}, nil
}

// parseCriticality accepts a JSON number or a numeric string; anything else is 1
func parseCriticality(raw json.RawMessage) int {
	if len(raw) == 0 {
		return model.MinCriticality
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		// clamp before converting; int() of a huge float is undefined
		switch {
		case f <= model.MinCriticality:
			return model.MinCriticality
		case f >= model.MaxCriticality:
			return model.MaxCriticality
		}
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return model.MinCriticality
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type disabledClassifier struct{}

func (disabledClassifier) Classify(context.Context, string) (model.AnalysisResult, error) {
	return model.AnalysisResult{}, ErrClassifierDisabled
}
