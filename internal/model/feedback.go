package model

import (
	"strings"
	"time"
)

// Sentiment is the classified tone of a feedback message
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentNegative Sentiment = "NEGATIVE"
)

var sentimentDisplay = map[Sentiment]string{
	SentimentPositive: "Позитивний",
	SentimentNeutral:  "Нейтральний",
	SentimentNegative: "Негативний",
}

// ParseSentiment accepts the enum name or its display text, case-insensitively
func ParseSentiment(s string) (Sentiment, bool) {
	s = strings.TrimSpace(s)
	upper := Sentiment(strings.ToUpper(s))
	if _, ok := sentimentDisplay[upper]; ok {
		return upper, true
	}
	for k, v := range sentimentDisplay {
		if strings.EqualFold(v, s) {
			return k, true
		}
	}
	return "", false
}

// DisplayText returns the user-facing label
func (s Sentiment) DisplayText() string {
	if v, ok := sentimentDisplay[s]; ok {
		return v
	}
	return "Невідомий"
}

const (
	MinCriticality = 1
	MaxCriticality = 5
)

// ClampCriticality forces v into [MinCriticality, MaxCriticality]
func ClampCriticality(v int) int {
	if v < MinCriticality {
		return MinCriticality
	}
	if v > MaxCriticality {
		return MaxCriticality
	}
	return v
}

// AnalysisResult is what the classifier produced for one message
type AnalysisResult struct {
	Sentiment            Sentiment `json:"sentiment"`
	CriticalityLevel     int       `json:"criticalityLevel"`
	ResolutionSuggestion string    `json:"resolutionSuggestion"`
	Fallback             bool      `json:"-"`
}

// FeedbackRecord is the persisted, classified result of one submission
type FeedbackRecord struct {
	ID                   string    `json:"id" bson:"-"`
	ChatID               int64     `json:"chatId" bson:"chatId"`
	Role                 Role      `json:"role" bson:"role"`
	Branch               string    `json:"branch" bson:"branch"`
	Message              string    `json:"message" bson:"message"`
	Sentiment            Sentiment `json:"sentiment" bson:"sentiment"`
	CriticalityLevel     int       `json:"criticalityLevel" bson:"criticalityLevel"`
	ResolutionSuggestion string    `json:"resolutionSuggestion" bson:"resolutionSuggestion"`
	SubmittedAt          time.Time `json:"submittedAt" bson:"submittedAt"`
	Mirrored             bool      `json:"mirrored" bson:"mirrored"`
}

// Submission is one feedback message handed from the conversation to the pipeline
type Submission struct {
	ChatID int64
	Role   Role
	Branch string
	Text   string
}
