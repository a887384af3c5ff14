package service

import (
	"context"
	"errors"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"feedbackbot/internal/repository"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFilter means a query parameter could not be parsed. It is never
// reported as an empty result.
var ErrInvalidFilter = errors.New("invalid filter value")

// QueryParams are the raw admin filter values. A nil or blank value is not a filter.
type QueryParams struct {
	Branch      *string
	Role        *string
	Criticality *string
	Sentiment   *string
}

// FeedbackQueryService answers admin queries over stored feedback
type FeedbackQueryService struct {
	repo repository.FeedbackRepo
	log  *logger.Logger
}

// NewFeedbackQueryService creates a new feedback query service
func NewFeedbackQueryService(repo repository.FeedbackRepo, log *logger.Logger) *FeedbackQueryService {
	return &FeedbackQueryService{
		repo: repo,
		log:  log.With("component", "feedback_query"),
	}
}

// Query returns every record matching all given filters. An empty slice
// means no results.
func (s *FeedbackQueryService) Query(ctx context.Context, params QueryParams) ([]model.FeedbackRecord, error) {
	filter, err := ParseFilter(params)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find feedback: %w", err)
	}
	s.log.Debug("feedback query", "filtered", !filter.IsEmpty(), "results", len(records))
	return records, nil
}

// ParseFilter validates params into a filter. Role and sentiment must name a
// known value; criticality must be an integer. An out-of-range criticality is
// a valid filter that matches nothing.
func ParseFilter(params QueryParams) (model.FeedbackFilter, error) {
	var f model.FeedbackFilter
	if v, ok := present(params.Branch); ok {
		f.Branch = &v
	}
	if v, ok := present(params.Role); ok {
		role, ok := model.ParseRole(v)
		if !ok {
			return f, fmt.Errorf("%w: role %q", ErrInvalidFilter, v)
		}
		f.Role = &role
	}
	if v, ok := present(params.Criticality); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: criticality %q", ErrInvalidFilter, v)
		}
		f.Criticality = &n
	}
	if v, ok := present(params.Sentiment); ok {
		sentiment, ok := model.ParseSentiment(v)
		if !ok {
			return f, fmt.Errorf("%w: sentiment %q", ErrInvalidFilter, v)
		}
		f.Sentiment = &sentiment
	}
	return f, nil
}

func present(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	v := strings.TrimSpace(*p)
	return v, v != ""
}
