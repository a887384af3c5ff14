package handler

import (
	"context"
	"errors"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"feedbackbot/internal/service"
	"feedbackbot/internal/transport/rest/middleware"
	"net/http"
	"net/url"
)

// FeedbackQuerier is the read side of stored feedback
type FeedbackQuerier interface {
	Query(ctx context.Context, params service.QueryParams) ([]model.FeedbackRecord, error)
}

// FeedbackHandler serves the admin feedback listing
type FeedbackHandler struct {
	querySvc FeedbackQuerier
	log      *logger.Logger
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(querySvc FeedbackQuerier, log *logger.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		querySvc: querySvc,
		log:      log.With("component", "feedback_handler"),
	}
}

// List handles GET /admin/api/feedbacks?branch=&role=&criticality=&sentiment=
// 200 with records, 204 when nothing matches, 400 on an invalid filter value.
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := service.QueryParams{
		Branch:      queryParam(q, "branch"),
		Role:        queryParam(q, "role"),
		Criticality: queryParam(q, "criticality"),
		Sentiment:   queryParam(q, "sentiment"),
	}

	records, err := h.querySvc.Query(r.Context(), params)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFilter) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("feedback query failed", "admin_id", middleware.GetAdminID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to query feedback")
		return
	}

	h.log.Info("feedback listed", "admin_id", middleware.GetAdminID(r.Context()), "results", len(records))
	if len(records) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func queryParam(q url.Values, key string) *string {
	if !q.Has(key) {
		return nil
	}
	v := q.Get(key)
	return &v
}
