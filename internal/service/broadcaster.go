package service

import "feedbackbot/internal/model"

// Broadcaster pushes newly stored feedback to live admin viewers (avoids import cycle with ws)
type Broadcaster interface {
	BroadcastFeedback(record model.FeedbackRecord)
}
