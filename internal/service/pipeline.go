package service

import (
	"context"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"feedbackbot/internal/repository"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pipeline takes one feedback submission from acknowledgment to stored,
// mirrored and reported result.
type Pipeline struct {
	classifier  Classifier
	feedback    repository.FeedbackRepo
	mirror      SheetMirror
	sender      Sender
	retrier     *Retrier
	broadcaster Broadcaster
	log         *logger.Logger
	now         func() time.Time

	wg sync.WaitGroup
}

// NewPipeline creates a new analysis pipeline
func NewPipeline(classifier Classifier, feedback repository.FeedbackRepo, mirror SheetMirror, sender Sender, retrier *Retrier, log *logger.Logger) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		feedback:   feedback,
		mirror:     mirror,
		sender:     sender,
		retrier:    retrier,
		log:        log.With("component", "pipeline"),
		now:        time.Now,
	}
}

// SetBroadcaster sets the live feed for stored feedback
func (p *Pipeline) SetBroadcaster(b Broadcaster) {
	p.broadcaster = b
}

// Submit sends the acknowledgment, then analyzes the submission on its own
// goroutine. The acknowledgment is always sent before any result message.
// Once submitted, the work is not canceled with ctx.
func (p *Pipeline) Submit(ctx context.Context, sub model.Submission) {
	log := p.log.With("submission_id", uuid.NewString(), "chat_id", sub.ChatID)
	p.reply(ctx, sub.ChatID, Reply{Text: textAcknowledge}, log)

	runCtx := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(runCtx, sub, log)
	}()
}

// Wait blocks until every submitted analysis, including mirror writes, has finished
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) run(ctx context.Context, sub model.Submission, log *logger.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("unexpected fault during analysis", "panic", r)
			p.reply(ctx, sub.ChatID, Reply{Text: textUnexpectedFailure}, log)
		}
	}()

	result := p.classify(ctx, sub.Text, log)

	record := &model.FeedbackRecord{
		ChatID:               sub.ChatID,
		Role:                 sub.Role,
		Branch:               sub.Branch,
		Message:              sub.Text,
		Sentiment:            result.Sentiment,
		CriticalityLevel:     result.CriticalityLevel,
		ResolutionSuggestion: result.ResolutionSuggestion,
		SubmittedAt:          p.now().UTC(),
	}
	if err := p.feedback.Create(ctx, record); err != nil {
		log.Error("feedback not persisted", "error", err)
		p.reply(ctx, sub.ChatID, Reply{Text: textAnalysisFailed}, log)
		return
	}
	log.Info("feedback stored",
		"feedback_id", record.ID,
		"sentiment", record.Sentiment,
		"criticality", record.CriticalityLevel,
		"fallback", result.Fallback,
	)

	p.mirrorAsync(ctx, *record, log)
	if p.broadcaster != nil {
		p.broadcaster.BroadcastFeedback(*record)
	}
	p.reply(ctx, sub.ChatID, resultReply(record), log)
}

// classify never fails: rate limits are retried, everything else falls back
func (p *Pipeline) classify(ctx context.Context, text string, log *logger.Logger) model.AnalysisResult {
	var result model.AnalysisResult
	err := p.retrier.Do(ctx, func(ctx context.Context) error {
		r, err := p.classifier.Classify(ctx, text)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		log.Warn("classification failed, using fallback", "error", err)
		return fallbackResult()
	}

	sentiment, ok := model.ParseSentiment(string(result.Sentiment))
	if !ok {
		sentiment = model.SentimentNeutral
	}
	result.Sentiment = sentiment
	result.CriticalityLevel = model.ClampCriticality(result.CriticalityLevel)
	return result
}

// mirrorAsync makes a single append attempt off the reply path
func (p *Pipeline) mirrorAsync(ctx context.Context, record model.FeedbackRecord, log *logger.Logger) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.mirror.Append(ctx, &record); err != nil {
			log.Warn("sheet mirror append failed", "feedback_id", record.ID, "error", err)
			return
		}
		if err := p.feedback.MarkMirrored(ctx, record.ID); err != nil {
			log.Error("mark mirrored failed", "feedback_id", record.ID, "error", err)
			return
		}
		log.Debug("feedback mirrored", "feedback_id", record.ID)
	}()
}

func (p *Pipeline) reply(ctx context.Context, chatID int64, r Reply, log *logger.Logger) {
	if err := p.sender.Send(ctx, chatID, r); err != nil {
		log.Error("reply not delivered", "error", err)
	}
}
