package service

import (
	"context"
	"errors"
	"feedbackbot/internal/model"
	"fmt"
	"sync"
)

type sentReply struct {
	ChatID int64
	Reply  Reply
}

type fakeSender struct {
	mu      sync.Mutex
	replies []sentReply
	err     error
}

func (f *fakeSender) Send(_ context.Context, chatID int64, r Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, sentReply{ChatID: chatID, Reply: r})
	return f.err
}

func (f *fakeSender) texts(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.replies {
		if r.ChatID == chatID {
			out = append(out, r.Reply.Text)
		}
	}
	return out
}

type fakeClassifier struct {
	mu      sync.Mutex
	results []model.AnalysisResult
	errs    []error
	calls   int
	panics  bool
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) (model.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("classifier exploded")
	}
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return model.AnalysisResult{}, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	if len(f.results) > 0 {
		return f.results[len(f.results)-1], nil
	}
	return model.AnalysisResult{}, errors.New("no scripted result")
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeFeedbackRepo struct {
	mu        sync.Mutex
	records   []model.FeedbackRecord
	createErr error
	findErr   error
	nextID    int
}

func (f *fakeFeedbackRepo) Create(_ context.Context, rec *model.FeedbackRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	rec.ID = fmt.Sprintf("fb-%d", f.nextID)
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeFeedbackRepo) MarkMirrored(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].ID == id {
			f.records[i].Mirrored = true
			return nil
		}
	}
	return fmt.Errorf("feedback %s not found", id)
}

func (f *fakeFeedbackRepo) Find(_ context.Context, filter model.FeedbackFilter) ([]model.FeedbackRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := []model.FeedbackRecord{}
	for i := range f.records {
		if filter.Matches(&f.records[i]) {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeFeedbackRepo) EnsureIndexes(context.Context) error { return nil }

func (f *fakeFeedbackRepo) snapshot() []model.FeedbackRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.FeedbackRecord(nil), f.records...)
}

type fakeMirror struct {
	mu       sync.Mutex
	appended []model.FeedbackRecord
	err      error
}

func (f *fakeMirror) EnsureHeader(context.Context) error { return nil }

func (f *fakeMirror) Append(_ context.Context, rec *model.FeedbackRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, *rec)
	return f.err
}

func (f *fakeMirror) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appended)
}

type fakeBroadcaster struct {
	mu      sync.Mutex
	records []model.FeedbackRecord
}

func (f *fakeBroadcaster) BroadcastFeedback(rec model.FeedbackRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
}

type fakeSessionRepo struct {
	mu        sync.Mutex
	sessions  map[int64]model.Session
	upsertErr error
	getErr    error
	gets      int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[int64]model.Session)}
}

func (f *fakeSessionRepo) GetByChatID(_ context.Context, chatID int64) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[chatID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeSessionRepo) Upsert(_ context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.sessions[s.ChatID] = *s
	return nil
}

func (f *fakeSessionRepo) EnsureIndexes(context.Context) error { return nil }

type fakeSessionCache struct {
	mu       sync.Mutex
	sessions map[int64]model.Session
	setErr   error
	deleted  []int64
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{sessions: make(map[int64]model.Session)}
}

func (f *fakeSessionCache) Set(_ context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sessions[s.ChatID] = *s
	return nil
}

func (f *fakeSessionCache) Get(_ context.Context, chatID int64) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[chatID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeSessionCache) Delete(_ context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, chatID)
	f.deleted = append(f.deleted, chatID)
	return nil
}
