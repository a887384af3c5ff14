package service

import (
	"context"
	"errors"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"fmt"
	"sync"
	"testing"
)

type recordingSubmitter struct {
	mu   sync.Mutex
	subs []model.Submission
}

func (r *recordingSubmitter) Submit(_ context.Context, sub model.Submission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, sub)
}

func newTestDispatcher(repo *fakeSessionRepo, sender *fakeSender, sub Submitter) *Dispatcher {
	store := NewSessionStore(repo, nil, logger.Nop())
	return NewDispatcher(testEngine(), store, sender, sub, logger.Nop())
}

func TestDispatcherOnboardingFlow(t *testing.T) {
	repo := newFakeSessionRepo()
	sender := &fakeSender{}
	sub := &recordingSubmitter{}
	d := newTestDispatcher(repo, sender, sub)

	for _, text := range []string{"/start", "менеджер", "East", "Черги на мийку задовгі"} {
		d.Dispatch(context.Background(), InboundMessage{ChatID: 5, Text: text})
	}
	d.Wait()

	texts := sender.texts(5)
	want := []string{
		textWelcome,
		branchPromptReply(model.RoleManager).Text,
		readyReply(model.RoleManager, "East").Text,
	}
	if fmt.Sprint(texts) != fmt.Sprint(want) {
		t.Fatalf("replies = %q, want %q", texts, want)
	}
	if len(sub.subs) != 1 {
		t.Fatalf("submissions = %+v", sub.subs)
	}
	got := sub.subs[0]
	if got.Role != model.RoleManager || got.Branch != "East" || got.Text != "Черги на мийку задовгі" {
		t.Fatalf("submission = %+v", got)
	}
	if s := repo.sessions[5]; s.State != model.StateReady {
		t.Fatalf("persisted state = %s", s.State)
	}
}

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	repo := newFakeSessionRepo()
	sender := &fakeSender{}
	sub := &recordingSubmitter{}
	d := newTestDispatcher(repo, sender, sub)

	const chats = 8
	const perChat = 20
	for _, chatID := range []int64{1, 2, 3, 4, 5, 6, 7, 8} {
		repo.sessions[chatID] = model.Session{ChatID: chatID, State: model.StateReady, Role: model.RoleMechanic, Branch: "B"}
	}

	var wg sync.WaitGroup
	for c := int64(1); c <= chats; c++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			for i := 0; i < perChat; i++ {
				d.Dispatch(context.Background(), InboundMessage{ChatID: chatID, Text: fmt.Sprintf("msg-%d", i)})
			}
		}(c)
	}
	wg.Wait()
	d.Wait()

	next := make(map[int64]int)
	for _, s := range sub.subs {
		want := fmt.Sprintf("msg-%d", next[s.ChatID])
		if s.Text != want {
			t.Fatalf("chat %d got %q, want %q", s.ChatID, s.Text, want)
		}
		next[s.ChatID]++
	}
	for c := int64(1); c <= chats; c++ {
		if next[c] != perChat {
			t.Fatalf("chat %d handled %d messages", c, next[c])
		}
	}
	if len(d.workers) != 0 {
		t.Fatalf("idle workers not released: %d", len(d.workers))
	}
}

func TestDispatcherSessionFailureRepliesAndContinues(t *testing.T) {
	repo := newFakeSessionRepo()
	repo.upsertErr = errors.New("mongo down")
	sender := &fakeSender{}
	d := newTestDispatcher(repo, sender, &recordingSubmitter{})

	d.Dispatch(context.Background(), InboundMessage{ChatID: 9, Text: "/start"})
	d.Wait()

	texts := sender.texts(9)
	if len(texts) != 1 || texts[0] != textUnexpectedFailure {
		t.Fatalf("replies = %q", texts)
	}

	repo.upsertErr = nil
	d.Dispatch(context.Background(), InboundMessage{ChatID: 9, Text: "/start"})
	d.Wait()
	if texts := sender.texts(9); texts[len(texts)-1] != textWelcome {
		t.Fatalf("dispatcher did not recover: %q", texts)
	}
}

func TestDispatcherCorruptedSessionResets(t *testing.T) {
	repo := newFakeSessionRepo()
	repo.sessions[3] = model.Session{ChatID: 3, State: model.StateReady, Role: model.RoleMechanic}
	sender := &fakeSender{}
	sub := &recordingSubmitter{}
	d := newTestDispatcher(repo, sender, sub)

	d.Dispatch(context.Background(), InboundMessage{ChatID: 3, Text: "feedback"})
	d.Wait()

	if texts := sender.texts(3); len(texts) != 1 || texts[0] != textSessionError {
		t.Fatalf("replies = %q", texts)
	}
	if len(sub.subs) != 0 {
		t.Fatal("corrupted session submitted feedback")
	}
	if s := repo.sessions[3]; s.State != model.StateStart || s.Role != "" {
		t.Fatalf("session not reset: %+v", s)
	}
}
