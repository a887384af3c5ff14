package telegram

import (
	"context"
	"errors"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/service"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	sendErr error
	updates chan tgbotapi.Update
	stopped bool
	timeout int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeAPI) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeout = cfg.Timeout
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

type recordingDispatcher struct {
	mu   sync.Mutex
	msgs []service.InboundMessage
}

func (r *recordingDispatcher) Dispatch(_ context.Context, msg service.InboundMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}}
}

func TestRunDispatchesTextMessagesOnly(t *testing.T) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 4)}
	d := &recordingDispatcher{}
	bot := newBot(api, 30, logger.Nop())
	bot.SetDispatcher(d)

	api.updates <- textUpdate(1, "/start")
	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Photo: []tgbotapi.PhotoSize{{FileID: "p"}}}}
	api.updates <- tgbotapi.Update{EditedMessage: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "edited"}}
	api.updates <- textUpdate(2, "МЕХАНІК")
	close(api.updates)

	if err := bot.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(d.msgs) != 2 {
		t.Fatalf("dispatched = %+v", d.msgs)
	}
	if d.msgs[0] != (service.InboundMessage{ChatID: 1, Text: "/start"}) || d.msgs[1] != (service.InboundMessage{ChatID: 2, Text: "МЕХАНІК"}) {
		t.Fatalf("dispatched = %+v", d.msgs)
	}
	if !api.stopped || api.timeout != 30 {
		t.Fatalf("stopped=%v timeout=%d", api.stopped, api.timeout)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update)}
	bot := newBot(api, 60, logger.Nop())
	bot.SetDispatcher(&recordingDispatcher{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunRequiresDispatcher(t *testing.T) {
	bot := newBot(&fakeAPI{}, 60, logger.Nop())
	if err := bot.Run(context.Background()); err == nil {
		t.Fatal("expected error without dispatcher")
	}
}

func TestSendBuildsKeyboard(t *testing.T) {
	api := &fakeAPI{}
	bot := newBot(api, 60, logger.Nop())

	err := bot.Send(context.Background(), 77, service.Reply{Text: "оберіть", Keyboard: []string{"МЕХАНІК", "ЕЛЕКТРИК", "МЕНЕДЖЕР"}})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	msg := api.sent[0].(tgbotapi.MessageConfig)
	if msg.ChatID != 77 || msg.Text != "оберіть" {
		t.Fatalf("message = %+v", msg)
	}
	kb, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok {
		t.Fatalf("markup = %T", msg.ReplyMarkup)
	}
	if len(kb.Keyboard) != 1 || len(kb.Keyboard[0]) != 3 || kb.Keyboard[0][1].Text != "ЕЛЕКТРИК" {
		t.Fatalf("keyboard = %+v", kb.Keyboard)
	}
	if !kb.ResizeKeyboard || !kb.Selective || kb.OneTimeKeyboard {
		t.Fatalf("keyboard flags = %+v", kb)
	}
}

func TestSendPlainTextAndError(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("forbidden: bot was blocked")}
	bot := newBot(api, 60, logger.Nop())

	err := bot.Send(context.Background(), 5, service.Reply{Text: "hi"})
	if err == nil {
		t.Fatal("expected send error")
	}
	if msg := api.sent[0].(tgbotapi.MessageConfig); msg.ReplyMarkup != nil {
		t.Fatalf("plain reply has markup %T", msg.ReplyMarkup)
	}
}
