package service

import (
	"context"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"sync"
)

// InboundMessage is one text message received from a chat
type InboundMessage struct {
	ChatID int64
	Text   string
}

// Submitter accepts feedback ready for analysis
type Submitter interface {
	Submit(ctx context.Context, sub model.Submission)
}

type chatWorker struct {
	queue []InboundMessage
}

// Dispatcher runs one conversation turn per inbound message. Messages from
// different chats are handled concurrently; messages from the same chat are
// handled one at a time in arrival order.
type Dispatcher struct {
	engine    *ConversationEngine
	sessions  *SessionStore
	sender    Sender
	submitter Submitter
	log       *logger.Logger

	mu      sync.Mutex
	workers map[int64]*chatWorker
	wg      sync.WaitGroup
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(engine *ConversationEngine, sessions *SessionStore, sender Sender, submitter Submitter, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		engine:    engine,
		sessions:  sessions,
		sender:    sender,
		submitter: submitter,
		log:       log.With("component", "dispatcher"),
		workers:   make(map[int64]*chatWorker),
	}
}

// Dispatch queues msg behind any earlier message from the same chat and returns
// immediately. Queued messages are still handled after ctx is canceled.
func (d *Dispatcher) Dispatch(ctx context.Context, msg InboundMessage) {
	d.mu.Lock()
	if w, ok := d.workers[msg.ChatID]; ok {
		w.queue = append(w.queue, msg)
		d.mu.Unlock()
		return
	}
	w := &chatWorker{queue: []InboundMessage{msg}}
	d.workers[msg.ChatID] = w
	d.wg.Add(1)
	d.mu.Unlock()

	go d.drain(context.WithoutCancel(ctx), msg.ChatID, w)
}

// Wait blocks until every queued message has been handled
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) drain(ctx context.Context, chatID int64, w *chatWorker) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		if len(w.queue) == 0 {
			delete(d.workers, chatID)
			d.mu.Unlock()
			return
		}
		msg := w.queue[0]
		w.queue = w.queue[1:]
		d.mu.Unlock()

		d.handle(ctx, msg)
	}
}

func (d *Dispatcher) handle(ctx context.Context, msg InboundMessage) {
	log := d.log.With("chat_id", msg.ChatID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("message handling panicked", "panic", r)
		}
	}()

	current, err := d.sessions.Get(ctx, msg.ChatID)
	if err != nil {
		log.Error("session lookup failed", "error", err)
		d.send(ctx, msg.ChatID, Reply{Text: textUnexpectedFailure}, log)
		return
	}

	turn := d.engine.Handle(msg.ChatID, current, msg.Text)
	if err := d.sessions.Upsert(ctx, turn.Session); err != nil {
		log.Error("session save failed", "error", err)
		d.send(ctx, msg.ChatID, Reply{Text: textUnexpectedFailure}, log)
		return
	}
	log.Debug("turn handled", "state", turn.Session.State)

	for _, r := range turn.Replies {
		d.send(ctx, msg.ChatID, r, log)
	}
	if turn.Submission != nil {
		d.submitter.Submit(ctx, *turn.Submission)
	}
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, r Reply, log *logger.Logger) {
	if err := d.sender.Send(ctx, chatID, r); err != nil {
		log.Error("reply not delivered", "error", err)
	}
}
