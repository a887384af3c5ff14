package telegram

import (
	"context"
	"errors"
	"feedbackbot/internal/config"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/service"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Dispatcher receives every inbound text message
type Dispatcher interface {
	Dispatch(ctx context.Context, msg service.InboundMessage)
}

// botAPI is the part of tgbotapi.BotAPI the bot uses
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot long-polls Telegram for updates and delivers replies (implements service.Sender)
type Bot struct {
	api         botAPI
	dispatcher  Dispatcher
	pollTimeout int
	log         *logger.Logger
}

// NewBot connects to the Bot API with the configured token
func NewBot(cfg config.TelegramConfig, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	log.Info("telegram bot authorized", "username", api.Self.UserName)
	return newBot(api, cfg.PollTimeoutSec, log), nil
}

func newBot(api botAPI, pollTimeout int, log *logger.Logger) *Bot {
	return &Bot{
		api:         api,
		pollTimeout: pollTimeout,
		log:         log.With("component", "telegram"),
	}
}

// SetDispatcher sets where inbound messages go
func (b *Bot) SetDispatcher(d Dispatcher) {
	b.dispatcher = d
}

// Run polls for updates until ctx is done
func (b *Bot) Run(ctx context.Context) error {
	if b.dispatcher == nil {
		return errors.New("telegram bot has no dispatcher")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.log.Info("polling for updates", "timeout_sec", b.pollTimeout)
	for {
		select {
		case <-ctx.Done():
			b.log.Info("stopped polling")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if msg, ok := inboundFromUpdate(update); ok {
				b.dispatcher.Dispatch(ctx, msg)
			}
		}
	}
}

// inboundFromUpdate keeps only plain text messages
func inboundFromUpdate(update tgbotapi.Update) (service.InboundMessage, bool) {
	m := update.Message
	if m == nil || m.Chat == nil || m.Text == "" {
		return service.InboundMessage{}, false
	}
	return service.InboundMessage{ChatID: m.Chat.ID, Text: m.Text}, true
}

// Send delivers one reply, with a one-row reply keyboard when it has buttons
func (b *Bot) Send(_ context.Context, chatID int64, reply service.Reply) error {
	if _, err := b.api.Send(buildMessage(chatID, reply)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func buildMessage(chatID int64, reply service.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if len(reply.Keyboard) > 0 {
		row := make([]tgbotapi.KeyboardButton, 0, len(reply.Keyboard))
		for _, label := range reply.Keyboard {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		keyboard := tgbotapi.NewReplyKeyboard(row)
		keyboard.ResizeKeyboard = true
		keyboard.Selective = true
		msg.ReplyMarkup = keyboard
	}
	return msg
}
