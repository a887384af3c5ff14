package service

import (
	"context"
	"feedbackbot/internal/model"
	"fmt"
)

// Reply is one outbound chat message. Keyboard, when set, is shown as a
// single row of reply buttons.
type Reply struct {
	Text     string
	Keyboard []string
}

// Sender delivers replies to a chat
type Sender interface {
	Send(ctx context.Context, chatID int64, reply Reply) error
}

const (
	textWelcome           = "Вітаємо в боті анонімних відгуків! Будь ласка, оберіть вашу посаду:"
	textInvalidRole       = "Невірна посада. Будь ласка, оберіть одну з кнопок або введіть: МЕХАНІК, ЕЛЕКТРИК, МЕНЕДЖЕР."
	textSessionError      = "Помилка сесії. Будь ласка, надішліть /start, щоб розпочати заново."
	textStartHint         = "Будь ласка, надішліть /start, щоб розпочати."
	textEmptyBranch       = "Назва філії не може бути порожньою. Будь ласка, введіть назву вашої філії:"
	textAcknowledge       = "Дякуємо за ваш відгук. Аналізуємо повідомлення та зберігаємо..."
	textAnalysisFailed    = "Не вдалося проаналізувати відгук. Спробуйте пізніше."
	textUnexpectedFailure = "Виникла неочікувана помилка під час аналізу відгуку. Спробуйте пізніше."

	// FallbackSuggestion is stored when the classifier could not produce a result
	FallbackSuggestion = "Не вдалося проаналізувати відгук через помилку сервісу аналізу."
)

func roleKeyboard() []string {
	buttons := make([]string, 0, len(model.Roles))
	for _, r := range model.Roles {
		buttons = append(buttons, string(r))
	}
	return buttons
}

func welcomeReply() Reply {
	return Reply{Text: textWelcome, Keyboard: roleKeyboard()}
}

func invalidRoleReply() Reply {
	return Reply{Text: textInvalidRole, Keyboard: roleKeyboard()}
}

func branchPromptReply(role model.Role) Reply {
	return Reply{Text: fmt.Sprintf("Ви обрали: %s. Тепер, будь ласка, введіть назву вашої філії (наприклад, 'Філія_1', 'Сервісний_Центр'):", role)}
}

func readyReply(role model.Role, branch string) Reply {
	return Reply{Text: fmt.Sprintf("Дякуємо! Ваша посада %s та ваша філія %s.\n"+
		"Тепер ви можете надсилати свій анонімний відгук у будь-який час. Напишіть ваше повідомлення:", role, branch)}
}

func resultReply(rec *model.FeedbackRecord) Reply {
	return Reply{Text: fmt.Sprintf("Ваш відгук проаналізовано та збережено:\n"+
		"Настрій: %s\n"+
		"Критичність: %d (з 5)\n"+
		"Можливе вирішення: %s",
		rec.Sentiment.DisplayText(), rec.CriticalityLevel, rec.ResolutionSuggestion)}
}

func fallbackResult() model.AnalysisResult {
	return model.AnalysisResult{
		Sentiment:            model.SentimentNeutral,
		CriticalityLevel:     model.MinCriticality,
		ResolutionSuggestion: FallbackSuggestion,
		Fallback:             true,
	}
}
