package service

import (
	"feedbackbot/internal/model"
	"strings"
	"time"
)

// StartCommand resets any chat to role selection
const StartCommand = "/start"

// Turn is the outcome of interpreting one inbound message
type Turn struct {
	Session *model.Session
	Replies []Reply
	// Submission is set when the message is feedback to analyze. The
	// acknowledgment for it is sent by the pipeline, not listed in Replies.
	Submission *model.Submission
}

// ConversationEngine decides the next session state and replies for a message.
// It has no side effects; the caller persists Turn.Session and delivers replies.
type ConversationEngine struct {
	now func() time.Time
}

// NewConversationEngine creates a conversation engine
func NewConversationEngine() *ConversationEngine {
	return &ConversationEngine{now: time.Now}
}

// Handle interprets text for chatID. current is nil for a chat never seen before.
// current is not modified.
func (e *ConversationEngine) Handle(chatID int64, current *model.Session, text string) Turn {
	now := e.now().UTC()
	var session *model.Session
	if current == nil {
		session = model.NewSession(chatID, now)
	} else {
		session = current.Clone()
	}
	session.UpdatedAt = now

	if isStartCommand(text) {
		session.State = model.StateAwaitingRole
		session.Role = ""
		session.Branch = ""
		return Turn{Session: session, Replies: []Reply{welcomeReply()}}
	}

	switch session.State {
	case model.StateAwaitingRole:
		role, ok := model.ParseRole(text)
		if !ok {
			return Turn{Session: session, Replies: []Reply{invalidRoleReply()}}
		}
		session.Role = role
		session.State = model.StateAwaitingBranch
		return Turn{Session: session, Replies: []Reply{branchPromptReply(role)}}

	case model.StateAwaitingBranch:
		branch := strings.TrimSpace(text)
		if branch == "" {
			return Turn{Session: session, Replies: []Reply{{Text: textEmptyBranch}}}
		}
		if session.Role == "" {
			return resetCorrupted(session)
		}
		session.Branch = branch
		session.State = model.StateReady
		return Turn{Session: session, Replies: []Reply{readyReply(session.Role, branch)}}

	case model.StateReady:
		role, branch, ok := session.Profile()
		if !ok {
			return resetCorrupted(session)
		}
		return Turn{
			Session: session,
			Submission: &model.Submission{
				ChatID: chatID,
				Role:   role,
				Branch: branch,
				Text:   text,
			},
		}

	default:
		session.State = model.StateStart
		return Turn{Session: session, Replies: []Reply{{Text: textStartHint}}}
	}
}

// resetCorrupted sends a session that lost its role or branch back to START
func resetCorrupted(session *model.Session) Turn {
	session.State = model.StateStart
	session.Role = ""
	session.Branch = ""
	return Turn{Session: session, Replies: []Reply{{Text: textSessionError}}}
}

// isStartCommand accepts "/start", "/start@botname" and "/start <payload>"
func isStartCommand(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	cmd := fields[0]
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd == StartCommand
}
