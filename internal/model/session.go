package model

import (
	"strings"
	"time"
)

// SessionState is the onboarding step a chat is in
type SessionState string

const (
	StateStart          SessionState = "START"
	StateAwaitingRole   SessionState = "AWAITING_ROLE"
	StateAwaitingBranch SessionState = "AWAITING_BRANCH"
	StateReady          SessionState = "READY_FOR_FEEDBACK"
)

// Role is the job category a user reports under
type Role string

const (
	RoleMechanic    Role = "МЕХАНІК"
	RoleElectrician Role = "ЕЛЕКТРИК"
	RoleManager     Role = "МЕНЕДЖЕР"
)

// Roles lists every accepted role in keyboard order
var Roles = []Role{RoleMechanic, RoleElectrician, RoleManager}

// ParseRole matches s against the known roles, ignoring case and surrounding space
func ParseRole(s string) (Role, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Session is the per-chat conversation progress
type Session struct {
	ChatID    int64        `json:"chatId" bson:"chatId"`
	State     SessionState `json:"state" bson:"state"`
	Role      Role         `json:"role,omitempty" bson:"role,omitempty"`
	Branch    string       `json:"branch,omitempty" bson:"branch,omitempty"`
	CreatedAt time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// NewSession returns a fresh session for a chat seen for the first time
func NewSession(chatID int64, now time.Time) *Session {
	return &Session{
		ChatID:    chatID,
		State:     StateStart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Profile returns the role and branch a READY session submits under.
// ok is false when either is missing.
func (s *Session) Profile() (Role, string, bool) {
	if s.Role == "" || strings.TrimSpace(s.Branch) == "" {
		return "", "", false
	}
	return s.Role, s.Branch, true
}

// Clone returns a copy that can be mutated without touching s
func (s *Session) Clone() *Session {
	cp := *s
	return &cp
}
