package feed

import (
	"github.com/dynamicaqs/crm-engine/internal/escalation"
	"github.com/dynamicaqs/crm-engine/internal/types"
)

// ServerMessage is the envelope for every message pushed to feed clients.
type ServerMessage struct {
	Type         string                `json:"type"` // "hello", "notification", "escalation", "pong"
	Notification *types.Notification   `json:"notification,omitempty"`
	Escalation   *escalation.FiredStep `json:"escalation,omitempty"`
}

// ClientMessage is the only shape clients send; the feed is push-first and
// clients mostly just ping.
type ClientMessage struct {
	Type string `json:"type"` // "ping"
}
