// Package delivery hands notifications to external channels. The engine
// treats every channel as fire-and-forget: one attempt per decision, with
// failures reported back asynchronously through a callback.
package delivery

import (
	"context"
	"log"

	"github.com/dynamicaqs/crm-engine/internal/types"
)

// EmailSender delivers a notification over email.
type EmailSender interface {
	SendEmail(ctx context.Context, recipient string, n types.Notification) error
}

// PushSender delivers a notification as a push message.
type PushSender interface {
	SendPush(ctx context.Context, recipient string, n types.Notification) error
}

// SMSSender delivers a notification as a text message. Only escalation
// steps use SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, recipient string, n types.Notification) error
}

// LogSender implements all three channels by logging the attempt. It stands
// in for real providers in development and tests.
type LogSender struct{}

func NewLogSender() *LogSender { return &LogSender{} }

func (s *LogSender) SendEmail(_ context.Context, recipient string, n types.Notification) error {
	log.Printf("delivery: email to %s: %s", recipient, n.Title)
	return nil
}

func (s *LogSender) SendPush(_ context.Context, recipient string, n types.Notification) error {
	log.Printf("delivery: push to %s: %s", recipient, n.Title)
	return nil
}

func (s *LogSender) SendSMS(_ context.Context, recipient string, n types.Notification) error {
	log.Printf("delivery: sms to %s: %s", recipient, n.Title)
	return nil
}
