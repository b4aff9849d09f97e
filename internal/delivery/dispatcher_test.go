package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/escalation"
	"github.com/dynamicaqs/crm-engine/internal/types"
)

// recordingSender captures sends so tests can assert on them.
type recordingSender struct {
	mu    sync.Mutex
	sends []string // "channel recipient id"
	fail  bool
}

func (s *recordingSender) record(channel, recipient string, n types.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, channel+" "+recipient+" "+n.ID)
	if s.fail {
		return errors.New("provider unavailable")
	}
	return nil
}

func (s *recordingSender) SendEmail(_ context.Context, r string, n types.Notification) error {
	return s.record("email", r, n)
}
func (s *recordingSender) SendPush(_ context.Context, r string, n types.Notification) error {
	return s.record("push", r, n)
}
func (s *recordingSender) SendSMS(_ context.Context, r string, n types.Notification) error {
	return s.record("sms", r, n)
}

func (s *recordingSender) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sends))
	copy(out, s.sends)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestDispatcher_SendsEnabledChannels(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, sender, sender)

	n := types.Notification{ID: "n1", Title: "Quote"}
	d.Dispatch(context.Background(), "dealer-42", n, types.DeliveryDecision{Email: true, Push: true})

	waitFor(t, func() bool { return len(sender.snapshot()) == 2 })
	got := sender.snapshot()
	seen := map[string]bool{}
	for _, s := range got {
		seen[s] = true
	}
	if !seen["email dealer-42 n1"] || !seen["push dealer-42 n1"] {
		t.Errorf("sends = %v", got)
	}
}

func TestDispatcher_DeferredSkipsChannels(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, sender, sender)

	later := time.Now().Add(time.Hour)
	d.Dispatch(context.Background(), "dealer-42", types.Notification{ID: "n1"},
		types.DeliveryDecision{Email: true, Push: true, Defer: &later})

	time.Sleep(20 * time.Millisecond)
	if got := sender.snapshot(); len(got) != 0 {
		t.Errorf("deferred decision must not send, got %v", got)
	}
}

func TestDispatcher_FailureCallback(t *testing.T) {
	sender := &recordingSender{fail: true}
	d := NewDispatcher(sender, nil, nil)

	var mu sync.Mutex
	var failures []string
	d.SetFailureFunc(func(channel, recipient string, n types.Notification, err error) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, channel+" "+recipient)
	})

	d.Dispatch(context.Background(), "dealer-42", types.Notification{ID: "n1"},
		types.DeliveryDecision{Email: true})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(failures) == 1
	})
	mu.Lock()
	defer mu.Unlock()
	if failures[0] != "email dealer-42" {
		t.Errorf("failures = %v", failures)
	}
}

func TestDispatcher_DispatchStep(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, sender, sender)

	fired := escalation.FiredStep{
		NotificationID: "n1",
		RuleID:         "quote-followup",
		StepIndex:      1,
		Step: types.EscalationStep{
			Recipients:          []string{"sales-manager", "regional-director"},
			NotificationMethods: []string{"email", "sms"},
		},
	}
	d.DispatchStep(context.Background(), types.Notification{ID: "n1"}, fired)

	// 2 recipients x 2 methods.
	waitFor(t, func() bool { return len(sender.snapshot()) == 4 })
}
