package escalation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/notification"
	"github.com/dynamicaqs/crm-engine/internal/types"
)

// State is the lifecycle position of one (notification, rule) pairing.
type State string

const (
	// StatePending means at least one step remains to be evaluated.
	StatePending State = "pending"
	// StateResolved means the notification was handled (read/archived, or a
	// step condition failed) before the sequence finished.
	StateResolved State = "resolved"
	// StateExhausted means every step was evaluated; terminal.
	StateExhausted State = "exhausted"
)

// FiredStep describes one escalation step the scheduler fired during a tick.
type FiredStep struct {
	NotificationID string               `json:"notificationId"`
	RuleID         string               `json:"ruleId"`
	RuleName       string               `json:"ruleName"`
	StepIndex      int                  `json:"stepIndex"`
	Step           types.EscalationStep `json:"step"`
	FiredAt        time.Time            `json:"firedAt"`
}

type pairing struct {
	notificationID string
	ruleID         string
	nextStep       int
	state          State
}

// Pairing is a read-only snapshot of a tracked (notification, rule) pair,
// returned by Pairings for inspection over the API.
type Pairing struct {
	NotificationID string `json:"notificationId"`
	RuleID         string `json:"ruleId"`
	NextStep       int    `json:"nextStep"`
	State          State  `json:"state"`
}

// Scheduler tracks (notification, rule) pairings and fires escalation steps
// as their delays elapse. Ticks are serialized: a tick that arrives while
// another is running waits for it, so a step can never double-fire.
type Scheduler struct {
	mu       sync.Mutex
	store    notification.Store
	rules    []types.EscalationRule
	pairings map[string]*pairing
	order    []string // pairing keys in creation order, for deterministic ticks
}

// NewScheduler creates a scheduler over the given store and rule set.
func NewScheduler(store notification.Store, rules []types.EscalationRule) *Scheduler {
	return &Scheduler{
		store:    store,
		rules:    rules,
		pairings: make(map[string]*pairing),
	}
}

// SetRules atomically replaces the rule set. Pairings for rules that no
// longer exist are dropped on the next tick; progress on surviving rules is
// kept.
func (s *Scheduler) SetRules(rules []types.EscalationRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = rules
}

// Rules returns the active rule set.
func (s *Scheduler) Rules() []types.EscalationRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.EscalationRule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Track evaluates every enabled rule against a new notification and creates
// a pending pairing for each match. Call it once per notification, at
// creation time.
func (s *Scheduler) Track(n types.Notification) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackLocked(n)
}

func (s *Scheduler) trackLocked(n types.Notification) int {
	matched := 0
	for _, rule := range s.rules {
		if !rule.Enabled || !RuleApplies(rule.Conditions, n) {
			continue
		}
		key := pairKey(n.ID, rule.ID)
		if _, exists := s.pairings[key]; exists {
			continue
		}
		s.pairings[key] = &pairing{
			notificationID: n.ID,
			ruleID:         rule.ID,
			state:          StatePending,
		}
		s.order = append(s.order, key)
		matched++
	}
	return matched
}

// Pairings returns a snapshot of all tracked pairings, including terminal
// ones, in creation order.
func (s *Scheduler) Pairings() []Pairing {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pairing, 0, len(s.order))
	for _, key := range s.order {
		p, ok := s.pairings[key]
		if !ok {
			continue
		}
		out = append(out, Pairing{
			NotificationID: p.notificationID,
			RuleID:         p.ruleID,
			NextStep:       p.nextStep,
			State:          p.state,
		})
	}
	return out
}

// Tick evaluates every pending pairing against the supplied clock and
// returns the steps that fired. Step fire times are absolute offsets from
// the notification's CreatedAt, so a tick that arrives late fires every
// step that has come due, in order.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) ([]FiredStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.adoptActive(ctx); err != nil {
		return nil, err
	}

	var fired []FiredStep
	for _, key := range s.order {
		p, ok := s.pairings[key]
		if !ok || p.state != StatePending {
			continue
		}

		rule, ok := s.ruleByID(p.ruleID)
		if !ok {
			// Rule removed by a reload; drop the pairing.
			delete(s.pairings, key)
			continue
		}

		n, err := s.store.Get(ctx, p.notificationID)
		if errors.Is(err, notification.ErrNotFound) {
			delete(s.pairings, key)
			continue
		}
		if err != nil {
			return fired, fmt.Errorf("loading notification %s: %w", p.notificationID, err)
		}

		steps, err := s.advance(ctx, p, rule, n, now)
		if err != nil {
			return fired, err
		}
		fired = append(fired, steps...)
	}
	return fired, nil
}

// adoptActive pairs rules with unarchived notifications the scheduler has
// not seen yet: seed data, rows already in SQLite on restart, and
// notifications a rule reload made newly applicable. Existing pairings are
// untouched.
func (s *Scheduler) adoptActive(ctx context.Context) error {
	archived := false
	active, err := s.store.Query(ctx, notification.Filter{Archived: &archived, Limit: 500})
	if err != nil {
		return fmt.Errorf("scanning notifications: %w", err)
	}
	for _, n := range active {
		s.trackLocked(n)
	}
	return nil
}

// advance walks one pairing forward through every step due at now.
func (s *Scheduler) advance(ctx context.Context, p *pairing, rule types.EscalationRule, n types.Notification, now time.Time) ([]FiredStep, error) {
	var fired []FiredStep
	for p.state == StatePending {
		step := rule.EscalationSteps[p.nextStep]

		handled := n.Read || n.Archived
		fireAlways := step.Conditions != nil && step.Conditions.FireAlways
		if handled && !fireAlways {
			p.state = StateResolved
			return fired, nil
		}

		fireAt := n.CreatedAt.Add(time.Duration(step.DelayMinutes) * time.Minute)
		if fireAt.After(now) {
			return fired, nil
		}

		if step.Conditions != nil && step.Conditions.StillUnread && n.Read {
			p.state = StateResolved
			return fired, nil
		}

		if err := s.store.TagEscalated(ctx, n.ID, rule.ID); err != nil && !errors.Is(err, notification.ErrNotFound) {
			return fired, fmt.Errorf("tagging %s: %w", n.ID, err)
		}
		fired = append(fired, FiredStep{
			NotificationID: n.ID,
			RuleID:         rule.ID,
			RuleName:       rule.Name,
			StepIndex:      p.nextStep,
			Step:           step,
			FiredAt:        now,
		})

		p.nextStep++
		if p.nextStep >= len(rule.EscalationSteps) {
			p.state = StateExhausted
		}
	}
	return fired, nil
}

func (s *Scheduler) ruleByID(id string) (types.EscalationRule, bool) {
	for _, r := range s.rules {
		if r.ID == id {
			return r, true
		}
	}
	return types.EscalationRule{}, false
}

// RuleApplies reports whether every set condition matches the notification.
// Unset fields impose no constraint; value thresholds compare against the
// notification's "value" metadata and are inclusive.
func RuleApplies(c types.RuleConditions, n types.Notification) bool {
	if c.MinValue != nil || c.MaxValue != nil {
		value, ok := n.MetadataNumber("value")
		if !ok {
			return false
		}
		if c.MinValue != nil && value < *c.MinValue {
			return false
		}
		if c.MaxValue != nil && value > *c.MaxValue {
			return false
		}
	}
	if len(c.Priorities) > 0 && !containsPriority(c.Priorities, n.Priority) {
		return false
	}
	if len(c.Categories) > 0 && !containsCategory(c.Categories, n.Category) {
		return false
	}
	if len(c.SalesPhases) > 0 {
		phase, ok := n.MetadataString("salesPhase")
		if !ok || !containsString(c.SalesPhases, phase) {
			return false
		}
	}
	if len(c.Segments) > 0 {
		segment, ok := n.MetadataString("segment")
		if !ok || !containsString(c.Segments, segment) {
			return false
		}
	}
	return true
}

func pairKey(notificationID, ruleID string) string {
	return notificationID + "\x00" + ruleID
}

func containsPriority(set []types.Priority, p types.Priority) bool {
	for _, v := range set {
		if v == p {
			return true
		}
	}
	return false
}

func containsCategory(set []types.Category, c types.Category) bool {
	for _, v := range set {
		if v == c {
			return true
		}
	}
	return false
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
