// Package escalation drives timed follow-ups for notifications that match
// configured rules: loading and validating the rule set, and running the
// per-pairing state machine that fires steps as their delays elapse.
package escalation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/dynamicaqs/crm-engine/internal/types"
)

// ErrRuleValidation is returned when a rules file fails schema or semantic
// validation. A file that fails validation is never partially applied.
var ErrRuleValidation = errors.New("rule validation failed")

// ruleSchema is the CUE shape every rules file must satisfy. Structural
// checks live here; cross-field checks (unique ids, ordered delays) are
// done in Go after decoding.
const ruleSchema = `
#StepConditions: {
	stillUnread?: bool
	fireAlways?:  bool
}

#Step: {
	delayMinutes:        int & >=0
	recipients:          [string, ...string]
	notificationMethods: [...("email" | "push" | "sms")] & [_, ...]
	template?:           string
	conditions?:         #StepConditions
}

#Conditions: {
	minValue?:    number
	maxValue?:    number
	priorities?:  [...string]
	categories?:  [...string]
	salesPhases?: [...string]
	segments?:    [...string]
}

#Rule: {
	id:              string & !=""
	name:            string & !=""
	description?:    string
	enabled:         bool
	conditions:      #Conditions
	escalationSteps: [#Step, ...#Step]
}

rules: [...#Rule]
`

type rulesFile struct {
	Rules []types.EscalationRule `json:"rules"`
}

// LoadRules reads and validates a JSON rules file. On any error the
// returned slice is nil; callers keep whatever rule set they already had.
func LoadRules(path string) ([]types.EscalationRule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	rules, err := ParseRules(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// ParseRules validates raw JSON against the rule schema and decodes it.
func ParseRules(raw []byte) ([]types.EscalationRule, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(ruleSchema)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling rule schema: %w", schema.Err())
	}
	data := ctx.CompileBytes(raw)
	if data.Err() != nil {
		return nil, fmt.Errorf("%w: parsing rules: %v", ErrRuleValidation, data.Err())
	}
	unified := schema.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuleValidation, err)
	}

	var file rulesFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: decoding rules: %v", ErrRuleValidation, err)
	}
	if err := checkRules(file.Rules); err != nil {
		return nil, err
	}
	return file.Rules, nil
}

// checkRules enforces the cross-field constraints CUE cannot express
// per-document: unique ids, known enum values, and step delays that
// strictly increase (delays are absolute from the notification's creation,
// so equal delays would make step order meaningless).
func checkRules(rules []types.EscalationRule) error {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if seen[r.ID] {
			return fmt.Errorf("%w: duplicate rule id %q", ErrRuleValidation, r.ID)
		}
		seen[r.ID] = true

		for _, p := range r.Conditions.Priorities {
			if !p.Valid() {
				return fmt.Errorf("%w: rule %q: unknown priority %q", ErrRuleValidation, r.ID, p)
			}
		}
		for _, c := range r.Conditions.Categories {
			if !c.Valid() {
				return fmt.Errorf("%w: rule %q: unknown category %q", ErrRuleValidation, r.ID, c)
			}
		}
		if r.Conditions.MinValue != nil && r.Conditions.MaxValue != nil &&
			*r.Conditions.MinValue > *r.Conditions.MaxValue {
			return fmt.Errorf("%w: rule %q: minValue exceeds maxValue", ErrRuleValidation, r.ID)
		}

		prev := -1
		for i, step := range r.EscalationSteps {
			if step.DelayMinutes <= prev {
				return fmt.Errorf("%w: rule %q: step %d delay (%dm) must exceed the previous step's",
					ErrRuleValidation, r.ID, i, step.DelayMinutes)
			}
			prev = step.DelayMinutes
			if step.Conditions != nil && step.Conditions.StillUnread && step.Conditions.FireAlways {
				return fmt.Errorf("%w: rule %q: step %d sets both stillUnread and fireAlways",
					ErrRuleValidation, r.ID, i)
			}
		}
	}
	return nil
}

// DefaultRules is the built-in rule set used when no rules file is
// configured: unclaimed high-value quotes page the sales manager, and
// repeated integration failures wake the on-call admin.
func DefaultRules() []types.EscalationRule {
	minQuoteValue := 50000.0
	return []types.EscalationRule{
		{
			ID:      "high-value-quote-unclaimed",
			Name:    "High-value quote unclaimed",
			Enabled: true,
			Conditions: types.RuleConditions{
				MinValue:   &minQuoteValue,
				Categories: []types.Category{types.CategoryCommercialQuote},
				Priorities: []types.Priority{types.PriorityHigh, types.PriorityUrgent},
			},
			EscalationSteps: []types.EscalationStep{
				{
					DelayMinutes:        30,
					Recipients:          []string{"sales-manager"},
					NotificationMethods: []string{"email", "push"},
					Template:            "quote-unclaimed-reminder",
					Conditions:          &types.StepConditions{StillUnread: true},
				},
				{
					DelayMinutes:        120,
					Recipients:          []string{"sales-manager", "regional-director"},
					NotificationMethods: []string{"email", "sms"},
					Template:            "quote-unclaimed-escalation",
					Conditions:          &types.StepConditions{StillUnread: true},
				},
			},
		},
		{
			ID:      "integration-failure",
			Name:    "Integration failure",
			Enabled: true,
			Conditions: types.RuleConditions{
				Categories: []types.Category{types.CategoryIntegration},
				Priorities: []types.Priority{types.PriorityUrgent},
			},
			EscalationSteps: []types.EscalationStep{
				{
					DelayMinutes:        60,
					Recipients:          []string{"portal-admin"},
					NotificationMethods: []string{"email"},
					Template:            "integration-failure-followup",
					Conditions:          &types.StepConditions{FireAlways: true},
				},
			},
		},
	}
}
