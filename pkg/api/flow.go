package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

type (
	// StepType categorizes how the presentation layer treats a step
	StepType string

	// Payload carries arbitrary step data submitted by the presentation
	// layer
	Payload map[string]any

	// Metadata carries free-form annotations on a flow execution
	Metadata map[string]any

	// FlowDefinition describes one guided multi-part interaction. It is
	// immutable once registered.
	FlowDefinition struct {
		ID          FlowID            `json:"id"`
		Name        string            `json:"name"`
		Description string            `json:"description,omitempty"`
		Category    string            `json:"category,omitempty"`
		Steps       []*StepDefinition `json:"steps"`
	}

	// StepDefinition is a unit of a flow carrying a component
	// configuration, transitions, and optional validation and lock rules
	StepDefinition struct {
		ID               StepID             `json:"id"`
		Type             StepType           `json:"type"`
		Title            string             `json:"title,omitempty"`
		Component        *ComponentConfig   `json:"component,omitempty"`
		Transitions      Transitions        `json:"transitions,omitempty"`
		Validation       ValidationRules    `json:"validation,omitempty"`
		Locks            *LockConfig        `json:"locks,omitempty"`
		SuggestedActions []*SuggestedAction `json:"suggested_actions,omitempty"`
	}

	// ComponentConfig names the widget kind a step renders with and the
	// props handed to it. The core never interprets props.
	ComponentConfig struct {
		Kind  string  `json:"kind"`
		Props Payload `json:"props,omitempty"`
	}

	// Transitions map a trigger key to a transition target
	Transitions map[ActionID]*Transition

	// Transition is either a plain target step id (or the completion
	// sentinel), or a list of conditional entries. Conditional entries are
	// recognized by the type model but not evaluated.
	Transition struct {
		Target     StepID
		Conditions []*ConditionalTransition
	}

	// ConditionalTransition selects a target when every named field equals
	// its expected value. Declared but currently unevaluated.
	ConditionalTransition struct {
		When   map[FieldID]any `json:"when"`
		Target StepID          `json:"target"`
	}

	// LockConfig controls when a step is reported as locked. Custom, when
	// present, fully overrides the default policy.
	LockConfig struct {
		WhenCompleted  bool          `json:"when_completed,omitempty"`
		WhenNotCurrent bool          `json:"when_not_current,omitempty"`
		Custom         *ScriptConfig `json:"custom,omitempty"`
	}

	// ScriptConfig holds a custom predicate in a supported script language
	ScriptConfig struct {
		Language string `json:"language"`
		Script   string `json:"script"`
	}

	// SuggestedAction is an action the responder or a step offers to the
	// user. Locked is computed by the orchestrator, never authored.
	SuggestedAction struct {
		ID     ActionID `json:"id"`
		Label  string   `json:"label"`
		Flow   FlowID   `json:"flow,omitempty"`
		Locked bool     `json:"locked,omitempty"`
	}
)

const (
	StepTypeForm         StepType = "form"
	StepTypeChoice       StepType = "choice"
	StepTypeTable        StepType = "table"
	StepTypeAlert        StepType = "alert"
	StepTypeInfo         StepType = "info"
	StepTypeAutoAdvance  StepType = "auto-advance"
	StepTypeConfirmation StepType = "confirmation"

	ScriptLangLua = "lua"
)

var (
	ErrFlowIDEmpty       = errors.New("flow ID empty")
	ErrFlowNameEmpty     = errors.New("flow name empty")
	ErrStepIDEmpty       = errors.New("step ID empty")
	ErrDuplicateStepID   = errors.New("duplicate step ID")
	ErrUnknownTransition = errors.New("transition targets unknown step")
	ErrBadTransition     = errors.New("malformed transition entry")
)

// Validate checks a flow definition for structural defects: empty ids,
// duplicate steps, and transitions that target steps outside the flow
func (d *FlowDefinition) Validate() error {
	if d.ID == "" {
		return ErrFlowIDEmpty
	}
	if d.Name == "" {
		return fmt.Errorf("%w: %s", ErrFlowNameEmpty, d.ID)
	}

	ids := make(map[StepID]bool, len(d.Steps))
	for _, step := range d.Steps {
		if step.ID == "" {
			return fmt.Errorf("%w: flow %s", ErrStepIDEmpty, d.ID)
		}
		if ids[step.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateStepID, step.ID)
		}
		ids[step.ID] = true
	}

	for _, step := range d.Steps {
		for key, tr := range step.Transitions {
			for _, target := range tr.Targets() {
				if target == StepComplete || ids[target] {
					continue
				}
				return fmt.Errorf("%w: %s.%s -> %s",
					ErrUnknownTransition, step.ID, key, target)
			}
		}
	}
	return nil
}

// Step returns the step with the given id, or nil if the flow has no such
// step
func (d *FlowDefinition) Step(id StepID) *StepDefinition {
	for _, step := range d.Steps {
		if step.ID == id {
			return step
		}
	}
	return nil
}

// First returns the first step of the flow, or nil for an empty flow
func (d *FlowDefinition) First() *StepDefinition {
	if len(d.Steps) == 0 {
		return nil
	}
	return d.Steps[0]
}

// IsConditional returns true if the transition carries conditional entries
// rather than a plain target
func (t *Transition) IsConditional() bool {
	return len(t.Conditions) > 0
}

// Targets returns every step id the transition can name
func (t *Transition) Targets() []StepID {
	if !t.IsConditional() {
		return []StepID{t.Target}
	}
	res := make([]StepID, len(t.Conditions))
	for i, c := range t.Conditions {
		res[i] = c.Target
	}
	return res
}

// UnmarshalJSON accepts either a plain step id string or an array of
// conditional transition entries
func (t *Transition) UnmarshalJSON(data []byte) error {
	var target StepID
	if err := json.Unmarshal(data, &target); err == nil {
		t.Target = target
		return nil
	}

	var conds []*ConditionalTransition
	if err := json.Unmarshal(data, &conds); err == nil {
		t.Conditions = conds
		return nil
	}
	return fmt.Errorf("%w: %s", ErrBadTransition, string(data))
}

// MarshalJSON emits the same shape UnmarshalJSON accepts
func (t *Transition) MarshalJSON() ([]byte, error) {
	if t.IsConditional() {
		return json.Marshal(t.Conditions)
	}
	return json.Marshal(t.Target)
}
