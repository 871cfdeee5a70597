package api

type (
	// FlowID identifies a registered flow definition
	FlowID string

	// StepID identifies a step within a flow definition
	StepID string

	// ActionID identifies a transition trigger raised by the presentation
	// layer
	ActionID string

	// FieldID identifies a form field
	FieldID string

	// SectionID identifies a form section
	SectionID string
)

// StepComplete is the sentinel transition target marking flow completion
const StepComplete StepID = "complete"

// Reserved transition keys. All other keys are free-form action identifiers
// chosen by the presentation layer.
const (
	ActionComplete ActionID = "onComplete"
	ActionDefault  ActionID = "default"
	ActionCancel   ActionID = "onCancel"
)
