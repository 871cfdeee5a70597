package api

type (
	// RuleKind identifies a validation rule variant
	RuleKind string

	// RevealKind identifies a section reveal rule variant
	RevealKind string

	// StrategyName identifies a registered derivation strategy
	StrategyName string

	// FieldType categorizes a form field for the presentation layer
	FieldType string

	// Rule is a single validation rule. Rules are evaluated strictly in
	// declaration order and evaluation short-circuits on the first failure.
	Rule struct {
		Kind    RuleKind `json:"kind"`
		Pattern string   `json:"pattern,omitempty"`
		Limit   float64  `json:"limit,omitempty"`
		Message string   `json:"message,omitempty"`
	}

	// ValidationRules keys ordered rule lists by field id
	ValidationRules map[FieldID][]*Rule

	// Field is a single form input
	Field struct {
		ID       FieldID   `json:"id"`
		Type     FieldType `json:"type,omitempty"`
		Label    string    `json:"label,omitempty"`
		Value    any       `json:"value,omitempty"`
		Required bool      `json:"required,omitempty"`
		Rules    []*Rule   `json:"rules,omitempty"`
	}

	// Section is an ordered group of fields with at most one reveal rule.
	// Sections without a rule are revealed unconditionally at form
	// initialization.
	Section struct {
		ID     SectionID   `json:"id"`
		Title  string      `json:"title,omitempty"`
		Fields []*Field    `json:"fields"`
		Reveal *RevealRule `json:"reveal,omitempty"`
	}

	// RevealRule decides when a hidden section becomes visible. Revelation
	// is monotonic for the lifetime of a form instance.
	RevealRule struct {
		Kind   RevealKind      `json:"kind"`
		Fields []FieldID       `json:"fields,omitempty"`
		Equals map[FieldID]any `json:"equals,omitempty"`
	}

	// DeriveTarget declares that one field is computed from others once
	// those others are valid, with fill-if-empty semantics
	DeriveTarget struct {
		Target   FieldID      `json:"target"`
		Sources  []FieldID    `json:"sources"`
		Strategy StrategyName `json:"strategy"`
		Editable bool         `json:"editable,omitempty"`
	}

	// FormConfig is the component configuration for a form step
	FormConfig struct {
		Sections []*Section      `json:"sections"`
		Derive   []*DeriveTarget `json:"derive,omitempty"`
	}

	// Violation reports a single failed validation rule for a field
	Violation struct {
		Field   FieldID `json:"field"`
		Message string  `json:"message"`
	}
)

const (
	RuleRequired RuleKind = "required"
	RuleRegex    RuleKind = "regex"
	RuleMin      RuleKind = "min"
	RuleMax      RuleKind = "max"
)

const (
	// RevealAfterValid reveals once every named field passes validation
	RevealAfterValid RevealKind = "afterValid"

	// RevealWhen reveals once every named field strictly equals its
	// expected value
	RevealWhen RevealKind = "when"

	// RevealAfterSubmit never auto-reveals through the generic engine
	RevealAfterSubmit RevealKind = "afterSubmit"
)

const (
	StrategyUsernameFromEmail StrategyName = "usernameFromEmail"
	StrategyStrongPassword    StrategyName = "strongPassword"
)

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeNumber   FieldType = "number"
	FieldTypePassword FieldType = "password"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
)
