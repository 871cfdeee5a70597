package api

type (
	// ErrorResponse is the standard error payload for HTTP handlers
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}

	// FlowStateResponse describes the orchestrator's current position
	FlowStateResponse struct {
		Flow    *FlowDefinition `json:"flow,omitempty"`
		Step    *StepDefinition `json:"step,omitempty"`
		Context *FlowContext    `json:"context,omitempty"`
	}

	// CompleteRequest carries the payload for a step completion
	CompleteRequest struct {
		Data Payload `json:"data,omitempty"`
	}

	// CompleteResponse reports the outcome of a completion attempt.
	// Violations are present when validation rejected the submission and
	// the step remained current.
	CompleteResponse struct {
		Advanced   bool               `json:"advanced"`
		Violations []*Violation       `json:"violations,omitempty"`
		State      *FlowStateResponse `json:"state"`
	}

	// ActionRequest triggers an action against the current or named step
	ActionRequest struct {
		ActionID ActionID `json:"action_id"`
		StepID   StepID   `json:"step_id,omitempty"`
	}

	// RespondRequest carries free-text chat input for the responder
	RespondRequest struct {
		Text string `json:"text"`
	}

	// RespondResponse carries the responder's suggestions
	RespondResponse struct {
		Suggestions []*SuggestedAction `json:"suggestions"`
	}
)
