package api

import "time"

type (
	// EventType identifies a flow lifecycle event
	EventType string

	// FlowEvent is the envelope delivered to lifecycle subscribers
	FlowEvent struct {
		Type      EventType `json:"type"`
		FlowID    FlowID    `json:"flow_id"`
		StepID    StepID    `json:"step_id,omitempty"`
		Payload   any       `json:"payload,omitempty"`
		Timestamp time.Time `json:"timestamp"`
	}

	// FlowStartedEvent is emitted when a flow execution begins
	FlowStartedEvent struct {
		FlowID FlowID `json:"flow_id"`
		ExecID string `json:"exec_id,omitempty"`
	}

	// FlowCompletedEvent is emitted when a flow reaches the completion
	// sentinel, carrying the aggregated step data
	FlowCompletedEvent struct {
		FlowID   FlowID             `json:"flow_id"`
		StepData map[StepID]Payload `json:"step_data"`
	}

	// FlowCancelledEvent is emitted when an active flow is discarded by a
	// reset or by starting another flow
	FlowCancelledEvent struct {
		FlowID FlowID `json:"flow_id"`
		StepID StepID `json:"step_id,omitempty"`
	}

	// StepStartedEvent is emitted when a step becomes current
	StepStartedEvent struct {
		FlowID FlowID `json:"flow_id"`
		StepID StepID `json:"step_id"`
	}

	// StepCompletedEvent is emitted when a step is left behind, strictly
	// before the next step's StepStartedEvent
	StepCompletedEvent struct {
		FlowID FlowID  `json:"flow_id"`
		StepID StepID  `json:"step_id"`
		Data   Payload `json:"data,omitempty"`
	}

	// ValidationFailedEvent carries the full list of violated fields for a
	// rejected completion attempt. The step remains current.
	ValidationFailedEvent struct {
		FlowID     FlowID       `json:"flow_id"`
		StepID     StepID       `json:"step_id"`
		Violations []*Violation `json:"violations"`
	}

	// ActionTriggeredEvent is emitted for every handled action, whether or
	// not a transition was found for it
	ActionTriggeredEvent struct {
		FlowID   FlowID   `json:"flow_id"`
		StepID   StepID   `json:"step_id,omitempty"`
		ActionID ActionID `json:"action_id"`
	}
)

const (
	EventTypeFlowStarted      EventType = "flow:started"
	EventTypeFlowCompleted    EventType = "flow:completed"
	EventTypeFlowCancelled    EventType = "flow:cancelled"
	EventTypeStepStarted      EventType = "step:started"
	EventTypeStepCompleted    EventType = "step:completed"
	EventTypeValidationFailed EventType = "validation:failed"
	EventTypeActionTriggered  EventType = "action:triggered"
)

// EventTypes lists every lifecycle event type in a stable order
var EventTypes = []EventType{
	EventTypeFlowStarted,
	EventTypeFlowCompleted,
	EventTypeFlowCancelled,
	EventTypeStepStarted,
	EventTypeStepCompleted,
	EventTypeValidationFailed,
	EventTypeActionTriggered,
}
