package api

import (
	"maps"
	"time"

	"github.com/montage-ui/guideflow/pkg/util"
)

type (
	// StepSet tracks which steps have been completed within one execution
	StepSet = util.Set[StepID]

	// FlowContext is the mutable record of one in-progress flow execution.
	// Exactly one exists at a time; it is owned exclusively by the
	// orchestrator.
	FlowContext struct {
		FlowID      FlowID             `json:"flow_id"`
		ExecID      string             `json:"exec_id,omitempty"`
		Current     StepID             `json:"current,omitempty"`
		Completed   StepSet            `json:"completed"`
		StepData    map[StepID]Payload `json:"step_data"`
		Metadata    Metadata           `json:"metadata,omitempty"`
		StartedAt   time.Time          `json:"started_at"`
		LastUpdated time.Time          `json:"last_updated"`
	}
)

// NewFlowContext creates a fresh context for the given flow
func NewFlowContext(flowID FlowID, execID string, now time.Time) *FlowContext {
	return &FlowContext{
		FlowID:      flowID,
		ExecID:      execID,
		Completed:   StepSet{},
		StepData:    map[StepID]Payload{},
		Metadata:    Metadata{},
		StartedAt:   now,
		LastUpdated: now,
	}
}

// SetCurrent returns a new context with the current step updated
func (c *FlowContext) SetCurrent(id StepID) *FlowContext {
	res := *c
	res.Current = id
	return &res
}

// SetCompleted returns a new context with the step added to the completed
// set
func (c *FlowContext) SetCompleted(id StepID) *FlowContext {
	res := *c
	res.Completed = c.Completed.Clone()
	res.Completed.Add(id)
	return &res
}

// SetStepData returns a new context with the payload stored for the step,
// overwriting any prior value for that key
func (c *FlowContext) SetStepData(id StepID, data Payload) *FlowContext {
	res := *c
	res.StepData = maps.Clone(c.StepData)
	res.StepData[id] = data
	return &res
}

// SetLastUpdated returns a new context with the last updated timestamp set
func (c *FlowContext) SetLastUpdated(t time.Time) *FlowContext {
	res := *c
	res.LastUpdated = t
	return &res
}

// Clone returns a deep enough copy for handing outside the orchestrator:
// the completed set and step data map are copied, payload values are shared
func (c *FlowContext) Clone() *FlowContext {
	res := *c
	res.Completed = c.Completed.Clone()
	res.StepData = maps.Clone(c.StepData)
	res.Metadata = maps.Clone(c.Metadata)
	return &res
}
