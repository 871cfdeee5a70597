// Package helpers provides shared fixtures for engine tests: canned flow
// definitions, a subscribed event recorder, and orchestrator setup.
package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/montage-ui/guideflow/internal/flow"
	"github.com/montage-ui/guideflow/pkg/api"
)

// Recorder captures every lifecycle event emitted after it is attached
type Recorder struct {
	Events []*api.FlowEvent
}

// NewRecorder attaches a recorder to the orchestrator's bus
func NewRecorder(o *flow.Orchestrator) *Recorder {
	r := &Recorder{}
	o.Bus().OnAll(func(ev *api.FlowEvent) {
		r.Events = append(r.Events, ev)
	})
	return r
}

// Types returns the captured event types in emission order
func (r *Recorder) Types() []api.EventType {
	res := make([]api.EventType, len(r.Events))
	for i, ev := range r.Events {
		res[i] = ev.Type
	}
	return res
}

// Last returns the most recent event of the given type, or nil
func (r *Recorder) Last(t api.EventType) *api.FlowEvent {
	for i := len(r.Events) - 1; i >= 0; i-- {
		if r.Events[i].Type == t {
			return r.Events[i]
		}
	}
	return nil
}

// Reset discards the captured events
func (r *Recorder) Reset() {
	r.Events = nil
}

// LinearFlow builds a flow whose steps chain through onComplete, with the
// final step resolving to the completion sentinel
func LinearFlow(id api.FlowID, steps ...api.StepID) *api.FlowDefinition {
	def := &api.FlowDefinition{
		ID:   id,
		Name: string(id),
	}
	for i, stepID := range steps {
		target := api.StepComplete
		if i < len(steps)-1 {
			target = steps[i+1]
		}
		def.Steps = append(def.Steps, &api.StepDefinition{
			ID:   stepID,
			Type: api.StepTypeInfo,
			Transitions: api.Transitions{
				api.ActionComplete: {Target: target},
			},
		})
	}
	return def
}

// BulkUploadFlow mirrors the demo upload flow's navigation skeleton
func BulkUploadFlow() *api.FlowDefinition {
	return &api.FlowDefinition{
		ID:   "bulk-upload",
		Name: "Bulk Upload",
		Steps: []*api.StepDefinition{
			{
				ID:   "overview",
				Type: api.StepTypeInfo,
				Transitions: api.Transitions{
					"start-bulk-upload": {Target: "prepare"},
					api.ActionComplete:  {Target: "prepare"},
				},
			},
			{
				ID:   "prepare",
				Type: api.StepTypeChoice,
				Transitions: api.Transitions{
					"download-template": {Target: "download-confirm"},
					api.ActionComplete:  {Target: "download-confirm"},
				},
			},
			{
				ID:   "download-confirm",
				Type: api.StepTypeConfirmation,
				Transitions: api.Transitions{
					api.ActionComplete: {Target: "upload"},
				},
			},
			{
				ID:   "upload",
				Type: api.StepTypeForm,
				Validation: api.ValidationRules{
					"file_name": {{Kind: api.RuleRequired}},
				},
				Transitions: api.Transitions{
					api.ActionComplete: {Target: "results"},
				},
			},
			{
				ID:   "results",
				Type: api.StepTypeTable,
				Transitions: api.Transitions{
					api.ActionComplete: {Target: api.StepComplete},
				},
			},
		},
	}
}

// NewOrchestrator creates an orchestrator with the given flows registered
func NewOrchestrator(
	t *testing.T, defs ...*api.FlowDefinition,
) *flow.Orchestrator {
	t.Helper()
	o := flow.New()
	for _, def := range defs {
		require.NoError(t, o.RegisterFlow(def))
	}
	return o
}
