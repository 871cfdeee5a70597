package flow

import (
	"fmt"
	"time"

	"github.com/montage-ui/guideflow/pkg/api"
)

// FlowState returns a snapshot of the active flow context suitable for
// persistence, or nil when idle. The snapshot round-trips losslessly
// through RestoreFlowState.
func (o *Orchestrator) FlowState() *api.FlowContext {
	if o.ctx == nil {
		return nil
	}
	return o.ctx.Clone()
}

// RestoreFlowState reinstates a previously captured context. The flow must
// be registered and the snapshot's current step must belong to it. Any
// active flow is cancelled first.
func (o *Orchestrator) RestoreFlowState(state *api.FlowContext) error {
	if state == nil {
		return ErrNoActiveFlow
	}
	def, ok := o.registry.Get(state.FlowID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrFlowNotFound, state.FlowID)
	}
	if state.Current != "" && def.Step(state.Current) == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, state.Current)
	}

	o.cancelActive()
	o.generation.Add(1)

	o.flow = def
	o.ctx = state.Clone()
	if o.ctx.Completed == nil {
		o.ctx.Completed = api.StepSet{}
	}
	if o.ctx.StepData == nil {
		o.ctx.StepData = map[api.StepID]api.Payload{}
	}
	return nil
}

// Generation returns the current context generation. The counter advances
// whenever the context is created, torn down, or replaced.
func (o *Orchestrator) Generation() int64 {
	return o.generation.Load()
}

// After schedules fn to run once the delay elapses, discarding it as a
// no-op if the context generation has moved on by then. This is the only
// cancellation primitive: it cancels the effect of a stale continuation,
// not any in-flight external operation.
func (o *Orchestrator) After(d time.Duration, fn func()) {
	gen := o.generation.Load()
	time.AfterFunc(d, func() {
		if o.generation.Load() != gen {
			return
		}
		fn()
	})
}
