package flow

import (
	"fmt"

	"github.com/montage-ui/guideflow/pkg/api"
)

// HandleAction resolves the action against the named step's transitions,
// or the current step's when stepID is empty. A plain target invokes
// TransitionToStep; conditional entries and unknown actions are no-ops.
// action:triggered is always emitted, whether or not a transition was
// found.
func (o *Orchestrator) HandleAction(
	action api.ActionID, stepID api.StepID,
) error {
	if o.flow == nil || o.ctx == nil {
		return ErrNoActiveFlow
	}

	if stepID == "" {
		stepID = o.ctx.Current
	}
	if stepID == "" {
		return ErrNoActiveStep
	}
	step := o.flow.Step(stepID)
	if step == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	o.emit(api.EventTypeActionTriggered, stepID, api.ActionTriggeredEvent{
		FlowID:   o.ctx.FlowID,
		StepID:   stepID,
		ActionID: action,
	})

	target, ok := resolveAction(step, action)
	if !ok {
		return nil
	}
	if target == api.StepComplete {
		o.completeFlow(o.ctx.Current, nil)
		return nil
	}
	return o.TransitionToStep(target)
}

// SuggestedActions returns the active step's declared suggested actions
// annotated with their computed lock state. An action whose transition
// resolves to a step is locked when that step is.
func (o *Orchestrator) SuggestedActions() []*api.SuggestedAction {
	step := o.CurrentStep()
	if step == nil {
		return nil
	}

	res := make([]*api.SuggestedAction, len(step.SuggestedActions))
	for i, action := range step.SuggestedActions {
		annotated := *action
		if target, ok := resolveAction(step, action.ID); ok &&
			target != api.StepComplete {
			annotated.Locked = o.IsStepLocked(target)
		}
		res[i] = &annotated
	}
	return res
}
