package flow

import (
	"log/slog"

	"github.com/montage-ui/guideflow/pkg/api"
	"github.com/montage-ui/guideflow/pkg/log"
)

// resolveCompletion determines where a completed step leads: the reserved
// onComplete key first, then default. The second return reports whether
// any transition was found; when it is false the flow stays on the current
// step, which is a known design gap rather than an error.
func resolveCompletion(step *api.StepDefinition) (api.StepID, bool) {
	for _, key := range []api.ActionID{api.ActionComplete, api.ActionDefault} {
		if tr, ok := step.Transitions[key]; ok {
			if target, ok := resolveTransition(step.ID, key, tr); ok {
				return target, true
			}
		}
	}
	return "", false
}

// resolveAction looks up a free-form action key on the step
func resolveAction(
	step *api.StepDefinition, action api.ActionID,
) (api.StepID, bool) {
	tr, ok := step.Transitions[action]
	if !ok {
		return "", false
	}
	return resolveTransition(step.ID, action, tr)
}

// resolveTransition extracts the target of a plain transition entry.
// Conditional entries are recognized by the type model but intentionally
// left unevaluated; they log and resolve to nothing.
func resolveTransition(
	stepID api.StepID, key api.ActionID, tr *api.Transition,
) (api.StepID, bool) {
	if tr.IsConditional() {
		slog.Warn("Conditional transitions are not evaluated",
			log.StepID(stepID),
			log.Action(key))
		return "", false
	}
	if tr.Target == "" {
		return "", false
	}
	return tr.Target, true
}
