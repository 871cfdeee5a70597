package flow

import (
	"log/slog"

	"github.com/montage-ui/guideflow/internal/flow/script"
	"github.com/montage-ui/guideflow/pkg/api"
	"github.com/montage-ui/guideflow/pkg/log"
	"github.com/montage-ui/guideflow/pkg/util"
)

// IsStepLocked reports whether a step is non-interactive. The default
// policy locks a step once it is completed and no longer current. A custom
// predicate, when declared, fully overrides the default; otherwise the
// whenCompleted and whenNotCurrent flags are OR'd on top of it.
func (o *Orchestrator) IsStepLocked(id api.StepID) bool {
	if o.flow == nil || o.ctx == nil {
		return false
	}
	step := o.flow.Step(id)
	if step == nil {
		return false
	}

	completed := o.ctx.Completed.Contains(id)
	current := id == o.ctx.Current
	locked := completed && !current

	cfg := step.Locks
	if cfg == nil {
		return locked
	}

	if cfg.Custom != nil {
		return o.evalCustomLock(id, cfg.Custom, locked)
	}

	if cfg.WhenCompleted && completed {
		locked = true
	}
	if cfg.WhenNotCurrent && !current {
		locked = true
	}
	return locked
}

// evalCustomLock runs a declared predicate against the flow context. The
// predicate sees the step id, the current step, the completed set, and the
// step's stored data. Script failures fall back to the default policy.
func (o *Orchestrator) evalCustomLock(
	id api.StepID, cfg *api.ScriptConfig, fallback bool,
) bool {
	completed := make([]any, 0, o.ctx.Completed.Len())
	for _, stepID := range util.Sorted(o.ctx.Completed) {
		completed = append(completed, string(stepID))
	}

	inputs := script.Inputs{
		"step":      string(id),
		"current":   string(o.ctx.Current),
		"completed": completed,
		"data":      map[string]any(o.ctx.StepData[id]),
	}

	locked, err := o.scripts.EvaluatePredicate(cfg, inputs)
	if err != nil {
		slog.Warn("Custom lock predicate failed",
			log.StepID(id),
			log.Error(err))
		return fallback
	}
	return locked
}
