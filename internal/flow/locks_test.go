package flow_test

import (
	"testing"

	testify "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/montage-ui/guideflow/internal/assert/helpers"
	"github.com/montage-ui/guideflow/pkg/api"
)

func TestDefaultLockPolicy(t *testing.T) {
	as := testify.New(t)
	o := helpers.NewOrchestrator(t,
		helpers.LinearFlow("run", "a", "b", "c"),
	)
	require.NoError(t, o.StartFlow("run"))

	// nothing completed yet
	as.False(o.IsStepLocked("a"))
	as.False(o.IsStepLocked("b"))

	require.NoError(t, o.CompleteCurrentStep(nil))

	// a is completed and no longer current
	as.True(o.IsStepLocked("a"))
	as.False(o.IsStepLocked("b"))
	as.False(o.IsStepLocked("c"))
	as.False(o.IsStepLocked("unknown"))
}

func TestLockFlags(t *testing.T) {
	as := testify.New(t)
	def := helpers.LinearFlow("run", "a", "b", "c")
	def.Step("a").Locks = &api.LockConfig{WhenCompleted: true}
	def.Step("c").Locks = &api.LockConfig{WhenNotCurrent: true}
	o := helpers.NewOrchestrator(t, def)
	require.NoError(t, o.StartFlow("run"))

	// whenNotCurrent locks an untouched future step
	as.True(o.IsStepLocked("c"))
	as.False(o.IsStepLocked("a"))

	require.NoError(t, o.CompleteCurrentStep(nil))
	require.NoError(t, o.CompleteCurrentStep(nil))

	as.True(o.IsStepLocked("a"))
	as.False(o.IsStepLocked("c"))
}

func TestCustomLockPredicate(t *testing.T) {
	as := testify.New(t)
	def := helpers.LinearFlow("run", "a", "b")
	def.Step("a").Locks = &api.LockConfig{
		Custom: &api.ScriptConfig{
			Language: api.ScriptLangLua,
			Script: `
				for _, id in ipairs(completed) do
					if id == step then return true end
				end
				return false
			`,
		},
	}
	o := helpers.NewOrchestrator(t, def)
	require.NoError(t, o.StartFlow("run"))

	as.False(o.IsStepLocked("a"))
	require.NoError(t, o.CompleteCurrentStep(nil))
	as.True(o.IsStepLocked("a"))
}

func TestCustomLockPredicateOverridesFlags(t *testing.T) {
	as := testify.New(t)
	def := helpers.LinearFlow("run", "a", "b")
	def.Step("a").Locks = &api.LockConfig{
		WhenCompleted: true,
		Custom: &api.ScriptConfig{
			Language: api.ScriptLangLua,
			Script:   `return false`,
		},
	}
	o := helpers.NewOrchestrator(t, def)
	require.NoError(t, o.StartFlow("run"))
	require.NoError(t, o.CompleteCurrentStep(nil))

	// the predicate wins over both the default policy and the flags
	as.False(o.IsStepLocked("a"))
}

func TestCustomLockFallbackOnScriptError(t *testing.T) {
	as := testify.New(t)
	def := helpers.LinearFlow("run", "a", "b")
	def.Step("a").Locks = &api.LockConfig{
		Custom: &api.ScriptConfig{
			Language: api.ScriptLangLua,
			Script:   `this is not lua`,
		},
	}
	o := helpers.NewOrchestrator(t, def)
	require.NoError(t, o.StartFlow("run"))
	require.NoError(t, o.CompleteCurrentStep(nil))

	// default policy applies when the script cannot run
	as.True(o.IsStepLocked("a"))
}

func TestSuggestedActionLockAnnotation(t *testing.T) {
	as := testify.New(t)
	def := helpers.LinearFlow("run", "a", "b")
	def.Step("b").SuggestedActions = []*api.SuggestedAction{
		{ID: "back", Label: "Back"},
		{ID: api.ActionComplete, Label: "Finish"},
	}
	def.Step("b").Transitions["back"] = &api.Transition{Target: "a"}
	o := helpers.NewOrchestrator(t, def)
	require.NoError(t, o.StartFlow("run"))
	require.NoError(t, o.CompleteCurrentStep(nil))

	actions := o.SuggestedActions()
	require.Len(t, actions, 2)
	as.True(actions[0].Locked)
	as.False(actions[1].Locked)

	// the definition itself is never mutated
	as.False(def.Step("b").SuggestedActions[0].Locked)
}
