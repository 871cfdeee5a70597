package script_test

import (
	"testing"

	testify "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/montage-ui/guideflow/internal/flow/script"
	"github.com/montage-ui/guideflow/pkg/api"
)

func TestLuaPredicate(t *testing.T) {
	as := testify.New(t)
	env := script.NewLuaEnv()

	locked, err := env.EvaluatePredicate(
		`return step == current`,
		script.Inputs{"step": "a", "current": "a"},
	)
	require.NoError(t, err)
	as.True(locked)

	locked, err = env.EvaluatePredicate(
		`return step == current`,
		script.Inputs{"step": "a", "current": "b"},
	)
	require.NoError(t, err)
	as.False(locked)
}

func TestLuaPredicateTableInputs(t *testing.T) {
	as := testify.New(t)
	env := script.NewLuaEnv()

	locked, err := env.EvaluatePredicate(`
		if data == nil then return false end
		for _, id in ipairs(completed) do
			if id == data.gate then return true end
		end
		return false
	`, script.Inputs{
		"completed": []any{"intro", "upload"},
		"data":      map[string]any{"gate": "upload"},
	})
	require.NoError(t, err)
	as.True(locked)
}

func TestLuaPredicateNonBooleanResult(t *testing.T) {
	as := testify.New(t)
	env := script.NewLuaEnv()

	// any truthy value counts as locked
	locked, err := env.EvaluatePredicate(
		`return "yes"`, script.Inputs{},
	)
	require.NoError(t, err)
	as.True(locked)

	locked, err = env.EvaluatePredicate(
		`return nil`, script.Inputs{},
	)
	require.NoError(t, err)
	as.False(locked)
}

func TestLuaCompileError(t *testing.T) {
	as := testify.New(t)
	env := script.NewLuaEnv()

	_, err := env.EvaluatePredicate(
		`this is not lua`, script.Inputs{"step": "a"},
	)
	as.ErrorIs(err, script.ErrLuaLoad)
}

func TestLuaRuntimeError(t *testing.T) {
	as := testify.New(t)
	env := script.NewLuaEnv()

	_, err := env.EvaluatePredicate(
		`error("boom")`, script.Inputs{"step": "a"},
	)
	as.ErrorIs(err, script.ErrLuaExecution)
}

func TestLuaSandbox(t *testing.T) {
	as := testify.New(t)
	env := script.NewLuaEnv()

	for _, src := range []string{
		`return os.getenv("HOME") ~= nil`,
		`return io.open("/etc/passwd") ~= nil`,
	} {
		_, err := env.EvaluatePredicate(src, script.Inputs{})
		as.ErrorIs(err, script.ErrLuaExecution)
	}
}

func TestLuaRegistryDispatch(t *testing.T) {
	as := testify.New(t)
	r := script.NewRegistry()

	locked, err := r.EvaluatePredicate(&api.ScriptConfig{
		Language: api.ScriptLangLua,
		Script:   `return true`,
	}, script.Inputs{})
	require.NoError(t, err)
	as.True(locked)

	_, err = r.EvaluatePredicate(&api.ScriptConfig{
		Language: "brainmelt",
		Script:   `whatever`,
	}, script.Inputs{})
	as.ErrorIs(err, script.ErrUnsupportedLanguage)
}
