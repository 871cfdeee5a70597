// Package script evaluates custom lock predicates declared by flow
// content. Environments are keyed by language so further languages can be
// added without touching the orchestrator.
package script

import (
	"errors"
	"fmt"

	"github.com/montage-ui/guideflow/pkg/api"
)

type (
	// Registry manages predicate environments for supported languages
	Registry struct {
		envs map[string]Environment
	}

	// Environment evaluates predicates for a single script language
	Environment interface {
		// EvaluatePredicate runs the predicate source against the given
		// inputs and returns its boolean result
		EvaluatePredicate(script string, inputs Inputs) (bool, error)
	}

	// Inputs is the value environment a predicate sees
	Inputs map[string]any
)

var ErrUnsupportedLanguage = errors.New("unsupported script language")

// NewRegistry creates a registry with the Lua environment installed
func NewRegistry() *Registry {
	return &Registry{
		envs: map[string]Environment{
			api.ScriptLangLua: NewLuaEnv(),
		},
	}
}

// Register installs an environment for the given language
func (r *Registry) Register(language string, env Environment) {
	r.envs[language] = env
}

// EvaluatePredicate dispatches a script config to its language environment
func (r *Registry) EvaluatePredicate(
	cfg *api.ScriptConfig, inputs Inputs,
) (bool, error) {
	env, ok := r.envs[cfg.Language]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnsupportedLanguage,
			cfg.Language)
	}
	return env.EvaluatePredicate(cfg.Script, inputs)
}
