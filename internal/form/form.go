package form

import (
	"log/slog"

	"github.com/montage-ui/guideflow/pkg/api"
	"github.com/montage-ui/guideflow/pkg/log"
	"github.com/montage-ui/guideflow/pkg/util"
)

type (
	// Form is one live instance of a form step. It owns the field values,
	// per-field dirty flags, the revealed-section set, and the derivation
	// targets declared by the step's component configuration.
	Form struct {
		sections []*api.Section
		fields   map[api.FieldID]*fieldState
		order    []api.FieldID
		derives  []*api.DeriveTarget
		revealed util.Set[api.SectionID]
		deriver  *Deriver
	}

	fieldState struct {
		field *api.Field
		value any
		dirty bool
	}
)

// New creates a form instance from a component configuration. Sections
// without a reveal rule are revealed immediately and receive their initial
// derivation pass.
func New(cfg *api.FormConfig, deriver *Deriver) *Form {
	f := &Form{
		sections: cfg.Sections,
		fields:   map[api.FieldID]*fieldState{},
		derives:  cfg.Derive,
		revealed: util.Set[api.SectionID]{},
		deriver:  deriver,
	}
	for _, section := range cfg.Sections {
		for _, field := range section.Fields {
			f.fields[field.ID] = &fieldState{
				field: field,
				value: field.Value,
			}
			f.order = append(f.order, field.ID)
		}
	}
	f.refreshReveal()
	return f
}

// SetValue records a hand-written edit: the field is marked dirty, any
// derivation targets sourced from it are re-checked, and hidden sections
// are re-evaluated for reveal
func (f *Form) SetValue(id api.FieldID, value any) {
	fs, ok := f.fields[id]
	if !ok {
		slog.Warn("Edit for unknown field",
			log.FieldID(id))
		return
	}
	fs.value = value
	fs.dirty = true

	f.deriveFrom(id)
	f.refreshReveal()
}

// Value returns the current value of a field
func (f *Form) Value(id api.FieldID) any {
	if fs, ok := f.fields[id]; ok {
		return fs.value
	}
	return nil
}

// Dirty reports whether the field has been hand-edited
func (f *Form) Dirty(id api.FieldID) bool {
	fs, ok := f.fields[id]
	return ok && fs.dirty
}

// Revealed reports whether the section is currently visible
func (f *Form) Revealed(id api.SectionID) bool {
	return f.revealed.Contains(id)
}

// Values returns a payload of every field's current value, keyed by field
// id
func (f *Form) Values() api.Payload {
	res := make(api.Payload, len(f.fields))
	for id, fs := range f.fields {
		res[string(id)] = fs.value
	}
	return res
}

// Validate checks every field in every revealed section, in declaration
// order, and returns at most one violation per field
func (f *Form) Validate() []*api.Violation {
	var res []*api.Violation
	for _, section := range f.sections {
		if !f.revealed.Contains(section.ID) {
			continue
		}
		for _, field := range section.Fields {
			fs := f.fields[field.ID]
			if v := Validate(field, fs.value, field.Rules); v != nil {
				res = append(res, v)
			}
		}
	}
	return res
}

// Submit validates the revealed sections and, when clean, returns the
// collected payload. On violations the payload is nil and the form remains
// editable.
func (f *Form) Submit() (api.Payload, []*api.Violation) {
	if violations := f.Validate(); len(violations) > 0 {
		return nil, violations
	}
	return f.Values(), nil
}

// fieldPasses reports whether a field currently passes its own rules
func (f *Form) fieldPasses(id api.FieldID) bool {
	fs, ok := f.fields[id]
	if !ok {
		return false
	}
	return Validate(fs.field, fs.value, fs.field.Rules) == nil
}

// sourceReady reports whether a derivation source holds a value that
// itself passes validation
func (f *Form) sourceReady(id api.FieldID) bool {
	fs, ok := f.fields[id]
	if !ok || isEmpty(fs.value) {
		return false
	}
	return Validate(fs.field, fs.value, fs.field.Rules) == nil
}

// eligible reports whether a derivation target may be filled: every source
// ready, and the target itself empty and never hand-edited
func (f *Form) eligible(target *api.DeriveTarget) bool {
	fs, ok := f.fields[target.Target]
	if !ok || fs.dirty || !isEmpty(fs.value) {
		return false
	}
	for _, src := range target.Sources {
		if !f.sourceReady(src) {
			return false
		}
	}
	return true
}

// deriveFrom re-checks every target sourced from the changed field. A
// filled target counts as a further change, so downstream targets are
// processed in the same pass; the seen set bounds the pass when targets
// form a cycle.
func (f *Form) deriveFrom(changed api.FieldID) {
	queue := []api.FieldID{changed}
	seen := util.Set[api.FieldID]{}

	for len(queue) > 0 {
		src := queue[0]
		queue = queue[1:]

		for _, target := range f.derives {
			if !hasSource(target, src) || seen.Contains(target.Target) {
				continue
			}
			if f.apply(target) {
				seen.Add(target.Target)
				queue = append(queue, target.Target)
			}
		}
	}
}

// deriveSection runs one batched derivation pass over the targets whose
// target field lies in the newly revealed section
func (f *Form) deriveSection(section *api.Section) {
	members := util.Set[api.FieldID]{}
	for _, field := range section.Fields {
		members.Add(field.ID)
	}
	for _, target := range f.derives {
		if members.Contains(target.Target) {
			f.apply(target)
		}
	}
}

// apply fills an eligible target from its registered strategy. Derived
// writes never set the dirty flag, so a later hand edit still wins.
func (f *Form) apply(target *api.DeriveTarget) bool {
	if !f.eligible(target) {
		return false
	}

	strategy, ok := f.deriver.Strategy(target.Strategy)
	if !ok {
		slog.Warn("Unknown derivation strategy",
			log.FieldID(target.Target),
			slog.String("strategy", string(target.Strategy)))
		return false
	}

	sources := make(map[api.FieldID]any, len(target.Sources))
	for _, src := range target.Sources {
		sources[src] = f.Value(src)
	}

	f.fields[target.Target].value = strategy(sources)
	return true
}

func hasSource(target *api.DeriveTarget, id api.FieldID) bool {
	for _, src := range target.Sources {
		if src == id {
			return true
		}
	}
	return false
}
