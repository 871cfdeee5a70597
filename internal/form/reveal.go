package form

import "github.com/montage-ui/guideflow/pkg/api"

// revealSatisfied evaluates a section's rule against the current field
// values. Monotonicity is enforced by the caller: once a section is
// revealed, the rule is never consulted again for that form instance.
func (f *Form) revealSatisfied(section *api.Section) bool {
	rule := section.Reveal
	if rule == nil {
		return true
	}

	switch rule.Kind {
	case api.RevealAfterValid:
		for _, id := range rule.Fields {
			if !f.fieldPasses(id) {
				return false
			}
		}
		return true

	case api.RevealWhen:
		for id, expected := range rule.Equals {
			if !equalValues(f.Value(id), expected) {
				return false
			}
		}
		return true

	case api.RevealAfterSubmit:
		// never auto-reveals through the generic mechanism
		return false

	default:
		return false
	}
}

// refreshReveal evaluates every still-hidden section and reveals those
// whose rules are now satisfied. Each newly revealed section gets one
// batched derivation pass over the targets it contains.
func (f *Form) refreshReveal() {
	for _, section := range f.sections {
		if f.revealed.Contains(section.ID) {
			continue
		}
		if !f.revealSatisfied(section) {
			continue
		}
		f.revealed.Add(section.ID)
		f.deriveSection(section)
	}
}

// equalValues compares a field value to an expected value from flow
// content. JSON decoding turns all numbers into float64, so numeric values
// are compared numerically.
func equalValues(actual, expected any) bool {
	if an, ok := numeric(actual); ok {
		if en, ok := numeric(expected); ok {
			return an == en
		}
		return false
	}
	return actual == expected
}

// numeric is like toNumber but never coerces strings, preserving strict
// equality between string and number values
func numeric(value any) (float64, bool) {
	if _, ok := value.(string); ok {
		return 0, false
	}
	return toNumber(value)
}
