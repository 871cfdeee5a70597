// Package form implements the reactive form engine: rule validation,
// fill-if-empty derivation, and monotonic progressive reveal of sections.
package form

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"sync"

	"github.com/montage-ui/guideflow/pkg/api"
	"github.com/montage-ui/guideflow/pkg/log"
)

// regexCache holds compiled patterns keyed by source. Flow content declares
// a small fixed set of patterns, so the cache is never trimmed.
var regexCache sync.Map // map[string]*regexp.Regexp

// Validate evaluates the rules for a field strictly in declaration order
// and returns the first violation, or nil when every rule passes.
//
// A regex, min, or max rule is skipped when the value is absent; it never
// substitutes for a required rule. Consumers needing both presence and
// format checks declare both rules for the same field.
func Validate(field *api.Field, value any, rules []*api.Rule) *api.Violation {
	for _, rule := range rules {
		if msg := check(field, value, rule); msg != "" {
			return &api.Violation{Field: field.ID, Message: msg}
		}
	}
	return nil
}

func check(field *api.Field, value any, rule *api.Rule) string {
	switch rule.Kind {
	case api.RuleRequired:
		if field.Required && isEmpty(value) {
			return message(rule, fmt.Sprintf("%s is required", label(field)))
		}

	case api.RuleRegex:
		if isAbsent(value) {
			return ""
		}
		re, err := compilePattern(rule.Pattern)
		if err != nil {
			slog.Warn("Invalid validation pattern",
				log.FieldID(field.ID),
				log.Error(err))
			return ""
		}
		if !re.MatchString(fmt.Sprintf("%v", value)) {
			return message(rule,
				fmt.Sprintf("%s has an invalid format", label(field)))
		}

	case api.RuleMin:
		if isAbsent(value) {
			return ""
		}
		if n, ok := toNumber(value); ok && n < rule.Limit {
			return message(rule, fmt.Sprintf("%s must be at least %v",
				label(field), rule.Limit))
		}

	case api.RuleMax:
		if isAbsent(value) {
			return ""
		}
		if n, ok := toNumber(value); ok && n > rule.Limit {
			return message(rule, fmt.Sprintf("%s must be at most %v",
				label(field), rule.Limit))
		}

	default:
		slog.Warn("Unknown validation rule kind",
			log.FieldID(field.ID),
			slog.String("kind", string(rule.Kind)))
	}
	return ""
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if cached, ok := regexCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache.Store(pattern, re)
	return re, nil
}

func message(rule *api.Rule, fallback string) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fallback
}

func label(field *api.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return string(field.ID)
}

// isEmpty reports whether a value counts as missing for a required rule
func isEmpty(value any) bool {
	return value == nil || value == ""
}

// isAbsent reports whether a value is skipped by format and range rules
func isAbsent(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	default:
		if n, ok := toNumber(value); ok {
			return n == 0
		}
		return false
	}
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
