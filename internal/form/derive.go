package form

import (
	"math/rand/v2"
	"strings"

	"github.com/montage-ui/guideflow/pkg/api"
)

type (
	// Strategy computes a derived value from the current values of a
	// target's source fields
	Strategy func(sources map[api.FieldID]any) any

	// Deriver is the registry of derivation strategies
	Deriver struct {
		strategies map[api.StrategyName]Strategy
	}
)

const (
	usernameFallbackPrefix = "client_"
	usernameFallbackLen    = 6
	base36Alphabet         = "abcdefghijklmnopqrstuvwxyz0123456789"

	passwordLen     = 12
	passwordUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordLower   = "abcdefghijklmnopqrstuvwxyz"
	passwordDigits  = "0123456789"
	passwordSymbols = "!@#$%"
)

// NewDeriver creates a registry with the built-in strategies installed
func NewDeriver() *Deriver {
	d := &Deriver{
		strategies: map[api.StrategyName]Strategy{},
	}
	d.Register(api.StrategyUsernameFromEmail, usernameStrategy)
	d.Register(api.StrategyStrongPassword, passwordStrategy)
	return d
}

// Register installs a strategy under the given name, replacing any prior
// strategy with that name
func (d *Deriver) Register(name api.StrategyName, s Strategy) {
	d.strategies[name] = s
}

// Strategy returns the registered strategy for the given name
func (d *Deriver) Strategy(name api.StrategyName) (Strategy, bool) {
	s, ok := d.strategies[name]
	return s, ok
}

// usernameStrategy derives a username from the first source value
func usernameStrategy(sources map[api.FieldID]any) any {
	for _, v := range sources {
		if email, ok := v.(string); ok {
			return UsernameFromEmail(email)
		}
	}
	return UsernameFromEmail("")
}

func passwordStrategy(map[api.FieldID]any) any {
	return StrongPassword()
}

// UsernameFromEmail lowercases the local part of the email and strips all
// characters outside [a-z0-9]. If the result is empty or the email is
// malformed it falls back to "client_" plus six random base-36 characters.
func UsernameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return fallbackUsername()
	}

	var sb strings.Builder
	for _, r := range strings.ToLower(local) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return fallbackUsername()
	}
	return sb.String()
}

func fallbackUsername() string {
	suffix := make([]byte, usernameFallbackLen)
	for i := range suffix {
		suffix[i] = base36Alphabet[rand.IntN(len(base36Alphabet))]
	}
	return usernameFallbackPrefix + string(suffix)
}

// StrongPassword produces a twelve character string guaranteed to contain
// at least one uppercase letter, one lowercase letter, one digit, and one
// symbol, with the remaining characters drawn uniformly from the combined
// alphabet and the whole string shuffled
func StrongPassword() string {
	combined := passwordUpper + passwordLower + passwordDigits +
		passwordSymbols

	chars := make([]byte, 0, passwordLen)
	chars = append(chars,
		passwordUpper[rand.IntN(len(passwordUpper))],
		passwordLower[rand.IntN(len(passwordLower))],
		passwordDigits[rand.IntN(len(passwordDigits))],
		passwordSymbols[rand.IntN(len(passwordSymbols))])

	for len(chars) < passwordLen {
		chars = append(chars, combined[rand.IntN(len(combined))])
	}

	rand.Shuffle(len(chars), func(i, j int) {
		chars[i], chars[j] = chars[j], chars[i]
	})
	return string(chars)
}
