package auth

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLen = 8
	MaxPasswordLen = 128

	// Minimum strength score (out of 5) a password must reach even when
	// every individual rule passes
	MinStrengthScore = 3
)

// specialChars is the accepted special-character set. Class checks are
// ASCII-only; anything outside these sets counts toward no class.
const specialChars = "@$!%*?&#^()_+=-{}[]:;\"'<>,.?/\\|`~"

// ValidationError is a user-correctable policy violation. The message names
// the exact rule that failed so registration forms can surface it directly.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Evaluation is the result of a policy check. Score is always populated,
// including for rejected passwords, so strength meters can render it.
type Evaluation struct {
	Score          int  // 0..5
	HistoryChecked bool // true only when a history source actually ran
}

// Percent normalizes the score to [0,100] for UI strength meters.
func (e Evaluation) Percent() float64 {
	return float64(e.Score) / 5 * 100
}

// HistoryChecker reports whether a candidate password was recently used by
// the given user. Implementations compare against stored hashes.
type HistoryChecker interface {
	WasUsed(ctx context.Context, userID, password string) (bool, error)
}

// Policy evaluates candidate passwords. It holds no mutable state and is
// safe for concurrent use.
type Policy struct {
	history        HistoryChecker
	requireHistory bool
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithHistoryChecker wires a password-history source into the policy.
func WithHistoryChecker(hc HistoryChecker) PolicyOption {
	return func(p *Policy) { p.history = hc }
}

// RequireHistory makes Evaluate fail when a user id is supplied but no
// history source is configured, instead of silently skipping the check.
func RequireHistory() PolicyOption {
	return func(p *Policy) { p.requireHistory = true }
}

// NewPolicy creates a password policy. With no options the history check is
// disabled and Evaluate reports HistoryChecked=false.
func NewPolicy(opts ...PolicyOption) *Policy {
	p := &Policy{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HistoryEnforced reports whether a history source is configured.
func (p *Policy) HistoryEnforced() bool { return p.history != nil }

// Evaluate applies the policy rules in order and returns the first
// violation as a *ValidationError. Rule order is contractual: length bounds,
// then uppercase, lowercase, number, special character, then the
// common-password set, then the strength threshold, then history.
func (p *Policy) Evaluate(ctx context.Context, password, userID string) (Evaluation, error) {
	eval := Evaluation{Score: StrengthScore(password)}

	length := utf8.RuneCountInString(password)
	if length < MinPasswordLen {
		return eval, &ValidationError{Message: fmt.Sprintf("password must be at least %d characters long", MinPasswordLen)}
	}
	if length > MaxPasswordLen {
		return eval, &ValidationError{Message: fmt.Sprintf("password must not exceed %d characters", MaxPasswordLen)}
	}

	classes := classify(password)
	if !classes.upper {
		return eval, &ValidationError{Message: "password must contain at least one uppercase letter"}
	}
	if !classes.lower {
		return eval, &ValidationError{Message: "password must contain at least one lowercase letter"}
	}
	if !classes.digit {
		return eval, &ValidationError{Message: "password must contain at least one number"}
	}
	if !classes.special {
		return eval, &ValidationError{Message: "password must contain at least one special character"}
	}

	if isCommonPassword(password) {
		return eval, &ValidationError{Message: "password is too common, please choose a stronger password"}
	}

	if eval.Score < MinStrengthScore {
		return eval, &ValidationError{Message: "password is too weak, please choose a stronger password"}
	}

	if userID != "" {
		if p.history == nil {
			if p.requireHistory {
				return eval, fmt.Errorf("password history enforcement enabled but no history source is configured")
			}
			return eval, nil
		}
		used, err := p.history.WasUsed(ctx, userID, password)
		if err != nil {
			return eval, fmt.Errorf("password history check failed: %w", err)
		}
		eval.HistoryChecked = true
		if used {
			return eval, &ValidationError{Message: "password was used recently, please choose one you have not used before"}
		}
	}

	return eval, nil
}

// StrengthScore reports the score Evaluate would assign, without applying
// any of the accept/reject rules.
func (p *Policy) StrengthScore(password string) int {
	return StrengthScore(password)
}

// StrengthScore computes the deterministic 0-5 strength score:
// +1 per length threshold (8, 12, 16), +1 for three character classes,
// +1 for all four, and a single -1 penalty when any weak pattern appears.
func StrengthScore(password string) int {
	score := 0

	length := utf8.RuneCountInString(password)
	if length >= 8 {
		score++
	}
	if length >= 12 {
		score++
	}
	if length >= 16 {
		score++
	}

	classes := classify(password)
	variety := 0
	for _, present := range []bool{classes.upper, classes.lower, classes.digit, classes.special} {
		if present {
			variety++
		}
	}
	if variety >= 3 {
		score++
	}
	if variety == 4 {
		score++
	}

	if hasWeakPattern(password) {
		score--
	}

	if score < 0 {
		return 0
	}
	if score > 5 {
		return 5
	}
	return score
}

type charClasses struct {
	upper, lower, digit, special bool
}

func classify(password string) charClasses {
	var c charClasses
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			c.upper = true
		case r >= 'a' && r <= 'z':
			c.lower = true
		case r >= '0' && r <= '9':
			c.digit = true
		case strings.ContainsRune(specialChars, r):
			c.special = true
		}
	}
	return c
}

func isCommonPassword(password string) bool {
	return commonPasswords[strings.ToLower(strings.TrimSpace(password))]
}

// hasWeakPattern reports whether the password contains a repeated-character
// run, an ascending digit or letter run, or a keyboard-adjacency substring.
// Callers apply at most one penalty regardless of how many patterns match.
func hasWeakPattern(password string) bool {
	runes := []rune(password)

	for i := 0; i+2 < len(runes); i++ {
		a, b, c := runes[i], runes[i+1], runes[i+2]

		// Repeated characters (aaa, 111)
		if a == b && b == c {
			return true
		}

		// Ascending digit run (123, 789); the 890 wrap counts as well
		if a >= '0' && a <= '9' && b == a+1 && c == a+2 {
			return true
		}
		if a == '8' && b == '9' && c == '0' {
			return true
		}

		// Ascending letter run, case-insensitive (abc, xyz)
		la, lb, lc := lowerRune(a), lowerRune(b), lowerRune(c)
		if la >= 'a' && la <= 'x' && lb == la+1 && lc == la+2 {
			return true
		}
	}

	lowered := strings.ToLower(password)
	for _, kb := range []string{"qwerty", "asdf", "zxcv"} {
		if strings.Contains(lowered, kb) {
			return true
		}
	}

	return false
}

func lowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
