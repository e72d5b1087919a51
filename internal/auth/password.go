package auth

import "unicode"

// Rule names reported to clients when a candidate password fails policy.
const (
	RuleLength    = "length"
	RuleUppercase = "uppercase"
	RuleLowercase = "lowercase"
	RuleNumber    = "number"
	RuleSymbol    = "symbol"
)

// PasswordPolicy is the pure predicate shared by registration and password
// reset. MinLength below 10 is rejected at config load, 12 is recommended.
type PasswordPolicy struct {
	MinLength int
}

// Validate returns the list of failed rule names, empty when the password
// complies. Each rule is checked independently so callers can report all
// violations at once.
func (p PasswordPolicy) Validate(password string) []string {
	min := p.MinLength
	if min <= 0 {
		min = 10
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	var failed []string
	if len([]rune(password)) < min {
		failed = append(failed, RuleLength)
	}
	if !hasUpper {
		failed = append(failed, RuleUppercase)
	}
	if !hasLower {
		failed = append(failed, RuleLowercase)
	}
	if !hasDigit {
		failed = append(failed, RuleNumber)
	}
	if !hasSymbol {
		failed = append(failed, RuleSymbol)
	}
	return failed
}
