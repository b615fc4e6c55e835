package models

import (
	"errors"
	"regexp"
	"strings"
)

// accountPattern matches an organisational identifier: K or T then 8 digits.
var accountPattern = regexp.MustCompile(`^[KT][0-9]{8}$`)

// ErrInvalidDomainAccount is returned for identifiers that are not K|T + 8 digits.
var ErrInvalidDomainAccount = errors.New("must start with K or T followed by 8 digits (e.g. K12345678)")

// NormalizeDomainAccount trims and upper-cases s and checks it against the
// K|T + 8 digit format. The same format is used for login personal numbers.
func NormalizeDomainAccount(s string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if !accountPattern.MatchString(v) {
		return "", ErrInvalidDomainAccount
	}
	return v, nil
}

// MinPasswordLength is the shortest password accepted at login or creation.
const MinPasswordLength = 6
