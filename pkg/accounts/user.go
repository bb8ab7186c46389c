// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

// Package accounts implements the account endpoint (login, registration,
// user lookup) and the UserStore capability it depends on.
package accounts

import (
	"regexp"
	"unicode"
)

// User is an account record. Password holds the bcrypt hash, never the
// plain text.
type User struct {
	Username string `msgpack:"username"`
	Email    string `msgpack:"email"`
	Password string `msgpack:"password"`

	DiscordID   string `msgpack:"discord_id,omitempty"`
	DiscordName string `msgpack:"discord_name,omitempty"`

	Friends []string `msgpack:"friends,omitempty"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether the email has a plausible shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPassword reports whether the password satisfies the registration
// rule: 6-32 characters with at least one digit, one upper-case letter
// and one symbol.
func ValidPassword(pw string) bool {
	runes := []rune(pw)
	if len(runes) < 6 || len(runes) > 32 {
		return false
	}
	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasDigit && hasSymbol
}

// Summary is the copy of account fields cached on the session after a
// successful login. It never carries the password hash.
type Summary struct {
	Username    string
	Email       string
	DiscordID   string
	DiscordName string
}
