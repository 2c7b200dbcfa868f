// Package phone normalizes user-supplied phone numbers to E.164.
package phone

import (
	"errors"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalid = errors.New("invalid phone number")

// Normalize parses raw and returns it in E.164 form. Numbers without a
// leading '+' are tried as international first, since Telegram contacts
// arrive as bare digits with the country code, then as national numbers
// in defaultRegion.
func Normalize(raw, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalid
	}

	if !strings.HasPrefix(raw, "+") && onlyDigits(raw) {
		if e164, ok := parse("+"+raw, ""); ok {
			return e164, nil
		}
	}
	if e164, ok := parse(raw, strings.ToUpper(defaultRegion)); ok {
		return e164, nil
	}
	return "", ErrInvalid
}

func parse(raw, region string) (string, bool) {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

func onlyDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
