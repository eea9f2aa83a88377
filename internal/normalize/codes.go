package normalize

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)
	nonDigit        = regexp.MustCompile(`[^0-9]`)
)

// NDCLength is the width of the canonical NDC used for every join key.
const NDCLength = 11

// NormalizeCode trims whitespace, uppercases, and strips non-alphanumeric characters.
// Returns nil if the input is nil or the result is empty.
func NormalizeCode(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	s = strings.ToUpper(s)
	s = nonAlphanumeric.ReplaceAllString(s, "")
	if s == "" {
		return nil
	}
	return &s
}

// NDC11 canonicalizes a National Drug Code: every non-digit is dropped, the
// digits are left-padded with zeros to 11, and longer inputs keep their
// rightmost 11 digits. Returns "" when the input has no digits.
//
//	"0074-4339-02" → "00074433902"
//	"12345"        → "00000012345"
func NDC11(raw string) string {
	digits := nonDigit.ReplaceAllString(raw, "")
	if digits == "" {
		return ""
	}
	if len(digits) < NDCLength {
		return strings.Repeat("0", NDCLength-len(digits)) + digits
	}
	return digits[len(digits)-NDCLength:]
}
