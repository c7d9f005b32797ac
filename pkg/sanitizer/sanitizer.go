package sanitizer

import "strings"

// Trim removes leading and trailing whitespace.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail lowercases and trims an email address. Gmail-style plus
// aliases are kept as-is: collapsing them is a product decision, not a
// normalization one.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips formatting characters from a phone number, keeping
// digits and a single leading plus.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	var b strings.Builder
	b.Grow(len(phone))
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SingleLine collapses any run of whitespace, including newlines, into a
// single space. Used for free-text fields like names and college titles.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MaskEmail obscures the local part of an email for logs: "ada@x.edu"
// becomes "a**@x.edu".
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}
	if at == 1 {
		return email[:1] + "*" + email[at:]
	}
	return email[:1] + strings.Repeat("*", at-1) + email[at:]
}

// MaskPhone obscures all but the final two digits of a phone number.
func MaskPhone(phone string) string {
	if len(phone) <= 2 {
		return phone
	}
	return strings.Repeat("*", len(phone)-2) + phone[len(phone)-2:]
}
