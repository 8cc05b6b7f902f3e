package verifier

import "strings"

// ValidateSyntax performs a structural check on an email address: exactly
// one "@" separating a non-empty local part from a non-empty domain part
// that contains at least one dot. Whitespace anywhere fails the check.
func ValidateSyntax(email string) bool {
	if strings.Count(email, "@") != 1 {
		return false
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}

	at := strings.LastIndex(email, "@")
	local, domain := email[:at], email[at+1:]

	if local == "" || domain == "" {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	// Dots at the domain edges mean an empty label.
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}

	return true
}

// Domain returns the lower-cased domain part: the substring after the
// last "@". Call only on syntactically valid addresses.
func Domain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// LocalPart returns the lower-cased local part: the substring before the
// last "@".
func LocalPart(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return strings.ToLower(email)
	}
	return strings.ToLower(email[:at])
}
