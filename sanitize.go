package dataquery

import "strings"

// SanitizeIdentifier turns an arbitrary string into a safe SQL identifier.
//
// Literal space characters are removed (not generic whitespace), the result is
// lower-cased, and every character outside [A-Za-z0-9_] is deleted. A leading
// digit gets a "_" prefix and a trailing digit gets a "_" suffix; both checks
// are applied independently.
//
// The function is total and idempotent. It does not guarantee uniqueness:
// callers compose a unique raw name (archive + file + sheet) before sanitizing
// and resolve residual collisions themselves.
func SanitizeIdentifier(raw string) string {
	cleaned := strings.ReplaceAll(raw, " ", "")
	cleaned = strings.ToLower(cleaned)

	var b strings.Builder
	b.Grow(len(cleaned))
	for _, r := range cleaned {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	result := b.String()

	if result == "" {
		return result
	}
	if result[0] >= '0' && result[0] <= '9' {
		result = "_" + result
	}
	if last := result[len(result)-1]; last >= '0' && last <= '9' {
		result += "_"
	}
	return result
}

// tableLabel derives the raw naming label for one path component of a table
// name. Dots become underscores before sanitizing so that "a.csv" labels as
// "a_csv" rather than collapsing to "acsv".
func tableLabel(name string) string {
	return SanitizeIdentifier(strings.ReplaceAll(name, ".", "_"))
}
