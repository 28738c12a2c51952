package pii

import "strings"

// Mask returns the redacted preview for a value of the given PII type.
//
//	email:  first two characters of the local part + "***@" + domain,
//	        or "***" when the value does not contain exactly one "@"
//	phone:  "***" + last four characters
//	other:  "[REDACTED]"
func Mask(piiType, value string) string {
	switch piiType {
	case TypeEmail:
		parts := strings.Split(value, "@")
		if len(parts) != 2 {
			return "***"
		}
		local := parts[0]
		if len(local) > 2 {
			local = local[:2]
		}
		return local + "***@" + parts[1]
	case TypePhone:
		if len(value) < 4 {
			return "***" + value
		}
		return "***" + value[len(value)-4:]
	default:
		return "[REDACTED]"
	}
}
