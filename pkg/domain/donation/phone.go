package donation

import "strings"

// NormalizePhone rewrites a local mobile number into the international
// form expected by the gateway. Non-digits are dropped, a leading trunk
// zero is replaced by the country code and bare nine digit subscriber
// numbers get the country code prepended. Other shapes are returned as
// digits only.
func NormalizePhone(raw, countryCode string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case digits == "":
		return ""
	case strings.HasPrefix(digits, countryCode):
		return digits
	case strings.HasPrefix(digits, "0"):
		return countryCode + digits[1:]
	case len(digits) == 9:
		return countryCode + digits
	default:
		return digits
	}
}
