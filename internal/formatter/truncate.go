package formatter

const (
	UserMaxLength    = 64
	AccountMaxLength = 64

	userKeep = UserMaxLength / 2
	ellipsis = "..."
)

// TruncateUser keeps the first and last 32 characters of an oversized user
// string so both ends survive in the audit trail.
func TruncateUser(s string) string {
	r := []rune(s)
	if len(r) <= UserMaxLength {
		return s
	}
	return string(r[:userKeep]) + string(r[len(r)-userKeep:])
}

// TruncateAccount shortens an oversized account for display.
func TruncateAccount(s string) string {
	if len([]rune(s)) <= AccountMaxLength {
		return s
	}
	return PrettyString(s, AccountMaxLength)
}

// PrettyString shortens s to at most max characters as "start...end".
// When max is too small to hold the ellipsis and two ends, s is cut at max.
func PrettyString(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) < max {
		return s
	}
	half := (max - len(ellipsis)) / 2
	if half <= 1 {
		return string(r[:max])
	}
	return string(r[:half]) + ellipsis + string(r[len(r)-half:])
}
