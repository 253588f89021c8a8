package utils

// GenerateSlug lowercases s and joins its alphanumeric runs with '-'.
// "Acme Corp!" -> "acme-corp". Returns "company" if nothing is left.
func GenerateSlug(s string) string {
	out := make([]byte, 0, len(s))
	dash := false
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9':
			out = append(out, byte(r))
			dash = false
		case 'A' <= r && r <= 'Z':
			out = append(out, byte(r-'A'+'a'))
			dash = false
		default:
			if len(out) > 0 && !dash {
				out = append(out, '-')
				dash = true
			}
		}
	}
	if dash {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "company"
	}
	return string(out)
}

// MinPasswordLength is the only password rule for employees.
const MinPasswordLength = 6

func ValidPassword(s string) bool {
	return len(s) >= MinPasswordLength
}
