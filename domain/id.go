package domain

import (
	"math"
	"strconv"
	"strings"
)

// ParseID coerces a path identifier to a numeric todo id the way a loosely
// typed client would: surrounding whitespace is ignored, an empty string is
// zero, decimal and exponent forms are accepted when they denote an integer,
// and 0x/0o/0b prefixes select the base. ok is false when the text is not a
// number or is not an integral value representable as int64.
func ParseID(raw string) (id int64, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, true
	}
	if strings.ContainsRune(s, '_') {
		return 0, false
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			if strings.ContainsAny(s[2:3], "+-") {
				return 0, false
			}
			n, err := strconv.ParseInt(s[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return n, true
		}
	}
	// ParseFloat also understands inf/nan spellings; those never name a todo.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
