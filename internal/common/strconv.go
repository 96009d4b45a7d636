package common

import (
	"strconv"
	"strings"
)

// NonNegativeInt parses the leading integer of value and clamps it at zero.
// Blank, non-numeric and negative input all yield 0; "12abc" yields 12.
func NonNegativeInt(value string) int64 {
	trimmed := strings.TrimSpace(value)
	end := 0
	for end < len(trimmed) {
		c := trimmed[end]
		if (c == '-' || c == '+') && end == 0 {
			end++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		end++
	}
	parsed, err := strconv.ParseInt(trimmed[:end], 10, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}
