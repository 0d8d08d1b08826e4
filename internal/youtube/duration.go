package youtube

import (
	"strconv"
	"strings"
)

// FallbackDurationSeconds is used when a duration token cannot be decoded.
// Tokens with a days component (multi-day streams) land here too; ten
// minutes is a documented approximation, not a crash.
const FallbackDurationSeconds int64 = 600

// ParseDurationSeconds decodes an ISO-8601 duration token such as "PT1H2M3S"
// into seconds. Hours, minutes and seconds are each optional and default to
// zero. Any failure yields FallbackDurationSeconds.
func ParseDurationSeconds(raw string) int64 {
	if len(raw) < 2 || !strings.HasPrefix(raw, "P") {
		return FallbackDurationSeconds
	}

	// Skip "PT"; a days component leaves a non-numeric rest, which the unit
	// parses below reject, folding multi-day tokens into the fallback.
	rest := raw[2:]

	var hours, minutes, seconds int64
	var err error

	if idx := strings.Index(rest, "H"); idx >= 0 {
		hours, err = strconv.ParseInt(rest[:idx], 10, 64)
		if err != nil {
			return FallbackDurationSeconds
		}
		rest = rest[idx+1:]
	}

	if idx := strings.Index(rest, "M"); idx >= 0 {
		minutes, err = strconv.ParseInt(rest[:idx], 10, 64)
		if err != nil {
			return FallbackDurationSeconds
		}
		rest = rest[idx+1:]
	}

	if idx := strings.Index(rest, "S"); idx >= 0 {
		seconds, err = strconv.ParseInt(rest[:idx], 10, 64)
		if err != nil {
			return FallbackDurationSeconds
		}
	}

	return hours*3600 + minutes*60 + seconds
}
