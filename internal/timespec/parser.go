package timespec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse parses a simulated-time specification into seconds since the run
// started. Supports two formats:
//   - Go duration format: "90s", "1m30s", "2m"
//   - Clock format as shown by the run timer: "01:30"
func Parse(spec string) (float64, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}

	if mm, ss, ok := strings.Cut(spec, ":"); ok {
		m, errM := strconv.Atoi(mm)
		s, errS := strconv.Atoi(ss)
		if errM == nil && errS == nil && m >= 0 && s >= 0 && s < 60 {
			return float64(m*60 + s), nil
		}
	}

	if d, err := time.ParseDuration(spec); err == nil && d >= 0 {
		return d.Seconds(), nil
	}

	return 0, fmt.Errorf("invalid time specification: %s (use duration like '1m30s' or clock time like '01:30')", spec)
}

// ParseRange parses both --since and --until flags into a simulated time range.
// Returns (sinceSeconds, untilSeconds, error).
// Zero values indicate "no bound" for that end of the range.
//
// Validates that since < until if both are specified.
func ParseRange(since, until string) (float64, float64, error) {
	var sinceSec, untilSec float64
	var err error

	if since != "" {
		sinceSec, err = Parse(since)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --since: %w", err)
		}
	}

	if until != "" {
		untilSec, err = Parse(until)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --until: %w", err)
		}
	}

	if sinceSec > 0 && untilSec > 0 && sinceSec >= untilSec {
		return 0, 0, fmt.Errorf("--since must be before --until")
	}

	return sinceSec, untilSec, nil
}
