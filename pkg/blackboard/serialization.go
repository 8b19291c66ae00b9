package blackboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dyluth/trove/pkg/geom"
)

// Serialization helpers for converting between Go structs and Redis hashes
//
// Redis stores hashes as string-to-string maps, so numeric counters are
// formatted as decimal strings and parsed back on read.

// StatsToHash converts Stats to a Redis hash.
func StatsToHash(s Stats) map[string]interface{} {
	return map[string]interface{}{
		"missing_gems":    s.MissingGems,
		"total_gems":      s.TotalGems,
		"collisions":      s.Collisions,
		"movements":       s.Movements,
		"visited":         s.Visited,
		"reserved":        s.Reserved,
		"elapsed_seconds": strconv.FormatFloat(s.ElapsedSeconds, 'f', 3, 64),
		"finished":        strconv.FormatBool(s.Finished),
	}
}

// HashToStats converts a Redis hash back to Stats.
func HashToStats(hash map[string]string) (Stats, error) {
	var s Stats
	ints := []struct {
		field string
		dst   *int
	}{
		{"missing_gems", &s.MissingGems},
		{"total_gems", &s.TotalGems},
		{"collisions", &s.Collisions},
		{"movements", &s.Movements},
		{"visited", &s.Visited},
		{"reserved", &s.Reserved},
	}
	for _, f := range ints {
		v, err := strconv.Atoi(hash[f.field])
		if err != nil {
			return Stats{}, fmt.Errorf("invalid %s field: %w", f.field, err)
		}
		*f.dst = v
	}

	elapsed, err := strconv.ParseFloat(hash["elapsed_seconds"], 64)
	if err != nil {
		return Stats{}, fmt.Errorf("invalid elapsed_seconds field: %w", err)
	}
	s.ElapsedSeconds = elapsed

	// Missing finished flag reads as false
	s.Finished, _ = strconv.ParseBool(hash["finished"])

	return s, nil
}

// PositionMember encodes a position as a Redis set member: "x,y,z".
func PositionMember(p geom.Vec3) string {
	return strings.Join([]string{
		strconv.FormatFloat(p.X, 'g', -1, 64),
		strconv.FormatFloat(p.Y, 'g', -1, 64),
		strconv.FormatFloat(p.Z, 'g', -1, 64),
	}, ",")
}

// ParsePositionMember decodes a member written by PositionMember.
func ParsePositionMember(s string) (geom.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return geom.Zero, fmt.Errorf("invalid position member %q: want x,y,z", s)
	}
	var vals [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return geom.Zero, fmt.Errorf("invalid position member %q: %w", s, err)
		}
		vals[i] = v
	}
	return geom.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}
