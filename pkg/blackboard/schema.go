package blackboard

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by instance name so that
// several runs can share one Redis server.
//
// Key pattern: trove:{instance_name}:{entity}
// Channel pattern: trove:{instance_name}:{event_type}_events

// StatsKey returns the Redis key for the run statistics hash.
// Pattern: trove:{instance_name}:stats
func StatsKey(instanceName string) string {
	return fmt.Sprintf("trove:%s:stats", instanceName)
}

// VisitedKey returns the Redis key for the mirrored visited-cell set.
// Pattern: trove:{instance_name}:visited
func VisitedKey(instanceName string) string {
	return fmt.Sprintf("trove:%s:visited", instanceName)
}

// ReservedKey returns the Redis key for the mirrored gem reservation set.
// Pattern: trove:{instance_name}:reserved
func ReservedKey(instanceName string) string {
	return fmt.Sprintf("trove:%s:reserved", instanceName)
}

// FoundKey returns the Redis key for a color's mirrored found-gem list.
// Pattern: trove:{instance_name}:found:{color}
func FoundKey(instanceName string, color Color) string {
	return fmt.Sprintf("trove:%s:found:%s", instanceName, color)
}

// SimEventsChannel returns the Pub/Sub channel carrying simulation events.
// Pattern: trove:{instance_name}:sim_events
func SimEventsChannel(instanceName string) string {
	return fmt.Sprintf("trove:%s:sim_events", instanceName)
}
