// Package broadcast schedules one-shot deferred message fan-outs. Jobs are
// held in memory in a min-heap keyed by run time; a background runner fires
// due jobs against the recipient list as it exists at fire time. There is no
// durability across restarts and no per-recipient retry.
package broadcast
