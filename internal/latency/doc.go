// Package latency verifies the timing of a time-triggered schedule.
//
// The analyzer simulates one hyperperiod of the schedule for every flow of
// a workload. For each release instance it scans the window between the
// release and the next release, counts the transmission attempts scheduled
// on the flow's final link, and decides whether the instance completed and
// with what latency.
//
// ARCHITECTURE:
//
// The analyzer consumes three read-only collaborators through interfaces:
//   - Oracle: release times, absolute deadlines and the hyperperiod
//   - Schedule: the slot x unit grid of encoded instructions
//   - Decoder: turns one cell into transmission records
//
// It owns two outputs exclusively:
//   - Table: flows x slots, each cell an ordered set of Tokens
//   - Report: one text line per release instance, one separator per flow
//
// Table construction runs four passes per flow, in order: deadline,
// release, executing, complete. Tokens are appended, never removed, and a
// token appears at most once per cell.
//
// COMPLETION:
//
// An instance is complete at the first slot where the running count of
// attempts on the final link reaches the final link's requirement. The same
// definition drives the Complete token and the report's latency, so the
// table and the report never disagree.
//
// Analysis is single-threaded and deterministic: rebuilding the table or
// the report over unchanged inputs yields identical output.
package latency
