// Package engine runs end-to-end verifications.
//
// A verification takes a workload and a schedule table, checks the
// analysis preconditions, runs the latency analyzer, and assembles a
// run record. With a store attached the record is persisted and compared
// against the previous run over the same inputs.
//
// Event Processing Flow:
//  1. model.Validate and model.ValidateColumns reject malformed input
//  2. timing.New builds the oracle; the hyperperiod is bounded
//  3. latency.Analyzer builds the table, then the report
//  4. Outcomes fan out to observers (metrics) as they are produced
//  5. The run gets an id and seq and is written to the store
//
// Everything is single-threaded and deterministic: the same inputs yield
// the same report, table and outcomes. Only the run id and seq differ.
package engine
