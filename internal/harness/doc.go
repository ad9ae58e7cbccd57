// Package harness runs verification scenarios.
//
// A scenario pairs a workload and a schedule (inline or by file) with
// assertions over the resulting report, outcomes and latency table:
//
//	name: single-hop
//	description: one push per window completes in four slots
//	flows:
//	  - name: F
//	    path: [N1, N2]
//	    period: 10
//	    attempts: [1]
//	grid: |
//	  time,N1,N2
//	  0,,
//	  ...
//	assertions:
//	  - type: latency
//	    flow: F
//	    instance: 0
//	    value: 4
//
// Each scenario runs against a fresh in-memory store with a fixed run id,
// and assertions are evaluated on the record read back from the store, so
// persistence is exercised on every run.
package harness
