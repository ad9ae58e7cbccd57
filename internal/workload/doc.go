// Package workload loads flow sets from CUE, YAML or TOML files.
//
// The format is chosen by extension (.cue, .yaml/.yml, .toml). A directory
// is loaded as a CUE package. Every format describes the same fields:
//
//	flow: F0: {
//		path:     ["N1", "N2", "GW"]
//		period:   10
//		deadline: 8   // optional, defaults to period
//		phase:    0   // optional
//		priority: 0   // optional, lower runs first
//		attempts: [1, 2]
//	}
//
// Loading parses and normalizes names only. Callers run model.Validate to
// check analysis preconditions, so that every violation can be reported at
// once.
package workload
