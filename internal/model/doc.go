// Package model provides the workload and schedule types shared by every
// ttverify package.
//
// This package contains type definitions, validation and content hashing
// only. All other internal packages import model; model imports nothing
// internal. This keeps the workload model the foundational layer with no
// circular dependencies.
//
// Key design constraints:
//   - Time is measured in integer schedule slots, never wall-clock durations
//   - A flow's deadline never exceeds its period, so releases never overlap
//   - Flow and unit names are NFC-normalized at every load boundary
//   - All JSON tags use snake_case
package model
