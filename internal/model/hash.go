package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainWorkload = "ttverify/workload/v1"
	DomainSchedule = "ttverify/schedule/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// WorkloadHash computes the content hash of a workload.
// Flow order is significant: it is the analysis priority order.
func WorkloadHash(w *Workload) (string, error) {
	flows := make([]any, len(w.Flows))
	for i, f := range w.Flows {
		flows[i] = map[string]any{
			"name":     f.Name,
			"path":     f.Path,
			"period":   f.Period,
			"deadline": f.Deadline,
			"phase":    f.Phase,
			"priority": f.Priority,
			"attempts": f.Attempts,
		}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"name":  w.Name,
		"flows": flows,
	})
	if err != nil {
		return "", fmt.Errorf("WorkloadHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainWorkload, canonical), nil
}

// ScheduleHash computes the content hash of a schedule grid.
func ScheduleHash(units []string, cells [][]string) (string, error) {
	rows := make([]any, len(cells))
	for i, row := range cells {
		rows[i] = row
	}
	canonical, err := MarshalCanonical(map[string]any{
		"units": units,
		"rows":  rows,
	})
	if err != nil {
		return "", fmt.Errorf("ScheduleHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSchedule, canonical), nil
}
