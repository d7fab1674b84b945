package history

import "time"

const SchemaVersion = 1

// Snapshot summarizes one module scan.
type Snapshot struct {
	SchemaVersion   int       `json:"schema_version"`
	RunID           string    `json:"run_id"`
	Module          string    `json:"module"`
	Timestamp       time.Time `json:"timestamp"`
	TypeCount       int       `json:"type_count"`
	ComponentCount  int       `json:"component_count"`
	MissingCount    int       `json:"missing_count"`
	UnusedCount     int       `json:"unused_count"`
	DeprecatedCount int       `json:"deprecated_count"`
	UnresolvedCount int       `json:"unresolved_count"`
	FailureCount    int       `json:"failure_count"`
}

// Trend is a snapshot with the change against the previous one for the module.
type Trend struct {
	Snapshot
	DeltaMissing    int `json:"delta_missing"`
	DeltaUnused     int `json:"delta_unused"`
	DeltaDeprecated int `json:"delta_deprecated"`
}

// Trends computes per-snapshot deltas. snapshots must be ordered by time.
func Trends(snapshots []Snapshot) []Trend {
	trends := make([]Trend, 0, len(snapshots))
	for i, s := range snapshots {
		t := Trend{Snapshot: s}
		if i > 0 {
			prev := snapshots[i-1]
			t.DeltaMissing = s.MissingCount - prev.MissingCount
			t.DeltaUnused = s.UnusedCount - prev.UnusedCount
			t.DeltaDeprecated = s.DeprecatedCount - prev.DeprecatedCount
		}
		trends = append(trends, t)
	}
	return trends
}
