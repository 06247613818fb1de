// models/meta.go
package models

import "time"

// RegistryRecord is one row of the table_dates registry: the date of the dump
// currently loaded in TableName.
type RegistryRecord struct {
	TableName    string      `json:"table_name" db:"table_name"`
	DateInserted RefreshDate `json:"date_inserted" db:"date_inserted"`
}

// StalenessFlags maps table name to "source is newer than registry".
// Recomputed every run, never stored.
type StalenessFlags map[string]bool

// Any reports whether at least one table needs an update.
func (f StalenessFlags) Any() bool {
	for _, stale := range f {
		if stale {
			return true
		}
	}
	return false
}

// TableStatus is one row of a staleness report.
type TableStatus struct {
	Table        string      `json:"table"`
	FileName     string      `json:"file_name"`
	SourceDate   RefreshDate `json:"source_date"`
	RegistryDate RefreshDate `json:"registry_date"`
	NeedsUpdate  bool        `json:"needs_update"`
}

// RunReport summarizes one refresh invocation.
type RunReport struct {
	RunID         string                 `json:"run_id"`
	StartedAt     time.Time              `json:"started_at"`
	FinishedAt    time.Time              `json:"finished_at"`
	SourceDates   map[string]RefreshDate `json:"source_dates"`
	RegistryDates map[string]RefreshDate `json:"registry_dates"`
	NeedsUpdate   StalenessFlags         `json:"needs_update"`
	Downloaded    []string               `json:"downloaded"`
	States        RefreshStates          `json:"states,omitempty"`
	CascadeRan    bool                   `json:"cascade_ran"`
	Committed     bool                   `json:"committed"`
}
