package scheduler

import (
	"cmp"
	"maps"
	"slices"

	"jobwatch/pkg/api"
)

// History entry statuses.
const (
	HistorySuccess = "Success"
	HistoryFailed  = "Failed"
)

// HistoryEntry is a normalized execution-history record.
type HistoryEntry struct {
	Key              string
	JobID            string
	JobIndexName     string
	StartTime        int64
	EndTime          int64
	CompletionStatus int

	// Duration is EndTime - StartTime in seconds. It is negative when the
	// upstream record is inconsistent and is never clamped.
	Duration int64
	Status   string
}

// NormalizeHistory turns the raw history map into entries sorted by start
// time, most recent first. A non-empty jobID keeps only entries for that job
// (exact match). Entries with equal start times are ordered by key.
func NormalizeHistory(raw map[string]api.HistoryRecord, jobID string) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(raw))
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		rec := raw[key]
		if jobID != "" && rec.JobID != jobID {
			continue
		}
		entries = append(entries, newHistoryEntry(key, rec))
	}

	slices.SortStableFunc(entries, func(a, b HistoryEntry) int {
		return cmp.Compare(b.StartTime, a.StartTime)
	})
	return entries
}

func newHistoryEntry(key string, rec api.HistoryRecord) HistoryEntry {
	status := HistorySuccess
	if rec.CompletionStatus != 0 {
		status = HistoryFailed
	}
	return HistoryEntry{
		Key:              key,
		JobID:            rec.JobID,
		JobIndexName:     rec.JobIndexName,
		StartTime:        rec.StartTime,
		EndTime:          rec.EndTime,
		CompletionStatus: rec.CompletionStatus,
		Duration:         rec.EndTime - rec.StartTime,
		Status:           status,
	}
}
