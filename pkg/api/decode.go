package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// The scheduler payloads are decoded field by field. A field of the wrong
// shape reads as absent; only a body or collection that is not JSON of the
// expected kind is an error.

type object map[string]json.RawMessage

func decodeObject(b []byte) object {
	var o object
	if err := json.Unmarshal(b, &o); err != nil {
		return nil
	}
	return o
}

func decodeEnvelope(b []byte) (object, error) {
	var o object
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, err
	}
	return o, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// text returns a JSON string field, or "" for anything else.
func (o object) text(key string) string {
	var s string
	if err := json.Unmarshal(o[key], &s); err != nil {
		return ""
	}
	return s
}

// flag accepts true/false as booleans or strings.
func (o object) flag(key string) bool {
	raw := o[key]
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return false
}

// integer accepts integral and fractional numbers, quoted or not. Fractions
// are truncated; anything else is 0.
func (o object) integer(key string) int64 {
	s := o.scalar(key)
	if s.IsAbsent() {
		return 0
	}
	if n, err := strconv.ParseInt(s.Raw, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s.Raw, 64)
	if err != nil || math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}
	return int64(f)
}

func (o object) scalar(key string) Scalar {
	var s Scalar
	_ = s.UnmarshalJSON(o[key])
	return s
}

func (o object) timestamp(key string) Timestamp {
	return Timestamp{Scalar: o.scalar(key)}
}

// textList reads a list of messages. Non-string entries keep their JSON text.
func (o object) textList(key string) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(o[key], &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s Scalar
		_ = s.UnmarshalJSON(item)
		if !s.IsAbsent() {
			out = append(out, s.Raw)
		}
	}
	return out
}

// objectList decodes a list field whose entries are objects. Entries that
// are not objects are skipped. A missing or null field is an empty list.
func objectList[T any](o object, key string, decode func(object) T) ([]T, error) {
	raw := o[key]
	if isNull(raw) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		entry := decodeObject(item)
		if entry == nil {
			continue
		}
		out = append(out, decode(entry))
	}
	return out, nil
}

// objectMap decodes a map field whose values are objects. Values that are
// not objects are skipped.
func objectMap[T any](o object, key string, decode func(object) T) (map[string]T, error) {
	raw := o[key]
	if isNull(raw) {
		return nil, nil
	}
	var items map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	out := make(map[string]T, len(items))
	for k, item := range items {
		entry := decodeObject(item)
		if entry == nil {
			continue
		}
		out[k] = decode(entry)
	}
	return out, nil
}

func decodeJob(o object) Job {
	job := Job{
		JobID:       o.text("job_id"),
		IndexName:   o.text("index_name"),
		Name:        o.text("name"),
		JobType:     o.text("job_type"),
		Enabled:     o.flag("enabled"),
		Descheduled: o.flag("descheduled"),

		EnabledTime:               o.timestamp("enabled_time"),
		LastUpdateTime:            o.timestamp("last_update_time"),
		LastExecutionTime:         o.timestamp("last_execution_time"),
		LastExpectedExecutionTime: o.timestamp("last_expected_execution_time"),
		NextExpectedExecutionTime: o.timestamp("next_expected_execution_time"),

		Delay:        o.scalar("delay"),
		Jitter:       o.scalar("jitter"),
		LockDuration: o.scalar("lock_duration"),
	}
	if raw, ok := o["schedule"]; ok && !isNull(raw) {
		job.Schedule = new(Schedule)
		_ = job.Schedule.UnmarshalJSON(raw)
	}
	return job
}

func decodeLock(o object) LockRecord {
	return LockRecord{
		JobIndexName:        o.text("job_index_name"),
		JobID:               o.text("job_id"),
		LockTime:            o.timestamp("lock_time"),
		LockDurationSeconds: o.scalar("lock_duration_seconds"),
		Released:            o.flag("released"),
	}
}

func decodeHistory(o object) HistoryRecord {
	return HistoryRecord{
		JobID:            o.text("job_id"),
		JobIndexName:     o.text("job_index_name"),
		StartTime:        o.integer("start_time"),
		EndTime:          o.integer("end_time"),
		CompletionStatus: int(o.integer("completion_status")),
	}
}

func decodeJobInfo(o object) *ScheduledJobInfo {
	// A jobs field that is not a list reads as no jobs.
	jobs, _ := objectList(o, "jobs", decodeJob)
	return &ScheduledJobInfo{
		TotalJobs: int(o.integer("total_jobs")),
		Jobs:      jobs,
	}
}

func decodeNode(o object) NodeJobs {
	node := NodeJobs{
		NodeID:   o.text("node_id"),
		NodeName: o.text("node_name"),
	}
	if info := decodeObject(o["scheduled_job_info"]); info != nil {
		node.ScheduledJobInfo = decodeJobInfo(info)
	}
	return node
}

// UnmarshalJSON implements json.Unmarshaler.
func (j *Job) UnmarshalJSON(b []byte) error {
	*j = decodeJob(decodeObject(b))
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *LockRecord) UnmarshalJSON(b []byte) error {
	*l = decodeLock(decodeObject(b))
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *HistoryRecord) UnmarshalJSON(b []byte) error {
	*h = decodeHistory(decodeObject(b))
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. A node whose
// scheduled_job_info is not an object reports no job info.
func (n *NodeJobs) UnmarshalJSON(b []byte) error {
	*n = decodeNode(decodeObject(b))
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *JobsResponse) UnmarshalJSON(b []byte) error {
	o, err := decodeEnvelope(b)
	if err != nil {
		return err
	}
	jobs, err := objectList(o, "jobs", decodeJob)
	if err != nil {
		return err
	}
	*r = JobsResponse{
		Jobs:      jobs,
		Failures:  o.textList("failures"),
		TotalJobs: int(o.integer("total_jobs")),
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *LocksResponse) UnmarshalJSON(b []byte) error {
	o, err := decodeEnvelope(b)
	if err != nil {
		return err
	}
	locks, err := objectMap(o, "locks", decodeLock)
	if err != nil {
		return err
	}
	*r = LocksResponse{Locks: locks}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *HistoryResponse) UnmarshalJSON(b []byte) error {
	o, err := decodeEnvelope(b)
	if err != nil {
		return err
	}
	history, err := objectMap(o, "history", decodeHistory)
	if err != nil {
		return err
	}
	*r = HistoryResponse{History: history}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *NodesResponse) UnmarshalJSON(b []byte) error {
	o, err := decodeEnvelope(b)
	if err != nil {
		return err
	}
	nodes, err := objectList(o, "nodes", decodeNode)
	if err != nil {
		return err
	}
	*r = NodesResponse{
		Failures: o.textList("failures"),
		Nodes:    nodes,
	}
	return nil
}
