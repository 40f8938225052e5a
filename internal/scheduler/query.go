package scheduler

import (
	"slices"
	"strings"

	"jobwatch/pkg/api"
)

// AllTypes is the type filter that matches every item.
const AllTypes = "all"

// QueryState is the per-view filter and page position. It is owned by the
// caller and passed in on every query.
type QueryState struct {
	TypeFilter  string
	SearchQuery string
	PageIndex   int
	PageSize    int
}

// NewQueryState returns a fresh state: no filters, first page.
func NewQueryState(pageSize int) QueryState {
	return QueryState{TypeFilter: AllTypes, PageSize: pageSize}
}

// SetTypeFilter changes the type filter, returning to the first page when the
// value changes. An empty filter means AllTypes.
func (s *QueryState) SetTypeFilter(t string) {
	if t == "" {
		t = AllTypes
	}
	if t != s.TypeFilter {
		s.TypeFilter = t
		s.PageIndex = 0
	}
}

// SetSearchQuery changes the search query, returning to the first page when
// the value changes.
func (s *QueryState) SetSearchQuery(q string) {
	if q != s.SearchQuery {
		s.SearchQuery = q
		s.PageIndex = 0
	}
}

// Matchers tells the query engine how to read items of type T.
type Matchers[T any] struct {
	// Type returns the value compared against the type filter.
	Type func(T) string
	// Fields returns the strings searched by the search query. Empty
	// strings are skipped.
	Fields func(T) []string
}

// Result is one page of a query plus the number of items that passed the
// filters.
type Result[T any] struct {
	Page       []T
	TotalCount int
}

// Query applies the type filter, then the search, then pagination. Filtering
// keeps the input order; the input slice is never modified.
func Query[T any](items []T, state QueryState, m Matchers[T]) Result[T] {
	filtered := make([]T, 0, len(items))
	search := strings.ToLower(state.SearchQuery)
	for _, item := range items {
		if !matchesType(item, state.TypeFilter, m) {
			continue
		}
		if search != "" && !matchesSearch(item, search, m) {
			continue
		}
		filtered = append(filtered, item)
	}

	return Result[T]{
		Page:       paginate(filtered, state.PageIndex, state.PageSize),
		TotalCount: len(filtered),
	}
}

// Types lists the distinct type values of items in first-seen order,
// preceded by AllTypes. Items with an empty type are not listed; they still
// match AllTypes.
func Types[T any](items []T, typeOf func(T) string) []string {
	types := []string{AllTypes}
	seen := map[string]bool{AllTypes: true}
	for _, item := range items {
		t := typeOf(item)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	return types
}

// PageCount returns how many pages of size pageSize hold total items.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return pages
}

func matchesType[T any](item T, filter string, m Matchers[T]) bool {
	if filter == "" || filter == AllTypes {
		return true
	}
	if m.Type == nil {
		return false
	}
	return m.Type(item) == filter
}

func matchesSearch[T any](item T, search string, m Matchers[T]) bool {
	if m.Fields == nil {
		return false
	}
	for _, field := range m.Fields(item) {
		if field == "" {
			continue
		}
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, pageIndex, pageSize int) []T {
	if pageIndex < 0 || pageSize <= 0 {
		return []T{}
	}
	// Compare page counts before multiplying so huge indexes cannot overflow.
	if pageIndex >= PageCount(len(items), pageSize) {
		return []T{}
	}
	start := pageIndex * pageSize
	end := start + min(pageSize, len(items)-start)
	return slices.Clone(items[start:end])
}

// JobMatchers reads jobs for the query engine.
var JobMatchers = Matchers[api.Job]{
	Type:   func(j api.Job) string { return j.JobType },
	Fields: JobSearchFields,
}

// JobSearchFields returns the fixed set of searchable strings of a job,
// including the synthetic enabled/disabled and descheduled/active/inactive
// tokens.
func JobSearchFields(j api.Job) []string {
	fields := []string{
		j.JobID,
		j.Name,
		j.JobType,
		j.LastExecutionTime.String(),
		j.NextExpectedExecutionTime.String(),
	}
	if j.Schedule != nil {
		fields = append(fields, j.Schedule.Expression, j.Schedule.Timezone)
	}

	if j.Enabled {
		fields = append(fields, "enabled")
	} else {
		fields = append(fields, "disabled")
	}

	switch {
	case j.Descheduled:
		fields = append(fields, "descheduled")
	case j.Enabled:
		fields = append(fields, "active")
	default:
		fields = append(fields, "inactive")
	}
	return fields
}

// HistoryMatchers reads history entries for the query engine. The type
// filter of the history view selects by status (Success/Failed).
var HistoryMatchers = Matchers[HistoryEntry]{
	Type: func(e HistoryEntry) string { return e.Status },
	Fields: func(e HistoryEntry) []string {
		return []string{e.Key, e.JobID, e.JobIndexName, e.Status}
	},
}
