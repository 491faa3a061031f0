package tasklist

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"todo-app/duecheck"
	"todo-app/entity"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterToday     Filter = "today"
	FilterTomorrow  Filter = "tomorrow"
	FilterFuture    Filter = "future"
	FilterRecurring Filter = "recurring"
	FilterNoDate    Filter = "no-date"
)

// Filters lists every filter in dashboard order.
var Filters = []Filter{FilterAll, FilterToday, FilterTomorrow, FilterFuture, FilterRecurring, FilterNoDate}

var filterLabels = map[Filter]string{
	FilterAll:       "Todas",
	FilterToday:     "Hoje",
	FilterTomorrow:  "Amanhã",
	FilterFuture:    "Futuras",
	FilterRecurring: "Recorrentes",
	FilterNoDate:    "Sem data",
}

func (f Filter) Label() string { return filterLabels[f] }

func ParseFilter(s string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := filterLabels[f]; !ok {
		return "", fmt.Errorf("unknown filter %q", s)
	}
	return f, nil
}

// Match reports whether an active task belongs to the filter.
func (f Filter) Match(t entity.Task, now time.Time) bool {
	if f == FilterRecurring {
		return t.IsRecurring
	}
	if t.DueDate == nil {
		return f == FilterAll || f == FilterNoDate
	}
	due := *t.DueDate
	switch f {
	case FilterAll:
		return true
	case FilterToday:
		return duecheck.IsToday(due, now)
	case FilterTomorrow:
		return duecheck.IsTomorrow(due, now)
	case FilterFuture:
		return !duecheck.IsToday(due, now) && !duecheck.IsTomorrow(due, now) && due.After(now)
	}
	return false
}

type SortKey string

const (
	SortCreatedAt SortKey = "created_at"
	SortDueDate   SortKey = "due_date"
	SortTitle     SortKey = "title"
)

var sortOrder = []SortKey{SortCreatedAt, SortTitle, SortDueDate}

func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(sortOrder, k) {
		return "", fmt.Errorf("unknown sort key %q", s)
	}
	return k, nil
}

// Next cycles created_at, title, due_date.
func (k SortKey) Next() SortKey {
	i := slices.Index(sortOrder, k)
	return sortOrder[(i+1)%len(sortOrder)]
}

func (k SortKey) Label() string {
	switch k {
	case SortTitle:
		return "Título"
	case SortDueDate:
		return "Data de vencimento"
	}
	return "Data de criação"
}

// sortTasks orders in place. Newest first for created_at, undated last for
// due_date.
func sortTasks(tasks []entity.Task, key SortKey) {
	slices.SortStableFunc(tasks, func(a, b entity.Task) int {
		switch key {
		case SortTitle:
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case SortDueDate:
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
			return a.DueDate.Compare(*b.DueDate)
		}
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
}

// Counts holds the number of active tasks per filter.
type Counts map[Filter]int

func countActive(tasks []entity.Task, now time.Time) Counts {
	c := make(Counts, len(Filters))
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		for _, f := range Filters {
			if f.Match(t, now) {
				c[f]++
			}
		}
	}
	return c
}
