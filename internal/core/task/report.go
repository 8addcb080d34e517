package task

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"
)

// Bucket is a labelled count.
type Bucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats summarises the tasks visible to an actor.
type Stats struct {
	Total      int      `json:"total"`
	ByStatus   []Bucket `json:"by_status"`
	ByPriority []Bucket `json:"by_priority"`
	TimeSpent  int64    `json:"time_spent"`
}

// ComputeStats counts the actor's visible tasks by status and priority.
// Empty buckets are omitted.
func ComputeStats(tasks []Task, actor Actor) Stats {
	scoped := Scope(tasks, actor)

	statusCounts := make(map[Status]int)
	priorityCounts := make(map[Priority]int)
	st := Stats{Total: len(scoped)}
	for _, t := range scoped {
		statusCounts[t.Status]++
		priorityCounts[t.Priority]++
		st.TimeSpent += t.TimeSpent
	}

	for _, s := range Statuses() {
		if n := statusCounts[s]; n > 0 {
			st.ByStatus = append(st.ByStatus, Bucket{Name: string(s), Count: n})
		}
	}
	for _, p := range Priorities() {
		if n := priorityCounts[p]; n > 0 {
			st.ByPriority = append(st.ByPriority, Bucket{Name: string(p), Count: n})
		}
	}
	return st
}

// ReportOptions sizes a time report.
type ReportOptions struct {
	Days int // trend window, defaults to 7
	Top  int // number of tasks ranked by time spent, defaults to 5
}

// DayCount is the number of tasks created on one day.
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// TaskTime is a task ranked by time spent.
type TaskTime struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Seconds int64   `json:"seconds"`
	Hours   float64 `json:"hours"`
}

// Report is the creation trend and time ranking for an actor's tasks.
type Report struct {
	Trend   []DayCount `json:"trend"`
	TopTime []TaskTime `json:"top_time"`
}

const maxReportName = 20

// BuildReport returns per-day creation counts for the last opts.Days days
// (oldest first, ending on now's date) and the opts.Top visible tasks with the
// most time spent.
func BuildReport(tasks []Task, actor Actor, now time.Time, opts ReportOptions) Report {
	if opts.Days <= 0 {
		opts.Days = 7
	}
	if opts.Top <= 0 {
		opts.Top = 5
	}

	scoped := Scope(tasks, actor)

	loc := now.Location()
	created := make(map[string]int)
	for _, t := range scoped {
		created[t.CreatedAt.In(loc).Format(time.DateOnly)]++
	}

	r := Report{Trend: make([]DayCount, 0, opts.Days)}
	for i := opts.Days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format(time.DateOnly)
		r.Trend = append(r.Trend, DayCount{Date: day, Count: created[day]})
	}

	ranked := make([]Task, 0, len(scoped))
	for _, t := range scoped {
		if t.TimeSpent > 0 {
			ranked = append(ranked, t)
		}
	}
	slices.SortStableFunc(ranked, func(a, b Task) int {
		return cmp.Compare(b.TimeSpent, a.TimeSpent)
	})
	if len(ranked) > opts.Top {
		ranked = ranked[:opts.Top]
	}

	r.TopTime = make([]TaskTime, 0, len(ranked))
	for _, t := range ranked {
		r.TopTime = append(r.TopTime, TaskTime{
			ID:      t.ID,
			Name:    truncate(t.Title, maxReportName),
			Seconds: t.TimeSpent,
			Hours:   math.Round(float64(t.TimeSpent)/3600*10) / 10,
		})
	}
	return r
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// FormatDuration renders seconds as HH:MM:SS. Hours are not capped at 24.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
