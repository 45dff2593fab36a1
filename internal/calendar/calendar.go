// Package calendar maps a flat task collection into per-day views for
// a month. It is pure: no storage, no wall clock except what callers
// pass in.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/taskcal/taskcal/internal/domain/task"
)

// DateKey builds the canonical YYYY-MM-DD key for a day.
// month is zero-based (January = 0) and is formatted one-based,
// zero-padded, matching the keys tasks are stored under.
func DateKey(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month+1, day)
}

// TasksOnDate returns the tasks whose date equals the key for the
// given day, by exact string match. Input order is preserved.
func TasksOnDate(tasks []task.Task, year, month, day int) []task.Task {
	key := DateKey(year, month, day)

	out := make([]task.Task, 0)

	for _, t := range tasks {
		if t.Date == key {
			out = append(out, t)
		}
	}

	return out
}

// MonthGrid lays out a month as week rows of up to seven day numbers.
// Cells before day 1 are zero (blank); the weekday of day 1 decides
// how many, with Sunday as column 0. The final row stops at the last
// day of the month, so it may be shorter than seven cells.
func MonthGrid(year, month int) [][]int {
	first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
	startingDay := int(first.Weekday())

	var grid [][]int

	row := make([]int, 0, 7)

	for i := 0; i < startingDay; i++ {
		row = append(row, 0)
	}

	for day := 1; day <= daysInMonth; day++ {
		row = append(row, day)

		if len(row) == 7 {
			grid = append(grid, row)
			row = make([]int, 0, 7)
		}
	}

	if len(row) > 0 {
		grid = append(grid, row)
	}

	return grid
}

// SortForDisplay returns a copy sorted ascending by date, then by
// time. Tasks without a time sort as "00:00", before any timed task
// on the same date. The sort is stable for equal keys.
func SortForDisplay(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	copy(out, tasks)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}

		return timeKey(out[i].Time) < timeKey(out[j].Time)
	})

	return out
}

func timeKey(t string) string {
	if t == "" {
		return "00:00"
	}

	return t
}

// IsToday reports whether the day cell matches the passed clock. The
// caller supplies now so rendering is deterministic in tests.
func IsToday(now time.Time, year, month, day int) bool {
	return now.Year() == year && int(now.Month())-1 == month && now.Day() == day
}
