package calendar_test

import (
	"testing"
	"time"

	"github.com/taskcal/taskcal/internal/calendar"
	"github.com/taskcal/taskcal/internal/domain/task"
)

func TestDateKey(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month int // zero-based
		day   int
		want  string
	}{
		{name: "pads month and day", year: 2024, month: 2, day: 1, want: "2024-03-01"},
		{name: "december", year: 2024, month: 11, day: 31, want: "2024-12-31"},
		{name: "single digit day", year: 2025, month: 0, day: 9, want: "2025-01-09"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calendar.DateKey(tt.year, tt.month, tt.day)

			if got != tt.want {
				t.Fatalf("DateKey(%d, %d, %d) = %q, want %q", tt.year, tt.month, tt.day, got, tt.want)
			}
		})
	}
}

func TestTasksOnDate(t *testing.T) {
	tasks := []task.Task{
		{ID: 1, Date: "2024-03-01"},
		{ID: 2, Date: "2024-03-02"},
		{ID: 3, Date: "2024-03-01"},
	}

	// day=1, month=2 (zero-based), year=2024 -> key 2024-03-01
	got := calendar.TasksOnDate(tasks, 2024, 2, 1)

	if len(got) != 2 {
		t.Fatalf("expected 2 tasks on 2024-03-01, got %d", len(got))
	}

	if got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("input order not preserved: %v, %v", got[0].ID, got[1].ID)
	}

	if empty := calendar.TasksOnDate(tasks, 2024, 2, 3); len(empty) != 0 {
		t.Fatalf("expected no tasks on 2024-03-03, got %d", len(empty))
	}
}

func TestMonthGrid(t *testing.T) {
	// May 2024 starts on a Wednesday (weekday 3) and has 31 days.
	grid := calendar.MonthGrid(2024, 4)

	if len(grid) != 5 {
		t.Fatalf("expected 5 week rows, got %d", len(grid))
	}

	wantFirst := []int{0, 0, 0, 1, 2, 3, 4}

	for i, d := range wantFirst {
		if grid[0][i] != d {
			t.Fatalf("first row[%d] = %d, want %d", i, grid[0][i], d)
		}
	}

	last := grid[len(grid)-1]

	if last[len(last)-1] != 31 {
		t.Fatalf("grid should end on day 31, got %d", last[len(last)-1])
	}

	// No trailing blank padding after the last day.
	for _, d := range last {
		if d == 0 {
			t.Fatal("unexpected blank cell after the last day of the month")
		}
	}

	for i, row := range grid {
		if len(row) > 7 {
			t.Fatalf("row %d wider than 7 cells: %d", i, len(row))
		}
	}
}

func TestMonthGridFebruaryLeapYear(t *testing.T) {
	// February 2024: 29 days, starts on a Thursday.
	grid := calendar.MonthGrid(2024, 1)

	total := 0

	for _, row := range grid {
		for _, d := range row {
			if d != 0 {
				total++
			}
		}
	}

	if total != 29 {
		t.Fatalf("expected 29 day cells, got %d", total)
	}

	if grid[0][4] != 1 {
		t.Fatalf("day 1 should sit in the Thursday column, got row %v", grid[0])
	}
}

func TestSortForDisplay(t *testing.T) {
	in := []task.Task{
		{ID: 1, Date: "2024-01-02", Time: "09:00"},
		{ID: 2, Date: "2024-01-01"},
		{ID: 3, Date: "2024-01-01", Time: "08:00"},
	}

	got := calendar.SortForDisplay(in)

	// the untimed task sorts as "00:00", before 08:00 on the same date
	wantOrder := []int64{2, 3, 1}

	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("position %d: got task %d, want %d (order %v)", i, got[i].ID, id, ids(got))
		}
	}

	// input must be untouched
	if in[0].ID != 1 || in[1].ID != 2 || in[2].ID != 3 {
		t.Fatal("SortForDisplay mutated its input")
	}
}

func TestSortForDisplayStable(t *testing.T) {
	in := []task.Task{
		{ID: 1, Date: "2024-01-01", Time: "08:00"},
		{ID: 2, Date: "2024-01-01", Time: "08:00"},
		{ID: 3, Date: "2024-01-01", Time: "08:00"},
	}

	got := calendar.SortForDisplay(in)

	for i, id := range []int64{1, 2, 3} {
		if got[i].ID != id {
			t.Fatalf("equal keys reordered: %v", ids(got))
		}
	}
}

func ids(tasks []task.Task) []int64 {
	out := make([]int64, len(tasks))

	for i, t := range tasks {
		out[i] = t.ID
	}

	return out
}

func TestIsToday(t *testing.T) {
	now := time.Date(2024, time.May, 7, 15, 30, 0, 0, time.Local)

	if !calendar.IsToday(now, 2024, 4, 7) {
		t.Fatal("expected 2024-05-07 to be today")
	}

	if calendar.IsToday(now, 2024, 4, 8) {
		t.Fatal("next day must not be today")
	}

	if calendar.IsToday(now, 2024, 5, 7) {
		t.Fatal("same day in next month must not be today")
	}

	if calendar.IsToday(now, 2025, 4, 7) {
		t.Fatal("same day in next year must not be today")
	}
}
