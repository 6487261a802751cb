package planner

import (
	"slices"

	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/dmitrijs2005/weekplanner/internal/timex"
)

// DaysInWeek is the number of date keys in a WeekData.
const DaysInWeek = 7

// WeekData is the read view of seven consecutive days. Every day is present
// in Days, possibly with no items.
type WeekData struct {
	Start timex.Date
	Days  map[timex.Date][]models.ScheduledItem
}

// Dates returns the seven keys in calendar order.
func (w WeekData) Dates() []timex.Date {
	dates := make([]timex.Date, DaysInWeek)
	for i := range dates {
		dates[i] = w.Start.AddDays(i)
	}
	return dates
}

// BuildWeek derives the view for the week starting at weekStart from items.
// Each day is ordered by category rank, then by order; ties keep their input
// order so repeated calls give identical results.
func BuildWeek(items []models.ScheduledItem, weekStart timex.Date) WeekData {
	w := WeekData{Start: weekStart, Days: make(map[timex.Date][]models.ScheduledItem, DaysInWeek)}
	for _, d := range w.Dates() {
		w.Days[d] = []models.ScheduledItem{}
	}
	for _, it := range items {
		if day, ok := w.Days[it.Date]; ok {
			w.Days[it.Date] = append(day, it.Clone())
		}
	}
	for d, day := range w.Days {
		slices.SortStableFunc(day, models.CompareScheduled)
		w.Days[d] = day
	}
	return w
}

// WeekData builds the view over the model's current items.
func (m *Model) WeekData(weekStart timex.Date) WeekData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return BuildWeek(m.items, weekStart)
}
