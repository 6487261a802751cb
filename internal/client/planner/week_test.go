package planner

import (
	"testing"

	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func todoAt(id, day string, cat models.TimeCategory, order int) models.ScheduledItem {
	return models.NewScheduledItem(id, models.NewObject(&models.IndividualTodo{ID: "t-" + id, Text: id}), date(day), cat, order)
}

func TestBuildWeek_AllDaysPresent(t *testing.T) {
	w := BuildWeek(nil, date("2024-01-08"))

	require.Len(t, w.Days, DaysInWeek)
	dates := w.Dates()
	assert.Equal(t, date("2024-01-08"), dates[0])
	assert.Equal(t, date("2024-01-14"), dates[6])
	for _, d := range dates {
		assert.NotNil(t, w.Days[d])
		assert.Empty(t, w.Days[d])
	}
}

func TestBuildWeek_FiltersAndOrders(t *testing.T) {
	items := []models.ScheduledItem{
		todoAt("before", "2024-01-07", models.Morning, 0),
		todoAt("custom", "2024-01-09", "Gym slot", 0),
		todoAt("night", "2024-01-09", models.Night, 0),
		todoAt("m2", "2024-01-09", models.Morning, 2),
		todoAt("m0", "2024-01-09", models.Morning, 0),
		todoAt("tie", "2024-01-09", models.Morning, 2),
		todoAt("after", "2024-01-15", models.Morning, 0),
	}

	w := BuildWeek(items, date("2024-01-08"))

	var ids []string
	for _, it := range w.Days[date("2024-01-09")] {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"m0", "m2", "tie", "night", "custom"}, ids)

	total := 0
	for _, day := range w.Days {
		total += len(day)
	}
	assert.Equal(t, 5, total)
}

func TestBuildWeek_Deterministic(t *testing.T) {
	items := []models.ScheduledItem{
		todoAt("a", "2024-01-10", models.Evening, 1),
		todoAt("b", "2024-01-10", models.Evening, 1),
		todoAt("c", "2024-01-10", models.Afternoon, 0),
	}
	first := BuildWeek(items, date("2024-01-08"))
	for range 5 {
		assert.Equal(t, first, BuildWeek(items, date("2024-01-08")))
	}
}

func TestBuildWeek_ResultDoesNotAliasInput(t *testing.T) {
	items := []models.ScheduledItem{todoAt("a", "2024-01-10", models.Evening, 0)}
	w := BuildWeek(items, date("2024-01-08"))

	w.Days[date("2024-01-10")][0].Data.Entity.(*models.IndividualTodo).Completed = true
	assert.False(t, items[0].Data.Entity.(*models.IndividualTodo).Completed)
}
