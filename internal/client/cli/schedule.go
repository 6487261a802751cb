package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/weekplanner/internal/client/planner"
	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/dmitrijs2005/weekplanner/internal/timex"
)

type ScheduleCmd struct {
	Object string `arg:"" help:"Object id or unique prefix."`
	Day    string `arg:"" optional:"" help:"Day (YYYY-MM-DD, today, tomorrow or a weekday of the current week). Defaults to today."`
	At     string `short:"a" default:"Morning" help:"Time category: Morning, Afternoon, Evening, Night or any custom section."`
}

func (c *ScheduleCmd) Run(app *App, ctx context.Context) error {
	m, obj, err := app.findObject(ctx, c.Object)
	if err != nil {
		return err
	}
	day, cat, err := app.placement(ctx, m, c.Day, c.At)
	if err != nil {
		return err
	}
	item, err := m.ScheduleObject(ctx, obj.GetID(), day, cat)
	if err != nil {
		return err
	}
	app.printf("Scheduled %q on %s %s (%s)\n", obj.Label(), item.Date, item.TimeCategory, shortID(item.ID))
	return nil
}

type TodoCmd struct {
	Text string `arg:"" help:"What to do."`
	Day  string `arg:"" optional:"" help:"Day (YYYY-MM-DD, today, tomorrow or a weekday of the current week). Defaults to today."`
	At   string `short:"a" default:"Morning" help:"Time category."`
}

func (c *TodoCmd) Run(app *App, ctx context.Context) error {
	m, err := app.Model(ctx)
	if err != nil {
		return err
	}
	day, cat, err := app.placement(ctx, m, c.Day, c.At)
	if err != nil {
		return err
	}
	item, err := m.ScheduleTodo(ctx, c.Text, day, cat)
	if err != nil {
		return err
	}
	app.printf("Added todo %q on %s %s (%s)\n", c.Text, item.Date, item.TimeCategory, shortID(item.ID))
	return nil
}

type MoveCmd struct {
	Item  string `arg:"" help:"Scheduled item id or unique prefix."`
	Day   string `short:"d" help:"New day."`
	At    string `short:"a" help:"New time category."`
	Order int    `short:"o" default:"-1" help:"New position within the time category."`
}

func (c *MoveCmd) Validate() error {
	if c.Day == "" && c.At == "" && c.Order < 0 {
		return errors.New("nothing to change: give --day, --at or --order")
	}
	return nil
}

func (c *MoveCmd) Run(app *App, ctx context.Context) error {
	m, item, err := app.findItem(ctx, c.Item)
	if err != nil {
		return err
	}

	var patch planner.ItemPatch
	if c.Day != "" {
		d, err := parseDay(c.Day, timex.DateOf(app.now()), m.CurrentWeekStart(ctx))
		if err != nil {
			return err
		}
		patch.Date = &d
	}
	if c.At != "" {
		cat, err := models.ParseTimeCategory(c.At)
		if err != nil {
			return err
		}
		patch.TimeCategory = &cat
	}
	if c.Order >= 0 {
		patch.Order = &c.Order
	}

	if err := m.UpdateScheduledItem(ctx, item.ID, patch); err != nil {
		return err
	}
	moved, _ := m.ScheduledItem(item.ID)
	app.printf("Moved %q to %s %s #%d\n", moved.Data.Label(), moved.Date, moved.TimeCategory, moved.Order)
	return nil
}

type UnscheduleCmd struct {
	Item string `arg:"" help:"Scheduled item id or unique prefix."`
}

func (c *UnscheduleCmd) Run(app *App, ctx context.Context) error {
	m, item, err := app.findItem(ctx, c.Item)
	if err != nil {
		return err
	}
	if err := m.DeleteScheduledItem(ctx, item.ID); err != nil {
		return err
	}
	app.printf("Removed %q from %s\n", item.Data.Label(), item.Date)
	return nil
}

type ToggleCmd struct {
	Item   string `arg:"" help:"Scheduled item id or unique prefix."`
	Nested string `arg:"" optional:"" help:"List item or exercise id (or prefix). Not used for individual todos."`
}

func (c *ToggleCmd) Run(app *App, ctx context.Context) error {
	m, item, err := app.findItem(ctx, c.Item)
	if err != nil {
		return err
	}

	nested := ""
	if ids := nestedIDs(item.Data); c.Nested != "" || len(ids) > 0 {
		if nested, err = resolveID("nested item", c.Nested, ids); err != nil {
			return err
		}
	}
	if err := m.ToggleItemCompletion(ctx, item.ID, nested); err != nil {
		return err
	}

	updated, _ := m.ScheduledItem(item.ID)
	app.printf("%s %s\n", progress(updated.Data), updated.Data.Label())
	return nil
}

func nestedIDs(o models.Object) []string {
	var ids []string
	switch e := o.Entity.(type) {
	case *models.TodoList:
		for _, it := range e.Items {
			ids = append(ids, it.ID)
		}
	case *models.Workout:
		for _, ex := range e.Exercises {
			ids = append(ids, ex.ID)
		}
	}
	return ids
}

func (a *App) findItem(ctx context.Context, prefix string) (*planner.Model, models.ScheduledItem, error) {
	m, err := a.Model(ctx)
	if err != nil {
		return nil, models.ScheduledItem{}, err
	}
	items := m.ScheduledItems()
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	id, err := resolveID("scheduled item", prefix, ids)
	if err != nil {
		return nil, models.ScheduledItem{}, err
	}
	item, _ := m.ScheduledItem(id)
	return m, item, nil
}

func (a *App) placement(ctx context.Context, m *planner.Model, day, at string) (timex.Date, models.TimeCategory, error) {
	d, err := parseDay(day, timex.DateOf(a.now()), m.CurrentWeekStart(ctx))
	if err != nil {
		return timex.Date{}, "", err
	}
	cat, err := models.ParseTimeCategory(at)
	if err != nil {
		return timex.Date{}, "", fmt.Errorf("time category: %w", err)
	}
	return d, cat, nil
}
