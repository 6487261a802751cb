package cli

import (
	"context"

	"github.com/dmitrijs2005/weekplanner/internal/timex"
)

type WeekCmd struct {
	Day     string `arg:"" optional:"" help:"Any day of the week to show (YYYY-MM-DD, today, tomorrow). Defaults to the week shown last."`
	Next    bool   `short:"n" xor:"shift" help:"Show the week after."`
	Prev    bool   `short:"p" xor:"shift" help:"Show the week before."`
	Details bool   `short:"d" help:"List todo list items and exercises with their ids."`
}

func (c *WeekCmd) Run(app *App, ctx context.Context) error {
	m, err := app.Model(ctx)
	if err != nil {
		return err
	}

	today := timex.DateOf(app.now())
	start := m.CurrentWeekStart(ctx)
	if c.Day != "" {
		d, err := parseDay(c.Day, today, start)
		if err != nil {
			return err
		}
		start = d.WeekStart()
	}
	switch {
	case c.Next:
		start = start.AddDays(7)
	case c.Prev:
		start = start.AddDays(-7)
	}
	m.SetCurrentWeekStart(ctx, start)

	app.printf("%s", renderWeek(m.WeekData(start), today, c.Details))
	return nil
}
