package cli

import (
	"context"
	"io"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/dmitrijs2005/weekplanner/internal/client/batch"
)

type ApplyCmd struct {
	File string `arg:"" help:"Batch JSON with createObjects and scheduleItems; \"-\" reads stdin."`
}

func (c *ApplyCmd) Run(app *App, ctx context.Context) error {
	g, err := app.gateway(ctx)
	if err != nil {
		return err
	}

	var data []byte
	if c.File == "-" {
		data, err = io.ReadAll(app.in)
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return err
	}

	b, err := batch.Parse(jsonc.ToJSON(data))
	if err != nil {
		return err
	}
	rep, err := g.Apply(ctx, b)
	if err != nil {
		return err
	}

	app.printf("Created %d object(s), scheduled %d item(s)", len(rep.Created), len(rep.Scheduled))
	if len(rep.Dropped) > 0 {
		app.printf(", dropped %d request(s)", len(rep.Dropped))
	}
	app.println()
	for _, d := range rep.Dropped {
		app.printf("  dropped %s on %s %s\n", d.ObjectID, d.Date, d.TimeCategory)
	}
	return nil
}

type HistoryCmd struct {
	Limit int `short:"l" default:"10" help:"Show at most this many batches, newest first."`
}

func (c *HistoryCmd) Run(app *App, ctx context.Context) error {
	g, err := app.gateway(ctx)
	if err != nil {
		return err
	}
	entries := g.History(ctx)
	if len(entries) == 0 {
		app.println("No batches applied yet")
		return nil
	}
	shown := 0
	for i := len(entries) - 1; i >= 0 && (c.Limit <= 0 || shown < c.Limit); i-- {
		e := entries[i]
		app.printf("%s  created %d, scheduled %d, dropped %d\n",
			e.AppliedAt.Local().Format("2006-01-02 15:04"), e.Created, e.Scheduled, e.Dropped)
		shown++
	}
	return nil
}
