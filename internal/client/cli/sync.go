package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/weekplanner/internal/client/syncer"
)

type SyncCmd struct {
	Upload   SyncUploadCmd   `cmd:"" aliases:"push" help:"Replace the remote collections with the local ones."`
	Download SyncDownloadCmd `cmd:"" aliases:"pull" help:"Replace the local collections with the remote ones."`
	Migrate  SyncMigrateCmd  `cmd:"" help:"One-shot copy of data created offline to the server."`
	Export   SyncExportCmd   `cmd:"" help:"One-shot copy of server data into the local store."`
	Backup   SyncBackupCmd   `cmd:"" help:"Upload a compressed snapshot to backup storage."`
}

type SyncUploadCmd struct{}

func (c *SyncUploadCmd) Run(app *App, ctx context.Context) error {
	e, err := app.engine(ctx)
	if err != nil {
		return err
	}
	m, _ := app.Model(ctx)
	return app.report("Uploaded", e.UploadAll(ctx, m.UserID(), m.Objects(), m.ScheduledItems()))
}

type SyncDownloadCmd struct{}

func (c *SyncDownloadCmd) Run(app *App, ctx context.Context) error {
	e, err := app.engine(ctx)
	if err != nil {
		return err
	}
	m, _ := app.Model(ctx)
	return app.report("Downloaded", e.DownloadAll(ctx, m.UserID()))
}

type SyncMigrateCmd struct{}

func (c *SyncMigrateCmd) Run(app *App, ctx context.Context) error {
	e, err := app.engine(ctx)
	if err != nil {
		return err
	}
	return app.report("Migrated", e.MigrateFromLocal(ctx))
}

type SyncExportCmd struct{}

func (c *SyncExportCmd) Run(app *App, ctx context.Context) error {
	e, err := app.engine(ctx)
	if err != nil {
		return err
	}
	return app.report("Exported", e.ExportToLocal(ctx))
}

type SyncBackupCmd struct{}

func (c *SyncBackupCmd) Run(app *App, ctx context.Context) error {
	e, err := app.engine(ctx)
	if err != nil {
		return err
	}
	res, err := e.Backup(ctx)
	if err != nil {
		return err
	}
	app.printf("Backed up to %s (%d bytes, %d compressed)\n", res.Key, res.Size, res.Compressed)
	return nil
}

func (a *App) report(verb string, res syncer.Result) error {
	if !res.Success {
		return errors.New(res.Error)
	}
	a.printf("%s %d object(s) and %d scheduled item(s)\n", verb, res.Objects, res.ScheduledItems)
	return nil
}
