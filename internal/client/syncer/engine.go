// Package syncer moves whole collections between the local model and the
// remote service. Every operation is explicit; ordinary edits never sync.
//
// Uploads rely on the server's bulk replace: each collection is swapped in
// one transaction, so a failed call leaves the remote collection as it was.
// Objects go first; if the scheduled items then fail, the objects are
// replaced with what the remote held before.
// Downloads fetch both collections first and only then replace the local
// model in a single step.
package syncer

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/weekplanner/internal/client/planner"
	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/logging"
	"github.com/dmitrijs2005/weekplanner/internal/models"
)

// Remote is the part of the API client the engine needs.
type Remote interface {
	ListObjects(ctx context.Context) ([]models.Object, error)
	ListScheduledItems(ctx context.Context) ([]models.ScheduledItem, error)
	ReplaceObjects(ctx context.Context, objects []models.Object) (int, error)
	ReplaceScheduledItems(ctx context.Context, items []models.ScheduledItem) (int, error)
	PresignBackup(ctx context.Context) (models.BackupTarget, error)
}

// Result is the outcome of one sync operation. A failure is reported for the
// operation as a whole.
type Result struct {
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	Objects        int    `json:"objects"`
	ScheduledItems int    `json:"scheduledItems"`
}

func failed(err error) Result {
	return Result{Success: false, Error: err.Error()}
}

type Engine struct {
	remote Remote
	model  *planner.Model
	logger logging.Logger

	upload uploadFunc
}

func NewEngine(remote Remote, model *planner.Model, logger logging.Logger) *Engine {
	return &Engine{
		remote: remote,
		model:  model,
		logger: logger.With("module", "syncer", "user", model.UserID()),
		upload: defaultUpload,
	}
}

// UploadAll replaces the remote collections of userID with the given ones.
// Empty collections are sent as explicit empty replaces. Both collections
// are validated before anything is sent; when the scheduled items are
// rejected after the objects went through, the previous remote objects are
// put back.
func (e *Engine) UploadAll(ctx context.Context, userID string, objects []models.Object, items []models.ScheduledItem) Result {
	if err := e.checkUser(userID); err != nil {
		return failed(err)
	}
	if objects == nil {
		objects = []models.Object{}
	}
	if items == nil {
		items = []models.ScheduledItem{}
	}
	if err := validateUpload(objects, items); err != nil {
		return failed(err)
	}

	e.logger.Info(ctx, "upload started", "objects", len(objects), "items", len(items))

	previous, err := e.remote.ListObjects(ctx)
	if err != nil {
		e.logger.Error(ctx, "snapshot remote objects failed", "error", err)
		return failed(fmt.Errorf("upload objects: %w", err))
	}

	nObjects, err := e.remote.ReplaceObjects(ctx, objects)
	if err != nil {
		e.logger.Error(ctx, "upload objects failed", "error", err)
		return failed(fmt.Errorf("upload objects: %w", err))
	}
	nItems, err := e.remote.ReplaceScheduledItems(ctx, items)
	if err != nil {
		e.logger.Error(ctx, "upload scheduled items failed", "error", err)
		if _, rerr := e.remote.ReplaceObjects(ctx, previous); rerr != nil {
			e.logger.Error(ctx, "restore remote objects failed", "error", rerr)
			return failed(fmt.Errorf("upload scheduled items: %w (restoring objects: %v)", err, rerr))
		}
		return failed(fmt.Errorf("upload scheduled items: %w", err))
	}

	e.logger.Info(ctx, "upload finished", "objects", nObjects, "items", nItems)
	return Result{Success: true, Objects: nObjects, ScheduledItems: nItems}
}

func validateUpload(objects []models.Object, items []models.ScheduledItem) error {
	for _, o := range objects {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DownloadAll overwrites the local model with the remote collections of
// userID. Nothing local changes unless both collections were fetched.
func (e *Engine) DownloadAll(ctx context.Context, userID string) Result {
	if err := e.checkUser(userID); err != nil {
		return failed(err)
	}

	e.logger.Info(ctx, "download started")

	objects, err := e.remote.ListObjects(ctx)
	if err != nil {
		e.logger.Error(ctx, "download objects failed", "error", err)
		return failed(fmt.Errorf("download objects: %w", err))
	}
	items, err := e.remote.ListScheduledItems(ctx)
	if err != nil {
		e.logger.Error(ctx, "download scheduled items failed", "error", err)
		return failed(fmt.Errorf("download scheduled items: %w", err))
	}

	e.model.Replace(ctx, objects, items)

	e.logger.Info(ctx, "download finished", "objects", len(objects), "items", len(items))
	return Result{Success: true, Objects: len(objects), ScheduledItems: len(items)}
}

// MigrateFromLocal uploads the current model. Meant for first-time setup of
// an account whose data so far lived only on this machine.
func (e *Engine) MigrateFromLocal(ctx context.Context) Result {
	return e.UploadAll(ctx, e.model.UserID(), e.model.Objects(), e.model.ScheduledItems())
}

// ExportToLocal downloads into the current model.
func (e *Engine) ExportToLocal(ctx context.Context) Result {
	return e.DownloadAll(ctx, e.model.UserID())
}

func (e *Engine) checkUser(userID string) error {
	if userID == "" || userID != e.model.UserID() {
		return fmt.Errorf("%w: user %q does not own this model", common.ErrorValidation, userID)
	}
	return nil
}
