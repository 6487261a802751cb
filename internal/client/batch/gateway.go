// Package batch folds externally produced batches (objects to create plus
// schedule requests, as returned by the assistant) into the planner model
// through the same mutation calls the CLI uses.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/client/planner"
	"github.com/dmitrijs2005/weekplanner/internal/client/store"
	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/logging"
	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/dmitrijs2005/weekplanner/internal/timex"
	"github.com/google/uuid"
)

// ScheduleRequest asks for an object to be placed on a day.
type ScheduleRequest struct {
	ObjectID     string              `json:"objectId"`
	Date         timex.Date          `json:"date"`
	TimeCategory models.TimeCategory `json:"timeCategory"`
}

type Batch struct {
	CreateObjects []models.Object   `json:"createObjects"`
	ScheduleItems []ScheduleRequest `json:"scheduleItems"`
}

// Report lists what Apply did. Dropped holds requests whose object could not
// be resolved or whose placement was unusable.
type Report struct {
	Created   []models.Object        `json:"created"`
	Scheduled []models.ScheduledItem `json:"scheduled"`
	Dropped   []ScheduleRequest      `json:"dropped"`
}

// HistoryEntry is one applied batch as kept under the assistant-history key.
type HistoryEntry struct {
	AppliedAt time.Time `json:"appliedAt"`
	Batch     Batch     `json:"batch"`
	Created   int       `json:"created"`
	Scheduled int       `json:"scheduled"`
	Dropped   int       `json:"dropped"`
}

type Gateway struct {
	model  *planner.Model
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

func NewGateway(model *planner.Model, logger logging.Logger) *Gateway {
	return &Gateway{
		model:  model,
		logger: logger.With("module", "batch", "user", model.UserID()),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Parse decodes a batch document.
func Parse(data []byte) (Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return Batch{}, fmt.Errorf("%w: invalid batch: %v", common.ErrorValidation, err)
	}
	return b, nil
}

// Apply validates every object first; one invalid object rejects the whole
// batch and nothing is applied. Objects are then added in order and each
// schedule request is resolved against the batch, then the library.
//
// New items get the current size of their date+category bucket as order.
// That value is provisional and may equal the order of an existing item.
func (g *Gateway) Apply(ctx context.Context, b Batch) (Report, error) {
	for i, obj := range b.CreateObjects {
		if err := obj.Validate(); err != nil {
			return Report{}, fmt.Errorf("object %d: %w", i, err)
		}
	}

	now := g.now().UTC()
	rep := Report{Created: []models.Object{}, Scheduled: []models.ScheduledItem{}, Dropped: []ScheduleRequest{}}
	added := make(map[string]models.Object, len(b.CreateObjects))

	for _, obj := range b.CreateObjects {
		obj = obj.Normalized(g.newID(), now)
		created, err := g.model.AddObject(ctx, obj)
		if err != nil {
			return rep, fmt.Errorf("add object %q: %w", obj.GetID(), err)
		}
		added[created.GetID()] = created
		rep.Created = append(rep.Created, created)
	}

	for _, req := range b.ScheduleItems {
		obj, ok := added[req.ObjectID]
		if !ok {
			obj, ok = g.model.Object(req.ObjectID)
		}
		category, err := models.ParseTimeCategory(string(req.TimeCategory))
		if !ok || err != nil || req.Date.IsZero() {
			g.logger.Debug(ctx, "schedule request dropped", "object", req.ObjectID, "date", req.Date.String())
			rep.Dropped = append(rep.Dropped, req)
			continue
		}

		order := g.model.BucketSize(req.Date, category)
		item := models.NewScheduledItem(g.newID(), obj, req.Date, category, order)
		scheduled, err := g.model.AddScheduledItem(ctx, item)
		if err != nil {
			return rep, fmt.Errorf("schedule object %q: %w", req.ObjectID, err)
		}
		rep.Scheduled = append(rep.Scheduled, scheduled)
	}

	g.record(ctx, now, b, rep)
	g.logger.Info(ctx, "batch applied", "created", len(rep.Created), "scheduled", len(rep.Scheduled), "dropped", len(rep.Dropped))
	return rep, nil
}

func (g *Gateway) record(ctx context.Context, now time.Time, b Batch, rep Report) {
	scope := g.model.Scope()
	history := store.LoadScoped(ctx, scope, store.KeyAssistantHistory, []HistoryEntry{})
	history = append(history, HistoryEntry{
		AppliedAt: now,
		Batch:     b,
		Created:   len(rep.Created),
		Scheduled: len(rep.Scheduled),
		Dropped:   len(rep.Dropped),
	})
	if !scope.Save(ctx, store.KeyAssistantHistory, history) {
		g.logger.Warn(ctx, "assistant history not persisted")
	}
}

// History returns the applied batches, oldest first.
func (g *Gateway) History(ctx context.Context) []HistoryEntry {
	return store.LoadScoped(ctx, g.model.Scope(), store.KeyAssistantHistory, []HistoryEntry{})
}
