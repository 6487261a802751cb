package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/dbx"
	"github.com/dmitrijs2005/weekplanner/internal/models"
	smodels "github.com/dmitrijs2005/weekplanner/internal/server/models"
	"github.com/dmitrijs2005/weekplanner/internal/server/repositories/records"
	"github.com/dmitrijs2005/weekplanner/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// document describes how one collection maps its values onto records.
type document[T any] struct {
	table    records.Table
	id       func(T) string
	validate func(T) error
	// prepare fills a missing id and creation time.
	prepare func(v T, id string, now time.Time) T
	// created is the record's ordering timestamp.
	created func(v T, now time.Time) time.Time
}

var objectDocs = document[models.Object]{
	table:    records.Objects,
	id:       func(o models.Object) string { return o.GetID() },
	validate: models.Object.Validate,
	prepare:  models.Object.Normalized,
	created:  func(o models.Object, _ time.Time) time.Time { return o.Created() },
}

var scheduledDocs = document[models.ScheduledItem]{
	table: records.WeekObjects,
	id:    func(s models.ScheduledItem) string { return s.ID },
	validate: func(s models.ScheduledItem) error {
		return s.Validate()
	},
	prepare: func(s models.ScheduledItem, id string, _ time.Time) models.ScheduledItem {
		if s.ID == "" {
			s.ID = id
		}
		return s
	},
	created: func(_ models.ScheduledItem, now time.Time) time.Time { return now },
}

// CollectionService serves the library and the schedule of each user.
type CollectionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager

	now   func() time.Time
	newID func() string
}

func NewCollectionService(db *sql.DB, m repomanager.RepositoryManager) *CollectionService {
	return &CollectionService{
		db:          db,
		repomanager: m,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

func (s *CollectionService) ListObjects(ctx context.Context, userID string) ([]models.Object, error) {
	return list(ctx, s, objectDocs, userID)
}

func (s *CollectionService) CreateObject(ctx context.Context, userID string, obj models.Object) (models.Object, error) {
	return create(ctx, s, objectDocs, userID, obj)
}

func (s *CollectionService) UpdateObject(ctx context.Context, userID, id string, obj models.Object) (models.Object, error) {
	if obj.IsZero() {
		return models.Object{}, fmt.Errorf("%w: empty object", common.ErrorValidation)
	}
	return update(ctx, s, objectDocs, userID, id, obj)
}

func (s *CollectionService) DeleteObject(ctx context.Context, userID, id string) error {
	return s.repomanager.Records(s.db, records.Objects).Delete(ctx, userID, id)
}

func (s *CollectionService) ReplaceObjects(ctx context.Context, userID string, objects []models.Object) (int, error) {
	return replace(ctx, s, objectDocs, userID, objects)
}

func (s *CollectionService) ListScheduledItems(ctx context.Context, userID string) ([]models.ScheduledItem, error) {
	return list(ctx, s, scheduledDocs, userID)
}

func (s *CollectionService) CreateScheduledItem(ctx context.Context, userID string, item models.ScheduledItem) (models.ScheduledItem, error) {
	return create(ctx, s, scheduledDocs, userID, item)
}

func (s *CollectionService) UpdateScheduledItem(ctx context.Context, userID, id string, item models.ScheduledItem) (models.ScheduledItem, error) {
	return update(ctx, s, scheduledDocs, userID, id, item)
}

func (s *CollectionService) DeleteScheduledItem(ctx context.Context, userID, id string) error {
	return s.repomanager.Records(s.db, records.WeekObjects).Delete(ctx, userID, id)
}

func (s *CollectionService) ReplaceScheduledItems(ctx context.Context, userID string, items []models.ScheduledItem) (int, error) {
	return replace(ctx, s, scheduledDocs, userID, items)
}

func list[T any](ctx context.Context, s *CollectionService, d document[T], userID string) ([]T, error) {
	recs, err := s.repomanager.Records(s.db, d.table).List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := json.Unmarshal(rec.Data, &v); err != nil {
			return nil, fmt.Errorf("%w: decode %s %q: %v", common.ErrorInternal, d.table, rec.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func create[T any](ctx context.Context, s *CollectionService, d document[T], userID string, v T) (T, error) {
	var zero T
	if err := d.validate(v); err != nil {
		return zero, err
	}
	now := s.now().UTC()
	v = d.prepare(v, s.newID(), now)

	rec, err := toRecord(d, userID, v, now)
	if err != nil {
		return zero, err
	}
	if err := s.repomanager.Records(s.db, d.table).Create(ctx, rec); err != nil {
		return zero, err
	}
	return v, nil
}

// update replaces the stored value under id. A body carrying no id takes the
// one from the path; a different id is rejected.
func update[T any](ctx context.Context, s *CollectionService, d document[T], userID, id string, v T) (T, error) {
	var zero T
	now := s.now().UTC()
	v = d.prepare(v, id, now)
	if got := d.id(v); got != id {
		return zero, fmt.Errorf("%w: body id %q does not match %q", common.ErrorValidation, got, id)
	}
	if err := d.validate(v); err != nil {
		return zero, err
	}

	rec, err := toRecord(d, userID, v, now)
	if err != nil {
		return zero, err
	}
	if err := s.repomanager.Records(s.db, d.table).Update(ctx, rec); err != nil {
		return zero, err
	}
	return v, nil
}

// replace swaps the user's whole collection for values in one transaction.
// Every value is validated before anything is written; any failure leaves
// the previous collection in place.
func replace[T any](ctx context.Context, s *CollectionService, d document[T], userID string, values []T) (int, error) {
	now := s.now().UTC()
	recs := make([]*smodels.Record, 0, len(values))
	for i, v := range values {
		if err := d.validate(v); err != nil {
			return 0, fmt.Errorf("%s[%d]: %w", d.table, i, err)
		}
		rec, err := toRecord(d, userID, d.prepare(v, s.newID(), now), now)
		if err != nil {
			return 0, err
		}
		recs = append(recs, rec)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Records(tx, d.table)
		if _, err := repo.DeleteAllForUser(ctx, userID); err != nil {
			return err
		}
		for _, rec := range recs {
			if err := repo.Create(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

func toRecord[T any](d document[T], userID string, v T, now time.Time) (*smodels.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", common.ErrorInternal, d.table, err)
	}
	created := d.created(v, now)
	if created.IsZero() {
		created = now
	}
	return &smodels.Record{ID: d.id(v), UserID: userID, Data: data, CreatedAt: created}, nil
}
