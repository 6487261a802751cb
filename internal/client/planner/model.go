// Package planner is the in-memory entity model of one user: the library of
// objects, the scheduled items placed on days, and the derived week view.
//
// Every mutation goes through Model, which keeps scheduled snapshots in step
// with their library object and writes the affected collection to the local
// store before returning.
package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/client/store"
	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/logging"
	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/dmitrijs2005/weekplanner/internal/timex"
	"github.com/google/uuid"
)

type Model struct {
	mu      sync.RWMutex
	scope   store.Scope
	logger  logging.Logger
	objects []models.Object
	items   []models.ScheduledItem

	newID func() string
	now   func() time.Time
}

// New returns an empty model bound to scope.
func New(scope store.Scope, logger logging.Logger) *Model {
	return &Model{
		scope:  scope,
		logger: logger.With("module", "planner", "user", scope.UserID()),
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// Load returns a model populated from the store. Unreadable collections
// start empty.
func Load(ctx context.Context, scope store.Scope, logger logging.Logger) *Model {
	m := New(scope, logger)
	m.objects = dropEmptyObjects(store.LoadScoped(ctx, scope, store.KeyObjects, []models.Object{}))
	m.items = dropEmptyItems(store.LoadScoped(ctx, scope, store.KeyScheduledItems, []models.ScheduledItem{}))
	m.logger.Debug(ctx, "model loaded", "objects", len(m.objects), "items", len(m.items))
	return m
}

func (m *Model) Scope() store.Scope { return m.scope }
func (m *Model) UserID() string     { return m.scope.UserID() }

// Objects returns a copy of the library.
func (m *Model) Objects() []models.Object {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.CloneObjects(m.objects)
}

// ScheduledItems returns a copy of every scheduled item.
func (m *Model) ScheduledItems() []models.ScheduledItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.CloneScheduledItems(m.items)
}

func (m *Model) Object(id string) (models.Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.objectIndex(id); i >= 0 {
		return m.objects[i].Clone(), true
	}
	return models.Object{}, false
}

func (m *Model) ScheduledItem(id string) (models.ScheduledItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.itemIndex(id); i >= 0 {
		return m.items[i].Clone(), true
	}
	return models.ScheduledItem{}, false
}

// AddObject appends obj to the library. Duplicate ids are not checked.
// A missing id or creation time is filled in.
func (m *Model) AddObject(ctx context.Context, obj models.Object) (models.Object, error) {
	if err := obj.Validate(); err != nil {
		return models.Object{}, err
	}
	obj = obj.Normalized(m.newID(), m.now())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects = append(m.objects, obj)
	m.persistObjects(ctx)
	return obj.Clone(), nil
}

// UpdateObject replaces the object with the given id and rewrites the
// snapshot of every scheduled item that references it. Date, category and
// order of those items are kept.
func (m *Model) UpdateObject(ctx context.Context, id string, obj models.Object) error {
	if err := obj.Validate(); err != nil {
		return err
	}
	if obj.GetID() != id {
		return fmt.Errorf("%w: object id %q does not match %q", common.ErrorValidation, obj.GetID(), id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.objectIndex(id)
	if i < 0 {
		return fmt.Errorf("object %q: %w", id, common.ErrorNotFound)
	}

	obj = obj.Normalized(id, m.objects[i].Created())
	m.objects[i] = obj

	touched := 0
	for j := range m.items {
		if m.items[j].ObjectID == id && m.items[j].ObjectType != models.TypeIndividualTodo {
			m.items[j].Data = obj.Clone()
			m.items[j].ObjectType = obj.Type()
			touched++
		}
	}

	m.persistObjects(ctx)
	if touched > 0 {
		m.persistItems(ctx)
	}
	return nil
}

// DeleteObject removes the object and every scheduled item built from it.
func (m *Model) DeleteObject(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.objectIndex(id)
	if i < 0 {
		return fmt.Errorf("object %q: %w", id, common.ErrorNotFound)
	}
	m.objects = append(m.objects[:i:i], m.objects[i+1:]...)

	kept := m.items[:0:0]
	for _, it := range m.items {
		if it.ObjectID == id && it.ObjectType != models.TypeIndividualTodo {
			continue
		}
		kept = append(kept, it)
	}
	removed := len(m.items) - len(kept)
	m.items = kept

	m.persistObjects(ctx)
	if removed > 0 {
		m.persistItems(ctx)
	}
	m.logger.Debug(ctx, "object deleted", "id", id, "cascaded", removed)
	return nil
}

// AddScheduledItem appends item as given; a missing id is generated.
func (m *Model) AddScheduledItem(ctx context.Context, item models.ScheduledItem) (models.ScheduledItem, error) {
	if err := item.Validate(); err != nil {
		return models.ScheduledItem{}, err
	}
	item = item.Clone()
	if item.ID == "" {
		item.ID = m.newID()
	}
	if item.ObjectType == "" {
		item.ObjectType = item.Data.Type()
	}
	if item.ObjectID == "" {
		item.ObjectID = item.Data.GetID()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = append(m.items, item)
	m.persistItems(ctx)
	return item.Clone(), nil
}

// ScheduleObject places a library object at the end of the date+category
// bucket.
func (m *Model) ScheduleObject(ctx context.Context, objectID string, date timex.Date, category models.TimeCategory) (models.ScheduledItem, error) {
	obj, ok := m.Object(objectID)
	if !ok {
		return models.ScheduledItem{}, fmt.Errorf("object %q: %w", objectID, common.ErrorNotFound)
	}
	item := models.NewScheduledItem(m.newID(), obj, date, category, m.NextOrder(date, category))
	return m.AddScheduledItem(ctx, item)
}

// ScheduleTodo places a new individual todo at the end of the bucket.
func (m *Model) ScheduleTodo(ctx context.Context, text string, date timex.Date, category models.TimeCategory) (models.ScheduledItem, error) {
	if text == "" {
		return models.ScheduledItem{}, fmt.Errorf("%w: todo text is required", common.ErrorValidation)
	}
	todo := models.NewObject(&models.IndividualTodo{Text: text}).Normalized(m.newID(), m.now())
	item := models.NewScheduledItem(m.newID(), todo, date, category, m.NextOrder(date, category))
	return m.AddScheduledItem(ctx, item)
}

// ItemPatch lists the fields of a scheduled item that may be moved. Nil
// fields are left alone.
type ItemPatch struct {
	Date         *timex.Date
	TimeCategory *models.TimeCategory
	Order        *int
}

// UpdateScheduledItem applies patch to one item. Other items are untouched.
func (m *Model) UpdateScheduledItem(ctx context.Context, id string, patch ItemPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.itemIndex(id)
	if i < 0 {
		return fmt.Errorf("scheduled item %q: %w", id, common.ErrorNotFound)
	}

	updated := m.items[i]
	if patch.Date != nil {
		updated.Date = *patch.Date
	}
	if patch.TimeCategory != nil {
		updated.TimeCategory = *patch.TimeCategory
	}
	if patch.Order != nil {
		updated.Order = *patch.Order
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	m.items[i] = updated
	m.persistItems(ctx)
	return nil
}

func (m *Model) DeleteScheduledItem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.itemIndex(id)
	if i < 0 {
		return fmt.Errorf("scheduled item %q: %w", id, common.ErrorNotFound)
	}
	m.items = append(m.items[:i:i], m.items[i+1:]...)
	m.persistItems(ctx)
	return nil
}

// ToggleItemCompletion flips a completion flag inside the snapshot of a
// scheduled item. An individual todo flips itself and takes no nested id.
// Todo lists and workouts flip the item or exercise whose id is nestedID.
// When nothing matches, the data is left as it was and ErrorNotFound is
// returned.
func (m *Model) ToggleItemCompletion(ctx context.Context, scheduledID, nestedID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.itemIndex(scheduledID)
	if i < 0 {
		return fmt.Errorf("scheduled item %q: %w", scheduledID, common.ErrorNotFound)
	}

	data := m.items[i].Data.Clone()
	switch e := data.Entity.(type) {
	case *models.IndividualTodo:
		if nestedID != "" && nestedID != e.ID {
			return fmt.Errorf("todo %q has no nested item %q: %w", e.ID, nestedID, common.ErrorNotFound)
		}
		e.Completed = !e.Completed
	case *models.TodoList:
		j := indexOf(e.Items, func(it models.TodoItem) bool { return it.ID == nestedID })
		if j < 0 {
			return fmt.Errorf("todo list %q item %q: %w", e.ID, nestedID, common.ErrorNotFound)
		}
		e.Items[j].Completed = !e.Items[j].Completed
	case *models.Workout:
		j := indexOf(e.Exercises, func(ex models.Exercise) bool { return ex.ID == nestedID })
		if j < 0 {
			return fmt.Errorf("workout %q exercise %q: %w", e.ID, nestedID, common.ErrorNotFound)
		}
		e.Exercises[j].Completed = !e.Exercises[j].Completed
	case *models.Recipe:
		return fmt.Errorf("%w: recipes have nothing to complete", common.ErrorValidation)
	default:
		return fmt.Errorf("%w: scheduled item %q has no data", common.ErrorValidation, scheduledID)
	}

	m.items[i].Data = data
	m.persistItems(ctx)
	return nil
}

// NextOrder is one past the highest order used in the date+category bucket.
func (m *Model) NextOrder(date timex.Date, category models.TimeCategory) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	next := 0
	for _, it := range m.items {
		if it.Date == date && it.TimeCategory == category && it.Order >= next {
			next = it.Order + 1
		}
	}
	return next
}

// BucketSize counts the items already placed in a date+category bucket.
func (m *Model) BucketSize(date timex.Date, category models.TimeCategory) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, it := range m.items {
		if it.Date == date && it.TimeCategory == category {
			n++
		}
	}
	return n
}

// Replace swaps both collections at once and persists them. Readers never
// see one collection replaced without the other.
func (m *Model) Replace(ctx context.Context, objects []models.Object, items []models.ScheduledItem) {
	objects = dropEmptyObjects(models.CloneObjects(objects))
	items = dropEmptyItems(models.CloneScheduledItems(items))

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects = objects
	m.items = items
	m.persistObjects(ctx)
	m.persistItems(ctx)
}

// CurrentWeekStart is the Monday the user last looked at, or the current
// week when nothing was saved.
func (m *Model) CurrentWeekStart(ctx context.Context) timex.Date {
	def := timex.DateOf(m.now()).WeekStart()
	return store.LoadScoped(ctx, m.scope, store.KeyCurrentWeekStart, def).WeekStart()
}

func (m *Model) SetCurrentWeekStart(ctx context.Context, d timex.Date) {
	m.scope.Save(ctx, store.KeyCurrentWeekStart, d.WeekStart())
}

func (m *Model) persistObjects(ctx context.Context) {
	if !m.scope.Save(ctx, store.KeyObjects, m.objects) {
		m.logger.Warn(ctx, "objects not persisted")
	}
}

func (m *Model) persistItems(ctx context.Context) {
	if !m.scope.Save(ctx, store.KeyScheduledItems, m.items) {
		m.logger.Warn(ctx, "scheduled items not persisted")
	}
}

func (m *Model) objectIndex(id string) int {
	return indexOf(m.objects, func(o models.Object) bool { return o.GetID() == id })
}

func (m *Model) itemIndex(id string) int {
	return indexOf(m.items, func(it models.ScheduledItem) bool { return it.ID == id })
}

func dropEmptyObjects(in []models.Object) []models.Object {
	out := make([]models.Object, 0, len(in))
	for _, o := range in {
		if !o.IsZero() {
			out = append(out, o)
		}
	}
	return out
}

func dropEmptyItems(in []models.ScheduledItem) []models.ScheduledItem {
	out := make([]models.ScheduledItem, 0, len(in))
	for _, it := range in {
		if !it.Data.IsZero() {
			out = append(out, it)
		}
	}
	return out
}

func indexOf[T any](s []T, match func(T) bool) int {
	for i := range s {
		if match(s[i]) {
			return i
		}
	}
	return -1
}
