// Package models holds the planner's domain types shared by the client, the
// server and the wire: the library objects (recipes, workouts, todo lists),
// individual todos, scheduled items and user profiles.
//
// Library objects form a closed sum type. Every variant implements Entity,
// which cannot be implemented outside this package, and code that needs to
// behave per variant does so with a type switch over the four pointer types.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/common"
)

// ObjectType is the JSON discriminant of an Entity.
type ObjectType string

const (
	TypeRecipe         ObjectType = "recipe"
	TypeWorkout        ObjectType = "workout"
	TypeTodoList       ObjectType = "todoList"
	TypeIndividualTodo ObjectType = "individualTodo"
)

// IsLibraryType reports whether t may be stored as a standalone Object.
func (t ObjectType) IsLibraryType() bool {
	switch t {
	case TypeRecipe, TypeWorkout, TypeTodoList:
		return true
	}
	return false
}

// Entity is implemented by *Recipe, *Workout, *TodoList and *IndividualTodo.
type Entity interface {
	Type() ObjectType
	GetID() string
	// Label is the title of library objects and the text of an individual todo.
	Label() string
	Created() time.Time

	clone() Entity
	normalize(id string, now time.Time)
}

type Ingredient struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Amount        float64  `json:"amount"`
	Unit          string   `json:"unit"`
	EstimatedCost *float64 `json:"estimatedCost,omitempty"`
}

type Recipe struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type Exercise struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Sets      int    `json:"sets"`
	Reps      int    `json:"reps"`
	Completed bool   `json:"completed,omitempty"`
}

type Workout struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	BodyGroup string     `json:"bodyGroup,omitempty"`
	Exercises []Exercise `json:"exercises"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type TodoItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type TodoList struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Items     []TodoItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
}

// IndividualTodo only ever lives inside a ScheduledItem.
type IndividualTodo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *Recipe) Type() ObjectType         { return TypeRecipe }
func (w *Workout) Type() ObjectType        { return TypeWorkout }
func (l *TodoList) Type() ObjectType       { return TypeTodoList }
func (t *IndividualTodo) Type() ObjectType { return TypeIndividualTodo }

func (r *Recipe) GetID() string         { return r.ID }
func (w *Workout) GetID() string        { return w.ID }
func (l *TodoList) GetID() string       { return l.ID }
func (t *IndividualTodo) GetID() string { return t.ID }

func (r *Recipe) Label() string         { return r.Title }
func (w *Workout) Label() string        { return w.Title }
func (l *TodoList) Label() string       { return l.Title }
func (t *IndividualTodo) Label() string { return t.Text }

func (r *Recipe) Created() time.Time         { return r.CreatedAt }
func (w *Workout) Created() time.Time        { return w.CreatedAt }
func (l *TodoList) Created() time.Time       { return l.CreatedAt }
func (t *IndividualTodo) Created() time.Time { return t.CreatedAt }

func (r *Recipe) clone() Entity {
	c := *r
	c.Ingredients = cloneSlice(r.Ingredients)
	for i, ing := range c.Ingredients {
		if ing.EstimatedCost != nil {
			cost := *ing.EstimatedCost
			c.Ingredients[i].EstimatedCost = &cost
		}
	}
	c.Instructions = cloneSlice(r.Instructions)
	return &c
}

func (w *Workout) clone() Entity {
	c := *w
	c.Exercises = cloneSlice(w.Exercises)
	return &c
}

func (l *TodoList) clone() Entity {
	c := *l
	c.Items = cloneSlice(l.Items)
	return &c
}

func (t *IndividualTodo) clone() Entity {
	c := *t
	return &c
}

func (r *Recipe) normalize(id string, now time.Time) {
	r.ID, r.CreatedAt = withDefaults(r.ID, r.CreatedAt, id, now)
}

func (w *Workout) normalize(id string, now time.Time) {
	w.ID, w.CreatedAt = withDefaults(w.ID, w.CreatedAt, id, now)
}

func (l *TodoList) normalize(id string, now time.Time) {
	l.ID, l.CreatedAt = withDefaults(l.ID, l.CreatedAt, id, now)
}

func (t *IndividualTodo) normalize(id string, now time.Time) {
	t.ID, t.CreatedAt = withDefaults(t.ID, t.CreatedAt, id, now)
}

func withDefaults(curID string, curCreated time.Time, id string, now time.Time) (string, time.Time) {
	if curID == "" {
		curID = id
	}
	if curCreated.IsZero() {
		curCreated = now
	}
	return curID, curCreated.UTC()
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// MarshalJSON methods add the discriminant next to the variant's fields.

func (r *Recipe) MarshalJSON() ([]byte, error) {
	type alias Recipe
	return json.Marshal(struct {
		Type ObjectType `json:"type"`
		*alias
	}{TypeRecipe, (*alias)(r)})
}

func (w *Workout) MarshalJSON() ([]byte, error) {
	type alias Workout
	return json.Marshal(struct {
		Type ObjectType `json:"type"`
		*alias
	}{TypeWorkout, (*alias)(w)})
}

func (l *TodoList) MarshalJSON() ([]byte, error) {
	type alias TodoList
	return json.Marshal(struct {
		Type ObjectType `json:"type"`
		*alias
	}{TypeTodoList, (*alias)(l)})
}

func (t *IndividualTodo) MarshalJSON() ([]byte, error) {
	type alias IndividualTodo
	return json.Marshal(struct {
		Type ObjectType `json:"type"`
		*alias
	}{TypeIndividualTodo, (*alias)(t)})
}

// Object carries any Entity and owns its JSON encoding.
type Object struct {
	Entity
}

// NewObject wraps e.
func NewObject(e Entity) Object {
	return Object{Entity: e}
}

// IsZero reports whether o carries no entity.
func (o Object) IsZero() bool {
	return o.Entity == nil
}

// Clone returns a deep copy; the copy shares no slices with o.
func (o Object) Clone() Object {
	if o.Entity == nil {
		return Object{}
	}
	return Object{Entity: o.Entity.clone()}
}

// Normalized returns a copy with a missing id replaced by id and a missing
// creation time replaced by now. Timestamps are converted to UTC.
func (o Object) Normalized(id string, now time.Time) Object {
	c := o.Clone()
	if c.Entity != nil {
		c.Entity.normalize(id, now)
	}
	return c
}

// Validate checks the library object invariants: a known library variant
// and a non-empty title.
func (o Object) Validate() error {
	if o.Entity == nil {
		return fmt.Errorf("%w: empty object", common.ErrorValidation)
	}
	if !o.Type().IsLibraryType() {
		return fmt.Errorf("%w: %q cannot be stored as a library object", common.ErrorValidation, o.Type())
	}
	if strings.TrimSpace(o.Label()) == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	return nil
}

func (o Object) MarshalJSON() ([]byte, error) {
	if o.Entity == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Entity)
}

func (o *Object) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		o.Entity = nil
		return nil
	}

	var head struct {
		Type ObjectType `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}

	var e Entity
	switch head.Type {
	case TypeRecipe:
		e = &Recipe{}
	case TypeWorkout:
		e = &Workout{}
	case TypeTodoList:
		e = &TodoList{}
	case TypeIndividualTodo:
		e = &IndividualTodo{}
	default:
		return fmt.Errorf("%w: unknown object type %q", common.ErrorValidation, head.Type)
	}

	if err := json.Unmarshal(b, e); err != nil {
		return err
	}
	o.Entity = e
	return nil
}

// CloneObjects deep-copies a collection.
func CloneObjects(in []Object) []Object {
	if in == nil {
		return nil
	}
	out := make([]Object, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}
