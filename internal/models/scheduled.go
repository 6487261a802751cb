package models

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/timex"
)

// TimeCategory is a section of a day. The four built-in categories have a
// fixed rank; any other non-empty value is a user-defined section.
type TimeCategory string

const (
	Morning   TimeCategory = "Morning"
	Afternoon TimeCategory = "Afternoon"
	Evening   TimeCategory = "Evening"
	Night     TimeCategory = "Night"
)

// BuiltinCategories lists the fixed categories in rank order.
var BuiltinCategories = []TimeCategory{Morning, Afternoon, Evening, Night}

var categoryRank = map[TimeCategory]int{
	Morning:   0,
	Afternoon: 1,
	Evening:   2,
	Night:     3,
}

// Rank returns the fixed position of c; user-defined sections share the
// rank after Night.
func (c TimeCategory) Rank() int {
	if r, ok := categoryRank[c]; ok {
		return r
	}
	return len(categoryRank)
}

// CompareCategories orders by rank, then user-defined sections by name.
func CompareCategories(a, b TimeCategory) int {
	if ra, rb := a.Rank(), b.Rank(); ra != rb {
		return ra - rb
	}
	return strings.Compare(string(a), string(b))
}

// ParseTimeCategory accepts the built-in names case-insensitively and keeps
// anything else as a user-defined section.
func ParseTimeCategory(s string) (TimeCategory, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: time category is required", common.ErrorValidation)
	}
	for _, c := range BuiltinCategories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return TimeCategory(s), nil
}

// ScheduledItem places an object (or an individual todo) on a day. Data is a
// snapshot of the object at the time it was last written.
type ScheduledItem struct {
	ID           string       `json:"id"`
	ObjectID     string       `json:"objectId"`
	ObjectType   ObjectType   `json:"objectType"`
	Date         timex.Date   `json:"date"`
	TimeCategory TimeCategory `json:"timeCategory"`
	Order        int          `json:"order"`
	Data         Object       `json:"data"`
}

// NewScheduledItem builds an item whose snapshot is a copy of obj.
func NewScheduledItem(id string, obj Object, date timex.Date, category TimeCategory, order int) ScheduledItem {
	item := ScheduledItem{
		ID:           id,
		Date:         date,
		TimeCategory: category,
		Order:        order,
		Data:         obj.Clone(),
	}
	if !obj.IsZero() {
		item.ObjectID = obj.GetID()
		item.ObjectType = obj.Type()
	}
	return item
}

// Clone deep-copies the item including its snapshot.
func (s ScheduledItem) Clone() ScheduledItem {
	s.Data = s.Data.Clone()
	return s
}

func (s ScheduledItem) Validate() error {
	if s.Data.IsZero() {
		return fmt.Errorf("%w: scheduled item %q has no data", common.ErrorValidation, s.ID)
	}
	if s.Date.IsZero() {
		return fmt.Errorf("%w: scheduled item %q has no date", common.ErrorValidation, s.ID)
	}
	if strings.TrimSpace(string(s.TimeCategory)) == "" {
		return fmt.Errorf("%w: scheduled item %q has no time category", common.ErrorValidation, s.ID)
	}
	return nil
}

// CompareScheduled orders items of one day: category rank first, then order.
func CompareScheduled(a, b ScheduledItem) int {
	if c := CompareCategories(a.TimeCategory, b.TimeCategory); c != 0 {
		return c
	}
	return cmp.Compare(a.Order, b.Order)
}

// CloneScheduledItems deep-copies a collection.
func CloneScheduledItems(in []ScheduledItem) []ScheduledItem {
	if in == nil {
		return nil
	}
	out := make([]ScheduledItem, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
