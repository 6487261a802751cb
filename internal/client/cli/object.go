package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/jsonc"

	"github.com/dmitrijs2005/weekplanner/internal/client/planner"
	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/models"
)

type ObjectCmd struct {
	Add    ObjectAddCmd    `cmd:"" help:"Add an object to the library."`
	List   ObjectListCmd   `cmd:"" aliases:"ls" help:"List library objects."`
	Show   ObjectShowCmd   `cmd:"" help:"Show one object."`
	Rename ObjectRenameCmd `cmd:"" help:"Change the title of an object."`
	Import ObjectImportCmd `cmd:"" help:"Add or replace objects from a JSON file."`
	Delete ObjectDeleteCmd `cmd:"" aliases:"rm" help:"Delete an object and everything scheduled from it."`
}

type ObjectAddCmd struct {
	Recipe  AddRecipeCmd  `cmd:"" help:"Add a recipe."`
	Workout AddWorkoutCmd `cmd:"" help:"Add a workout."`
	List    AddListCmd    `cmd:"" help:"Add a todo list."`
}

type AddRecipeCmd struct {
	Title       string   `arg:"" help:"Recipe title."`
	Ingredients []string `short:"i" name:"ingredient" sep:"none" help:"Ingredient as \"amount [unit] name [@cost]\". Repeatable."`
	Steps       []string `short:"s" name:"step" sep:"none" help:"Instruction step. Repeatable."`
}

func (c *AddRecipeCmd) Run(app *App, ctx context.Context) error {
	r := &models.Recipe{Title: c.Title, Instructions: c.Steps}
	for _, s := range c.Ingredients {
		in, err := parseIngredient(s)
		if err != nil {
			return err
		}
		r.Ingredients = append(r.Ingredients, in)
	}
	return app.addObject(ctx, models.NewObject(r))
}

type AddWorkoutCmd struct {
	Title     string   `arg:"" help:"Workout title."`
	BodyGroup string   `short:"b" help:"Body group trained."`
	Exercises []string `short:"e" name:"exercise" sep:"none" help:"Exercise as \"name SETSxREPS\". Repeatable."`
	Notes     string   `help:"Free-form notes; \"-\" reads them from stdin."`
}

func (c *AddWorkoutCmd) Run(app *App, ctx context.Context) error {
	w := &models.Workout{Title: c.Title, BodyGroup: c.BodyGroup, Notes: c.Notes}
	for _, s := range c.Exercises {
		ex, err := parseExercise(s)
		if err != nil {
			return err
		}
		w.Exercises = append(w.Exercises, ex)
	}
	if c.Notes == "-" {
		notes, err := GetMultiline(app.in, "Notes", app.out)
		if err != nil {
			return err
		}
		w.Notes = notes
	}
	return app.addObject(ctx, models.NewObject(w))
}

type AddListCmd struct {
	Title string   `arg:"" help:"List title."`
	Items []string `short:"i" name:"item" sep:"none" help:"List item. Repeatable; prompted for when omitted."`
}

func (c *AddListCmd) Run(app *App, ctx context.Context) error {
	texts := c.Items
	if len(texts) == 0 {
		var err error
		if texts, err = GetLines(app.in, "Items, one per line", app.out); err != nil {
			return err
		}
	}
	l := &models.TodoList{Title: c.Title, Items: []models.TodoItem{}}
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			l.Items = append(l.Items, models.TodoItem{ID: uuid.NewString(), Text: t})
		}
	}
	return app.addObject(ctx, models.NewObject(l))
}

func (a *App) addObject(ctx context.Context, obj models.Object) error {
	m, err := a.Model(ctx)
	if err != nil {
		return err
	}
	added, err := m.AddObject(ctx, obj)
	if err != nil {
		return err
	}
	a.printf("Added %s %q (%s)\n", added.Type(), added.Label(), shortID(added.GetID()))
	return nil
}

type ObjectListCmd struct {
	Type string `short:"t" help:"Only objects of this type (recipe, workout, todoList)."`
}

func (c *ObjectListCmd) Validate() error {
	if c.Type != "" && !models.ObjectType(c.Type).IsLibraryType() {
		return fmt.Errorf("unknown object type %q", c.Type)
	}
	return nil
}

func (c *ObjectListCmd) Run(app *App, ctx context.Context) error {
	m, err := app.Model(ctx)
	if err != nil {
		return err
	}
	n := 0
	for _, o := range m.Objects() {
		if c.Type != "" && string(o.Type()) != c.Type {
			continue
		}
		app.printf("%s%-10s %s\n", idStyle.Render(shortID(o.GetID())), o.Type(), o.Label())
		n++
	}
	if n == 0 {
		app.println("No objects")
	}
	return nil
}

type ObjectShowCmd struct {
	ID string `arg:"" help:"Object id or unique prefix."`
}

func (c *ObjectShowCmd) Run(app *App, ctx context.Context) error {
	m, obj, err := app.findObject(ctx, c.ID)
	if err != nil {
		return err
	}
	app.printf("%s", renderObject(obj))

	uses := 0
	for _, it := range m.ScheduledItems() {
		if it.ObjectID == obj.GetID() {
			uses++
		}
	}
	app.printf("scheduled: %d time(s)\n", uses)
	return nil
}

type ObjectRenameCmd struct {
	ID    string `arg:"" help:"Object id or unique prefix."`
	Title string `arg:"" help:"New title."`
}

func (c *ObjectRenameCmd) Run(app *App, ctx context.Context) error {
	m, obj, err := app.findObject(ctx, c.ID)
	if err != nil {
		return err
	}
	renamed := obj.Clone()
	switch e := renamed.Entity.(type) {
	case *models.Recipe:
		e.Title = c.Title
	case *models.Workout:
		e.Title = c.Title
	case *models.TodoList:
		e.Title = c.Title
	}
	if err := m.UpdateObject(ctx, obj.GetID(), renamed); err != nil {
		return err
	}
	app.printf("Renamed %s to %q\n", shortID(obj.GetID()), c.Title)
	return nil
}

type ObjectImportCmd struct {
	File string `arg:"" type:"existingfile" help:"JSON file holding one object or an array of objects."`
}

func (c *ObjectImportCmd) Run(app *App, ctx context.Context) error {
	m, err := app.Model(ctx)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	objects, err := decodeObjects(data)
	if err != nil {
		return err
	}

	added, replaced := 0, 0
	for _, o := range objects {
		if _, exists := m.Object(o.GetID()); exists && o.GetID() != "" {
			if err := m.UpdateObject(ctx, o.GetID(), o); err != nil {
				return err
			}
			replaced++
			continue
		}
		if _, err := m.AddObject(ctx, o); err != nil {
			return err
		}
		added++
	}
	app.printf("Imported %d object(s): %d added, %d replaced\n", len(objects), added, replaced)
	return nil
}

type ObjectDeleteCmd struct {
	ID string `arg:"" help:"Object id or unique prefix."`
}

func (c *ObjectDeleteCmd) Run(app *App, ctx context.Context) error {
	m, obj, err := app.findObject(ctx, c.ID)
	if err != nil {
		return err
	}
	if err := m.DeleteObject(ctx, obj.GetID()); err != nil {
		return err
	}
	app.printf("Deleted %s %q\n", obj.Type(), obj.Label())
	return nil
}

func (a *App) findObject(ctx context.Context, prefix string) (*planner.Model, models.Object, error) {
	m, err := a.Model(ctx)
	if err != nil {
		return nil, models.Object{}, err
	}
	objects := m.Objects()
	ids := make([]string, len(objects))
	for i, o := range objects {
		ids[i] = o.GetID()
	}
	id, err := resolveID("object", prefix, ids)
	if err != nil {
		return nil, models.Object{}, err
	}
	obj, _ := m.Object(id)
	return m, obj, nil
}

// decodeObjects accepts a single object or an array. Comments are allowed.
func decodeObjects(data []byte) ([]models.Object, error) {
	data = jsonc.ToJSON(data)
	trimmed := strings.TrimSpace(string(data))

	var objects []models.Object
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &objects); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
	} else {
		var o models.Object
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
		objects = append(objects, o)
	}
	for _, o := range objects {
		if err := o.Validate(); err != nil {
			return nil, err
		}
	}
	return objects, nil
}

// parseIngredient reads "2 cup flour", "3 eggs" or "salt", each optionally
// followed by "@cost".
func parseIngredient(s string) (models.Ingredient, error) {
	in := models.Ingredient{ID: uuid.NewString()}

	if at := strings.LastIndex(s, "@"); at >= 0 {
		cost, err := strconv.ParseFloat(strings.TrimSpace(s[at+1:]), 64)
		if err != nil {
			return models.Ingredient{}, fmt.Errorf("%w: invalid cost in %q", common.ErrorValidation, s)
		}
		in.EstimatedCost = &cost
		s = s[:at]
	}

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return models.Ingredient{}, fmt.Errorf("%w: empty ingredient", common.ErrorValidation)
	}
	if amount, err := strconv.ParseFloat(fields[0], 64); err == nil {
		in.Amount = amount
		fields = fields[1:]
		if len(fields) >= 2 {
			in.Unit = fields[0]
			fields = fields[1:]
		}
	}
	if len(fields) == 0 {
		return models.Ingredient{}, fmt.Errorf("%w: ingredient %q has no name", common.ErrorValidation, s)
	}
	in.Name = strings.Join(fields, " ")
	return in, nil
}

var setsReps = regexp.MustCompile(`^(\d+)x(\d+)$`)

// parseExercise reads "Back squat 3x10". Without a SETSxREPS suffix the
// exercise is a single set of one.
func parseExercise(s string) (models.Exercise, error) {
	ex := models.Exercise{ID: uuid.NewString(), Sets: 1, Reps: 1}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return models.Exercise{}, fmt.Errorf("%w: empty exercise", common.ErrorValidation)
	}
	if m := setsReps.FindStringSubmatch(fields[len(fields)-1]); m != nil {
		ex.Sets, _ = strconv.Atoi(m[1])
		ex.Reps, _ = strconv.Atoi(m[2])
		fields = fields[:len(fields)-1]
	}
	if len(fields) == 0 {
		return models.Exercise{}, fmt.Errorf("%w: exercise %q has no name", common.ErrorValidation, s)
	}
	ex.Name = strings.Join(fields, " ")
	return ex, nil
}
