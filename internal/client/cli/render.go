package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrijs2005/weekplanner/internal/client/planner"
	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/dmitrijs2005/weekplanner/internal/timex"
)

const shortIDLen = 8

var (
	dayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	todayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("110")).
			PaddingLeft(2)

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Width(shortIDLen + 2)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			PaddingLeft(4)
)

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// renderWeek draws seven day sections. With details, nested list items and
// exercises are listed under their item.
func renderWeek(w planner.WeekData, today timex.Date, details bool) string {
	var b strings.Builder
	end := w.Start.AddDays(planner.DaysInWeek - 1)
	fmt.Fprintf(&b, "Week %s to %s\n", w.Start, end)

	for _, d := range w.Dates() {
		b.WriteString("\n")
		title := d.Weekday().String()[:3] + " " + d.String()
		if d == today {
			b.WriteString(todayStyle.Render(title+"  today") + "\n")
		} else {
			b.WriteString(dayStyle.Render(title) + "\n")
		}

		items := w.Days[d]
		if len(items) == 0 {
			b.WriteString(emptyStyle.Render("nothing planned") + "\n")
			continue
		}

		var current models.TimeCategory
		for i, it := range items {
			if i == 0 || it.TimeCategory != current {
				current = it.TimeCategory
				b.WriteString(categoryStyle.Render(string(current)) + "\n")
			}
			b.WriteString(renderItem(it, details))
		}
	}
	return b.String()
}

func renderItem(it models.ScheduledItem, details bool) string {
	var b strings.Builder
	label := it.Data.Label()
	if isDone(it.Data) {
		label = doneStyle.Render(label)
	}
	fmt.Fprintf(&b, "    %s%s %s %s\n", idStyle.Render(shortID(it.ID)), progress(it.Data), label, kindStyle.Render(string(it.Data.Type())))
	if details {
		for _, line := range nestedLines(it.Data) {
			b.WriteString("        " + line + "\n")
		}
	}
	return b.String()
}

// progress is a checkbox for a todo and a done/total count for lists and
// workouts.
func progress(o models.Object) string {
	switch e := o.Entity.(type) {
	case *models.IndividualTodo:
		return checkbox(e.Completed)
	case *models.TodoList:
		done := 0
		for _, it := range e.Items {
			if it.Completed {
				done++
			}
		}
		return fmt.Sprintf("%d/%d", done, len(e.Items))
	case *models.Workout:
		done := 0
		for _, ex := range e.Exercises {
			if ex.Completed {
				done++
			}
		}
		return fmt.Sprintf("%d/%d", done, len(e.Exercises))
	}
	return "   "
}

func isDone(o models.Object) bool {
	switch e := o.Entity.(type) {
	case *models.IndividualTodo:
		return e.Completed
	case *models.TodoList:
		if len(e.Items) == 0 {
			return false
		}
		for _, it := range e.Items {
			if !it.Completed {
				return false
			}
		}
		return true
	case *models.Workout:
		if len(e.Exercises) == 0 {
			return false
		}
		for _, ex := range e.Exercises {
			if !ex.Completed {
				return false
			}
		}
		return true
	}
	return false
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func nestedLines(o models.Object) []string {
	var lines []string
	switch e := o.Entity.(type) {
	case *models.TodoList:
		for _, it := range e.Items {
			lines = append(lines, fmt.Sprintf("%s%s %s", idStyle.Render(shortID(it.ID)), checkbox(it.Completed), it.Text))
		}
	case *models.Workout:
		for _, ex := range e.Exercises {
			lines = append(lines, fmt.Sprintf("%s%s %s %dx%d", idStyle.Render(shortID(ex.ID)), checkbox(ex.Completed), ex.Name, ex.Sets, ex.Reps))
		}
	case *models.Recipe:
		for _, in := range e.Ingredients {
			lines = append(lines, "- "+formatIngredient(in))
		}
	}
	return lines
}

// renderObject prints the full content of a library object.
func renderObject(o models.Object) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", dayStyle.Render(o.Label()), kindStyle.Render(string(o.Type())), shortID(o.GetID()))
	fmt.Fprintf(&b, "id: %s\ncreated: %s\n", o.GetID(), o.Created().Format("2006-01-02 15:04"))

	switch e := o.Entity.(type) {
	case *models.Recipe:
		if len(e.Ingredients) > 0 {
			b.WriteString("\nIngredients\n")
			for _, in := range e.Ingredients {
				b.WriteString("  - " + formatIngredient(in) + "\n")
			}
			if cost, ok := recipeCost(e); ok {
				fmt.Fprintf(&b, "  estimated cost: %.2f\n", cost)
			}
		}
		if len(e.Instructions) > 0 {
			b.WriteString("\nSteps\n")
			for i, step := range e.Instructions {
				fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
			}
		}
	case *models.Workout:
		if e.BodyGroup != "" {
			fmt.Fprintf(&b, "body group: %s\n", e.BodyGroup)
		}
		b.WriteString("\nExercises\n")
		for _, ex := range e.Exercises {
			fmt.Fprintf(&b, "  %s%s %dx%d\n", idStyle.Render(shortID(ex.ID)), ex.Name, ex.Sets, ex.Reps)
		}
		if e.Notes != "" {
			b.WriteString("\nNotes\n" + e.Notes + "\n")
		}
	case *models.TodoList:
		b.WriteString("\nItems\n")
		for _, it := range e.Items {
			fmt.Fprintf(&b, "  %s%s %s\n", idStyle.Render(shortID(it.ID)), checkbox(it.Completed), it.Text)
		}
	}
	return b.String()
}

func formatIngredient(in models.Ingredient) string {
	amount := strconv.FormatFloat(in.Amount, 'f', -1, 64)
	parts := []string{amount}
	if in.Unit != "" {
		parts = append(parts, in.Unit)
	}
	parts = append(parts, in.Name)
	return strings.Join(parts, " ")
}

// recipeCost sums the estimated costs; ok is false when no ingredient has one.
func recipeCost(r *models.Recipe) (total float64, ok bool) {
	for _, in := range r.Ingredients {
		if in.EstimatedCost != nil {
			total += *in.EstimatedCost
			ok = true
		}
	}
	return total, ok
}
