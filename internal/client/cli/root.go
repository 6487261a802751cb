package cli

import (
	"time"

	"github.com/alecthomas/kong"

	"github.com/dmitrijs2005/weekplanner/internal/client/config"
)

// Globals are the flags accepted by every command.
type Globals struct {
	Config  string           `help:"JSON config file (comments allowed)." short:"c" type:"path" env:"WEEKPLANNER_CONFIG"`
	Server  string           `help:"Remote service base URL." env:"WEEKPLANNER_SERVER"`
	DataDir string           `help:"Directory holding the local store and logs." type:"path" env:"WEEKPLANNER_DATA_DIR"`
	Timeout time.Duration    `help:"Per-request timeout for remote calls." env:"WEEKPLANNER_TIMEOUT"`
	Debug   bool             `help:"Mirror the log to stderr at debug level." env:"WEEKPLANNER_DEBUG"`
	Version kong.VersionFlag `help:"Print version and exit."`
}

// Overrides hands the command line settings to config.Load.
func (g Globals) Overrides() config.Overrides {
	return config.Overrides{
		ServerURL:      g.Server,
		DataDir:        g.DataDir,
		RequestTimeout: g.Timeout,
		Debug:          g.Debug,
	}
}

type CLI struct {
	Globals

	Register RegisterCmd `cmd:"" help:"Create an account."`
	Login    LoginCmd    `cmd:"" help:"Sign in."`
	Logout   LogoutCmd   `cmd:"" help:"Sign out and forget the cached session."`
	Whoami   WhoamiCmd   `cmd:"" help:"Show the signed-in user and connection mode."`
	Profile  ProfileCmd  `cmd:"" help:"Change the display name."`
	Passwd   PasswdCmd   `cmd:"" help:"Change the password."`

	Week       WeekCmd       `cmd:"" default:"withargs" help:"Show a week."`
	Object     ObjectCmd     `cmd:"" help:"Manage the object library."`
	Schedule   ScheduleCmd   `cmd:"" help:"Place a library object on a day."`
	Todo       TodoCmd       `cmd:"" help:"Place a one-off todo on a day."`
	Move       MoveCmd       `cmd:"" help:"Move a scheduled item."`
	Unschedule UnscheduleCmd `cmd:"" help:"Remove a scheduled item."`
	Toggle     ToggleCmd     `cmd:"" help:"Toggle completion of a todo, list item or exercise."`

	Sync    SyncCmd    `cmd:"" help:"Copy collections to or from the remote service."`
	Apply   ApplyCmd   `cmd:"" help:"Apply an assistant batch from a JSON file."`
	History HistoryCmd `cmd:"" help:"List applied assistant batches."`
}

// Options are the kong settings shared by the binary and the tests.
func Options(version string) []kong.Option {
	return []kong.Option{
		kong.Name("weekplanner"),
		kong.Description("Plan a week of recipes, workouts and todos, online or offline."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": version},
	}
}
