// Package httpapi exposes the planner services over HTTP with fiber.
//
// Every route except the probes, /metrics and the register/login pair
// requires an "Authorization: Bearer <token>" header. Errors are reported as
// a JSON body of the form
//
//	{"status":404,"message":"...","ok":false,"type":"not_found","timestamp":"...","url":"..."}
package httpapi

import (
	"context"
	"io"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/dmitrijs2005/weekplanner/internal/logging"
	"github.com/dmitrijs2005/weekplanner/internal/models"
	"github.com/dmitrijs2005/weekplanner/internal/server/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Accounts interface {
	Register(ctx context.Context, email, password, name string) (models.AuthResponse, error)
	Login(ctx context.Context, email, password string) (models.AuthResponse, error)
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
	Profile(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, userID, name string) (models.User, error)
	ChangePassword(ctx context.Context, id auth.Identity, current, next string) error
	Logout(ctx context.Context, id auth.Identity) error
}

type Collections interface {
	ListObjects(ctx context.Context, userID string) ([]models.Object, error)
	CreateObject(ctx context.Context, userID string, obj models.Object) (models.Object, error)
	UpdateObject(ctx context.Context, userID, id string, obj models.Object) (models.Object, error)
	DeleteObject(ctx context.Context, userID, id string) error
	ReplaceObjects(ctx context.Context, userID string, objects []models.Object) (int, error)

	ListScheduledItems(ctx context.Context, userID string) ([]models.ScheduledItem, error)
	CreateScheduledItem(ctx context.Context, userID string, item models.ScheduledItem) (models.ScheduledItem, error)
	UpdateScheduledItem(ctx context.Context, userID, id string, item models.ScheduledItem) (models.ScheduledItem, error)
	DeleteScheduledItem(ctx context.Context, userID, id string) error
	ReplaceScheduledItems(ctx context.Context, userID string, items []models.ScheduledItem) (int, error)
}

type Backups interface {
	PresignBackup(ctx context.Context, userID string) (models.BackupTarget, error)
}

// Pinger reports database reachability; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Accounts    Accounts
	Collections Collections
	Backups     Backups
	DB          Pinger
	Logger      logging.Logger
	// AccessLog receives one line per request. Nil disables the access log.
	AccessLog io.Writer
	// Metrics registers the Prometheus middleware and /metrics.
	Metrics bool
}

// New builds the fiber application with every route mounted.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "weekplanner",
		ErrorHandler:          errorHandler(d.Logger),
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		BodyLimit:             8 << 20,
	})

	app.Use(recover.New())
	if d.AccessLog != nil {
		app.Use(logger.New(logger.Config{Output: d.AccessLog}))
	}
	app.Use(compress.New())

	if d.Metrics {
		prometheus := fiberprometheus.New("weekplanner")
		prometheus.RegisterAt(app, "/metrics")
		app.Use(prometheus.Middleware)
	}

	h := &handlers{Deps: d}

	app.Get("/health", h.health)
	app.Get("/live", h.live)
	app.Get("/ready", h.ready)

	authn := requireAuth(d.Accounts)

	a := app.Group("/auth")
	a.Post("/register", h.register)
	a.Post("/login", h.login)
	a.Get("/verify", authn, h.verify)
	a.Put("/profile", authn, h.updateProfile)
	a.Put("/password", authn, h.changePassword)
	a.Post("/logout", authn, h.logout)

	o := app.Group("/objects", authn)
	o.Get("", h.listObjects)
	o.Post("", h.createObject)
	o.Post("/bulk-sync", h.replaceObjects)
	o.Put("/:id", h.updateObject)
	o.Delete("/:id", h.deleteObject)

	w := app.Group("/week-objects", authn)
	w.Get("", h.listScheduledItems)
	w.Post("", h.createScheduledItem)
	w.Post("/bulk-sync", h.replaceScheduledItems)
	w.Put("/:id", h.updateScheduledItem)
	w.Delete("/:id", h.deleteScheduledItem)

	app.Post("/backups/presign", authn, h.presignBackup)

	app.Use(func(c *fiber.Ctx) error {
		return writeError(c, fiber.StatusNotFound, "[404] Resource Not Found", "not_found")
	})

	return app
}

type handlers struct {
	Deps
}
