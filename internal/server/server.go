// Package server exposes the drive over HTTP.
package server

import (
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nimbusdrive/nimbus/internal/auth"
	"github.com/nimbusdrive/nimbus/pkg/content"
	"github.com/nimbusdrive/nimbus/pkg/drive"
	"github.com/nimbusdrive/nimbus/pkg/hierarchy"
	"github.com/nimbusdrive/nimbus/pkg/metrics"
	"github.com/nimbusdrive/nimbus/pkg/quota"
	"github.com/nimbusdrive/nimbus/pkg/sharing"
	"github.com/nimbusdrive/nimbus/pkg/trash"
)

const (
	searchLimit = 50
	recentLimit = 20
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	Store     drive.Store
	Content   content.Store
	Quota     *quota.Accountant
	Hierarchy *hierarchy.Service
	Sharing   *sharing.Service
	Trash     *trash.Service
	Tokens    *auth.TokenIssuer
	Metrics   metrics.DriveMetrics

	// BodyLimit caps request bodies, in bytes.
	BodyLimit int
}

// Server holds the handler dependencies behind the fiber app.
type Server struct {
	store     drive.Store
	content   content.Store
	quota     *quota.Accountant
	hierarchy *hierarchy.Service
	sharing   *sharing.Service
	trash     *trash.Service
	tokens    *auth.TokenIssuer
	metrics   metrics.DriveMetrics
}

// New builds the fiber application with all routes registered.
func New(deps Dependencies) *fiber.App {
	s := &Server{
		store:     deps.Store,
		content:   deps.Content,
		quota:     deps.Quota,
		hierarchy: deps.Hierarchy,
		sharing:   deps.Sharing,
		trash:     deps.Trash,
		tokens:    deps.Tokens,
		metrics:   deps.Metrics,
	}

	app := fiber.New(fiber.Config{
		AppName:      "nimbus",
		BodyLimit:    deps.BodyLimit,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"service":   "nimbus",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	if metrics.IsEnabled() {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(
			metrics.GetRegistry(),
			promhttp.HandlerOpts{},
		)))
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", s.handleRegister)
	authGroup.Post("/login", s.handleLogin)
	authGroup.Get("/me", requireAuth(s.tokens), s.handleMe)

	protected := api.Group("", requireAuth(s.tokens))

	protected.Post("/folders", s.handleCreateFolder)

	files := protected.Group("/files")
	files.Post("/upload", s.handleUpload)
	files.Get("/", s.handleListFiles)
	files.Get("/search", s.handleSearch)
	files.Get("/recent", s.handleRecent)
	files.Get("/starred", s.handleStarred)
	files.Get("/shared", s.handleSharedWithMe)
	files.Get("/trash", s.handleListTrash)
	files.Get("/:id/download", s.handleDownload)
	files.Get("/:id/thumbnail", s.handleThumbnail)
	files.Put("/:id", s.handleUpdateFile)
	files.Delete("/:id", s.handleDeleteFile)
	files.Post("/:id/restore", s.handleRestoreFile)
	files.Delete("/:id/permanent", s.handlePurgeFile)
	files.Post("/:id/share", s.handleShare)
	files.Delete("/:id/share", s.handleUnshare)

	protected.Delete("/trash", s.handleEmptyTrash)

	return app
}
