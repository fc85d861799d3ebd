package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/krishnx/opportunity-board/internal/auth"
	"github.com/krishnx/opportunity-board/internal/db"
	"github.com/krishnx/opportunity-board/internal/favicon"
	"github.com/krishnx/opportunity-board/internal/models"
	"github.com/krishnx/opportunity-board/internal/uploads"
)

// Store dependencies are small interfaces so handlers can be exercised with
// fakes; the db package provides the production implementations.

type OpportunityStore interface {
	ListOpportunities(ctx context.Context, params db.ListParams) ([]models.Opportunity, error)
	GetOpportunity(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
	CreateOpportunity(ctx context.Context, in db.OpportunityInput, createdBy string) (uuid.UUID, error)
	UpdateOpportunity(ctx context.Context, id uuid.UUID, params db.UpdateParams) error
	DuplicateOpportunity(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ArchiveOpportunity(ctx context.Context, id uuid.UUID, adminID string) error
	DeleteOpportunity(ctx context.Context, id uuid.UUID) error
}

type SubmissionStore interface {
	Create(ctx context.Context, in db.SubmissionInput) (uuid.UUID, error)
	List(ctx context.Context, status string) ([]models.Submission, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type AdminRegistry interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
	Add(ctx context.Context, email, name string) (uuid.UUID, error)
	List(ctx context.Context) ([]models.Admin, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	TouchLogin(ctx context.Context, email string) error
}

type AuditLog interface {
	Record(ctx context.Context, entry models.AuditEntry) error
	List(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

type Server struct {
	Echo          *echo.Echo
	Opportunities OpportunityStore
	Submissions   SubmissionStore
	Admins        AdminRegistry
	Audit         AuditLog
	Auth          *auth.Service
	Favicons      *favicon.Resolver
	Uploader      uploads.Uploader // nil when the image host is unconfigured
}

type Options struct {
	CORSOrigins []string
}

func NewServer(pool *pgxpool.Pool, authSvc *auth.Service, resolver *favicon.Resolver, uploader uploads.Uploader, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: opts.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s := &Server{
		Echo:          e,
		Opportunities: db.NewStore(pool),
		Submissions:   db.NewSubmissionStore(pool),
		Admins:        db.NewAdminStore(pool),
		Audit:         db.NewAuditStore(pool),
		Auth:          authSvc,
		Favicons:      resolver,
		Uploader:      uploader,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")

	// Public surface: always active-only, never archived.
	api.GET("/opportunities", s.handleListPublic)
	api.GET("/opportunities/:id", s.handleGetOpportunity)
	api.GET("/favicon", s.handleResolveFavicon)
	api.POST("/submit-opportunity", s.handleSubmitOpportunity)
	api.POST("/auth/login", s.handleLogin)

	// Admin surface: every route passes token validation and the registry
	// isActive check.
	admin := api.Group("/admin")
	admin.Use(s.Auth.Middleware)
	admin.Use(s.registryGuard)

	admin.GET("/opportunities", s.handleAdminList)
	admin.POST("/opportunities", s.handleAdminCreate)
	admin.PATCH("/opportunities/:id", s.handleAdminUpdate)
	admin.POST("/opportunities/:id/duplicate", s.handleAdminDuplicate)
	admin.POST("/opportunities/:id/archive", s.handleAdminArchive)
	admin.DELETE("/opportunities/:id", s.handleAdminDelete)

	admin.GET("/submissions", s.handleAdminListSubmissions)
	admin.PATCH("/submissions/:id", s.handleAdminReviewSubmission)

	admin.GET("/admins", s.handleAdminListAdmins)
	admin.POST("/admins", s.handleAdminAddAdmin)
	admin.DELETE("/admins/:id", s.handleAdminDeactivateAdmin)

	admin.GET("/audit", s.handleAdminAudit)
	admin.POST("/uploads/logo", s.handleUploadLogo)
}

// registryGuard rejects authenticated callers whose registry row is missing
// or deactivated.
func (s *Server) registryGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		email, err := auth.GetAdminEmail(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
		active, err := s.Admins.IsAdmin(c.Request().Context(), email)
		if err != nil {
			c.Logger().Errorf("admin registry lookup failed: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		}
		if !active {
			return echo.NewHTTPError(http.StatusForbidden, "Admin access revoked")
		}
		return next(c)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// storeError maps store failures onto the response taxonomy: NotFound to
// 404, everything else to an opaque 500.
func storeError(c echo.Context, err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
}

// recordAudit appends an audit entry for the authenticated admin. Audit
// failures are logged, never surfaced: the underlying operation already
// succeeded.
func (s *Server) recordAudit(c echo.Context, action, resourceType, resourceID string, changes map[string]any) {
	email, err := auth.GetAdminEmail(c)
	if err != nil {
		return
	}
	entry := models.AuditEntry{
		AdminID:      email,
		AdminEmail:   email,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Changes:      changes,
	}
	if err := s.Audit.Record(c.Request().Context(), entry); err != nil {
		c.Logger().Errorf("audit record failed: %v", err)
	}
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}
