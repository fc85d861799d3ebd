package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/krishnx/opportunity-board/internal/auth"
	"github.com/krishnx/opportunity-board/internal/db"
	"github.com/krishnx/opportunity-board/internal/models"
)

// Public handlers

func (s *Server) handleListPublic(c echo.Context) error {
	opps, err := s.Opportunities.ListOpportunities(c.Request().Context(), db.ListParams{
		Status: models.StatusActive,
		Search: c.QueryParam("q"),
	})
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, opps)
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid opportunity ID"})
	}
	opp, err := s.Opportunities.GetOpportunity(c.Request().Context(), id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, opp)
}

func (s *Server) handleResolveFavicon(c echo.Context) error {
	rawURL := c.QueryParam("url")
	if rawURL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url param required"})
	}

	// sync=true skips verification for optimistic display.
	if strings.EqualFold(c.QueryParam("sync"), "true") {
		return c.JSON(http.StatusOK, map[string]string{"iconUrl": s.Favicons.SyncURL(rawURL)})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"iconUrl": s.Favicons.ResolveWithFallback(c.Request().Context(), rawURL),
	})
}

func (s *Server) handleSubmitOpportunity(c echo.Context) error {
	var in db.SubmissionInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	// Required-field validation happens here, before any store access.
	if in.OpportunityName == "" || in.OpportunityType == "" || in.Description == "" || in.Link == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
	}

	if _, err := s.Submissions.Create(c.Request().Context(), in); err != nil {
		c.Logger().Errorf("submission create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to submit opportunity"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Opportunity submitted successfully. Admin will review shortly.",
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.Auth.Login(req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCreds) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	if err := s.Admins.TouchLogin(c.Request().Context(), resp.Email); err != nil {
		c.Logger().Errorf("last-login update failed: %v", err)
	}

	return c.JSON(http.StatusOK, resp)
}

// Admin handlers

func (s *Server) handleAdminList(c echo.Context) error {
	params := db.ListParams{
		Status:          c.QueryParam("status"),
		Search:          c.QueryParam("search"),
		IncludeArchived: strings.EqualFold(c.QueryParam("include_archived"), "true"),
	}
	if params.Status == "" {
		params.Status = db.StatusAll
	}

	opps, err := s.Opportunities.ListOpportunities(c.Request().Context(), params)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, opps)
}

type createOpportunityRequest struct {
	db.OpportunityInput
	// DeadlineNotSure marks the deadline as intentionally unknown; either a
	// deadline or this flag must be present.
	DeadlineNotSure bool `json:"deadlineNotSure"`
}

func (s *Server) handleAdminCreate(c echo.Context) error {
	var req createOpportunityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if req.Title == "" || req.Provider == "" || req.ApplyURL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title, provider and applyUrl are required"})
	}
	if req.Deadline == nil && !req.DeadlineNotSure {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "deadline or deadlineNotSure is required"})
	}

	if req.LogoURL == "" {
		req.LogoURL = s.Favicons.SyncURL(req.ApplyURL)
	}

	email, err := auth.GetAdminEmail(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	id, err := s.Opportunities.CreateOpportunity(c.Request().Context(), req.OpportunityInput, email)
	if err != nil {
		return storeError(c, err)
	}

	s.recordAudit(c, "opportunity.create", "opportunity", id.String(), map[string]any{"title": req.Title})
	return c.JSON(http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleAdminUpdate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid opportunity ID"})
	}

	var params db.UpdateParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if err := s.Opportunities.UpdateOpportunity(c.Request().Context(), id, params); err != nil {
		return storeError(c, err)
	}

	s.recordAudit(c, "opportunity.update", "opportunity", id.String(), nil)
	return c.JSON(http.StatusOK, map[string]string{"id": id.String()})
}

func (s *Server) handleAdminDuplicate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid opportunity ID"})
	}

	newID, err := s.Opportunities.DuplicateOpportunity(c.Request().Context(), id)
	if err != nil {
		return storeError(c, err)
	}

	s.recordAudit(c, "opportunity.duplicate", "opportunity", newID.String(), map[string]any{"source": id.String()})
	return c.JSON(http.StatusCreated, map[string]string{"id": newID.String()})
}

func (s *Server) handleAdminArchive(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid opportunity ID"})
	}

	email, err := auth.GetAdminEmail(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	if err := s.Opportunities.ArchiveOpportunity(c.Request().Context(), id, email); err != nil {
		return storeError(c, err)
	}

	s.recordAudit(c, "opportunity.archive", "opportunity", id.String(), nil)
	return c.JSON(http.StatusOK, map[string]string{"id": id.String()})
}

func (s *Server) handleAdminDelete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid opportunity ID"})
	}

	if err := s.Opportunities.DeleteOpportunity(c.Request().Context(), id); err != nil {
		return storeError(c, err)
	}

	s.recordAudit(c, "opportunity.delete", "opportunity", id.String(), nil)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAdminListSubmissions(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "" && !models.ValidSubmissionStatus(status) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid status"})
	}

	subs, err := s.Submissions.List(c.Request().Context(), status)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, subs)
}

type reviewSubmissionRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleAdminReviewSubmission(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid submission ID"})
	}

	var req reviewSubmissionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if !models.ValidSubmissionStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid status"})
	}

	if err := s.Submissions.UpdateStatus(c.Request().Context(), id, req.Status); err != nil {
		return storeError(c, err)
	}

	s.recordAudit(c, "submission.review", "submission", id.String(), map[string]any{"status": req.Status})
	return c.JSON(http.StatusOK, map[string]string{"id": id.String()})
}

func (s *Server) handleAdminListAdmins(c echo.Context) error {
	admins, err := s.Admins.List(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, admins)
}

type addAdminRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleAdminAddAdmin(c echo.Context) error {
	var req addAdminRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Email == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email and name are required"})
	}

	id, err := s.Admins.Add(c.Request().Context(), req.Email, req.Name)
	if err != nil {
		return storeError(c, err)
	}

	s.recordAudit(c, "admin.add", "admin", id.String(), map[string]any{"email": req.Email})
	return c.JSON(http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleAdminDeactivateAdmin(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid admin ID"})
	}

	if err := s.Admins.Deactivate(c.Request().Context(), id); err != nil {
		return storeError(c, err)
	}

	s.recordAudit(c, "admin.deactivate", "admin", id.String(), nil)
	return c.JSON(http.StatusOK, map[string]string{"id": id.String()})
}

func (s *Server) handleAdminAudit(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	entries, err := s.Audit.List(c.Request().Context(), limit)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleUploadLogo(c echo.Context) error {
	if s.Uploader == nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Image host is not configured"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file is required"})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable file"})
	}

	logoURL, err := s.Uploader.UploadBytes(c.Request().Context(), "logos", uuid.New().String(), data)
	if err != nil {
		c.Logger().Errorf("logo upload failed: %v", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Upload failed"})
	}

	return c.JSON(http.StatusOK, map[string]string{"url": logoURL})
}
