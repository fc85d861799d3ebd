package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishnx/opportunity-board/internal/auth"
	"github.com/krishnx/opportunity-board/internal/db"
	"github.com/krishnx/opportunity-board/internal/favicon"
	"github.com/krishnx/opportunity-board/internal/models"
)

type fakeOpportunities struct {
	created   []db.OpportunityInput
	createdBy []string
	listed    []db.ListParams
	archived  []uuid.UUID
	deleted   []uuid.UUID
}

func (f *fakeOpportunities) ListOpportunities(_ context.Context, params db.ListParams) ([]models.Opportunity, error) {
	f.listed = append(f.listed, params)
	return []models.Opportunity{}, nil
}

func (f *fakeOpportunities) GetOpportunity(context.Context, uuid.UUID) (*models.Opportunity, error) {
	return nil, db.ErrNotFound
}

func (f *fakeOpportunities) CreateOpportunity(_ context.Context, in db.OpportunityInput, createdBy string) (uuid.UUID, error) {
	f.created = append(f.created, in)
	f.createdBy = append(f.createdBy, createdBy)
	return uuid.New(), nil
}

func (f *fakeOpportunities) UpdateOpportunity(context.Context, uuid.UUID, db.UpdateParams) error {
	return db.ErrNotFound
}

func (f *fakeOpportunities) DuplicateOpportunity(context.Context, uuid.UUID) (uuid.UUID, error) {
	return uuid.Nil, db.ErrNotFound
}

func (f *fakeOpportunities) ArchiveOpportunity(_ context.Context, id uuid.UUID, _ string) error {
	f.archived = append(f.archived, id)
	return nil
}

func (f *fakeOpportunities) DeleteOpportunity(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSubmissions struct {
	created  []db.SubmissionInput
	reviewed map[uuid.UUID]string
}

func (f *fakeSubmissions) Create(_ context.Context, in db.SubmissionInput) (uuid.UUID, error) {
	f.created = append(f.created, in)
	return uuid.New(), nil
}

func (f *fakeSubmissions) List(context.Context, string) ([]models.Submission, error) {
	return []models.Submission{}, nil
}

func (f *fakeSubmissions) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	if f.reviewed == nil {
		f.reviewed = map[uuid.UUID]string{}
	}
	f.reviewed[id] = status
	return nil
}

type fakeAdmins struct {
	active map[string]bool
}

func (f *fakeAdmins) IsAdmin(_ context.Context, email string) (bool, error) {
	return f.active[email], nil
}

func (f *fakeAdmins) Add(context.Context, string, string) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (f *fakeAdmins) List(context.Context) ([]models.Admin, error) {
	return []models.Admin{}, nil
}

func (f *fakeAdmins) Deactivate(context.Context, uuid.UUID) error { return nil }
func (f *fakeAdmins) TouchLogin(context.Context, string) error    { return nil }

type fakeAudit struct {
	entries []models.AuditEntry
}

func (f *fakeAudit) Record(_ context.Context, entry models.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudit) List(context.Context, int) ([]models.AuditEntry, error) {
	return []models.AuditEntry{}, nil
}

type testEnv struct {
	server *Server
	opps   *fakeOpportunities
	subs   *fakeSubmissions
	admins *fakeAdmins
	audit  *fakeAudit
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	authSvc := auth.NewService(auth.Config{
		Username:   "curator",
		Password:   "hunter2",
		AdminEmail: "admin@example.com",
		Secret:     []byte("test-secret"),
	})

	env := &testEnv{
		opps:   &fakeOpportunities{},
		subs:   &fakeSubmissions{},
		admins: &fakeAdmins{active: map[string]bool{"admin@example.com": true}},
		audit:  &fakeAudit{},
	}

	env.server = &Server{
		Echo:          echo.New(),
		Opportunities: env.opps,
		Submissions:   env.subs,
		Admins:        env.admins,
		Audit:         env.audit,
		Auth:          authSvc,
		Favicons:      favicon.NewResolver(),
	}
	env.server.routes()

	resp, err := authSvc.Login(auth.LoginRequest{Username: "curator", Password: "hunter2"})
	require.NoError(t, err)
	env.token = resp.Token

	return env
}

func (env *testEnv) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authed {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+env.token)
	}
	rec := httptest.NewRecorder()
	env.server.Echo.ServeHTTP(rec, req)
	return rec
}

func TestSubmitOpportunity_Success(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/submit-opportunity", `{
		"opportunityName": "Tech Grant",
		"opportunityType": "grant",
		"description": "Funds student developers",
		"link": "https://example.com/apply"
	}`, false)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])

	// Exactly one row persisted per successful call.
	require.Len(t, env.subs.created, 1)
	assert.Equal(t, "Tech Grant", env.subs.created[0].OpportunityName)
}

func TestSubmitOpportunity_MissingLinkNoMutation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/submit-opportunity", `{
		"opportunityName": "Tech Grant",
		"opportunityType": "grant",
		"description": "Funds student developers"
	}`, false)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.subs.created, "validation failure must not touch the store")
}

func TestPublicListIsHardFilteredToActive(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/opportunities?q=yc", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.opps.listed, 1)
	assert.Equal(t, models.StatusActive, env.opps.listed[0].Status)
	assert.False(t, env.opps.listed[0].IncludeArchived)
	assert.Equal(t, "yc", env.opps.listed[0].Search)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/admin/opportunities", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegistryGuardRejectsDeactivatedAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.admins.active["admin@example.com"] = false

	rec := env.do(http.MethodGet, "/api/v1/admin/opportunities", "", true)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminListPassesThroughQueryParams(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/admin/opportunities?status=archived&search=yc&include_archived=true", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.opps.listed, 1)
	assert.Equal(t, models.StatusArchived, env.opps.listed[0].Status)
	assert.True(t, env.opps.listed[0].IncludeArchived)
}

func TestAdminCreate_RequiresDeadlineOrFlag(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/admin/opportunities", `{
		"title": "Grant", "provider": "Acme", "applyUrl": "https://acme.dev/apply"
	}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.opps.created)

	rec = env.do(http.MethodPost, "/api/v1/admin/opportunities", `{
		"title": "Grant", "provider": "Acme", "applyUrl": "https://acme.dev/apply",
		"deadlineNotSure": true
	}`, true)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, env.opps.created, 1)
	assert.Nil(t, env.opps.created[0].Deadline, "deadline stays unknown")
	assert.NotEmpty(t, env.opps.created[0].LogoURL, "logo auto-derived from apply link")
	assert.Equal(t, []string{"admin@example.com"}, env.opps.createdBy)

	require.Len(t, env.audit.entries, 1)
	assert.Equal(t, "opportunity.create", env.audit.entries[0].Action)
	assert.Equal(t, "admin@example.com", env.audit.entries[0].AdminEmail)
}

func TestAdminArchiveRecordsAudit(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	rec := env.do(http.MethodPost, "/api/v1/admin/opportunities/"+id.String()+"/archive", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{id}, env.opps.archived)

	require.Len(t, env.audit.entries, 1)
	assert.Equal(t, "opportunity.archive", env.audit.entries[0].Action)
}

func TestReviewSubmission_RejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	rec := env.do(http.MethodPatch, "/api/v1/admin/submissions/"+id.String(), `{"status": "maybe"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.subs.reviewed)

	rec = env.do(http.MethodPatch, "/api/v1/admin/submissions/"+id.String(), `{"status": "approved"}`, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SubmissionApproved, env.subs.reviewed[id])
}

func TestUpdateMissingOpportunityIs404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPatch, "/api/v1/admin/opportunities/"+uuid.NewString(), `{"title": "x"}`, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFaviconEndpointSync(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/favicon?sync=true&url=https%3A%2F%2Fwww.example.com%2Fapply", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://www.google.com/s2/favicons?domain=example.com&sz=64", body["iconUrl"])
}

func TestUploadLogoUnconfigured(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/uploads/logo", strings.NewReader(""))
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+env.token)
	rec := httptest.NewRecorder()
	env.server.Echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
