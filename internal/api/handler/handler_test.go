package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"gardops/backend/config"
	"gardops/backend/internal/dto"
	"gardops/backend/internal/service"
	pkgerrors "gardops/backend/pkg/errors"
	"gardops/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult   *dto.TokenResponse
	loginErr      error
	refreshResult *dto.TokenResponse
	refreshErr    error
	refreshToken  string
	logoutErr     error
	logoutJTI     string
	meResult      *dto.UserDetailResponse
	meErr         error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, token string) (*dto.TokenResponse, error) {
	m.refreshToken = token
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.logoutJTI = jti
	return m.logoutErr
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserDetailResponse, error) {
	return m.meResult, m.meErr
}
func (m *mockAuthService) EnsureBootstrapAdmin(_ context.Context, _ *config.BootstrapConfig) error {
	return nil
}

// ── Mock AssignmentService ──

type mockAssignmentService struct {
	result   *dto.AssignmentResponse
	list     []dto.AssignmentResponse
	total    int64
	err      error
	gotActor service.Actor
	updated  bool
}

func (m *mockAssignmentService) Create(_ context.Context, actor service.Actor, _ *dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error) {
	m.gotActor = actor
	return m.result, m.err
}
func (m *mockAssignmentService) GetByID(_ context.Context, _ service.Actor, _ string) (*dto.AssignmentResponse, error) {
	return m.result, m.err
}
func (m *mockAssignmentService) List(_ context.Context, _ service.Actor, _ *dto.AssignmentListRequest) ([]dto.AssignmentResponse, int64, error) {
	return m.list, m.total, m.err
}
func (m *mockAssignmentService) Update(_ context.Context, _ service.Actor, _ string, _ *dto.UpdateAssignmentRequest) (*dto.AssignmentResponse, error) {
	m.updated = true
	return m.result, m.err
}
func (m *mockAssignmentService) Delete(_ context.Context, _ service.Actor, _ string) error {
	return m.err
}

// ── Mock GuardLinkageService ──

type mockLinkageService struct {
	slot  *dto.SlotResponse
	slots []dto.SlotResponse
	err   error
}

func (m *mockLinkageService) List(_ context.Context, _ service.Actor, _ string) ([]dto.SlotResponse, error) {
	return m.slots, m.err
}
func (m *mockLinkageService) Bind(_ context.Context, _ service.Actor, _ *dto.BindSlotRequest) (*dto.SlotResponse, error) {
	return m.slot, m.err
}
func (m *mockLinkageService) Release(_ context.Context, _ service.Actor, _ string) (*dto.SlotResponse, error) {
	return m.slot, m.err
}

// ── Mock CoverageService ──

type mockCoverageService struct {
	gap      *dto.GapResponse
	err      error
	export   []byte
	filename string
}

func (m *mockCoverageService) List(_ context.Context, _ service.Actor, _ *dto.GapListRequest) ([]dto.GapResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockCoverageService) GetByID(_ context.Context, _ service.Actor, _ string) (*dto.GapResponse, error) {
	return m.gap, m.err
}
func (m *mockCoverageService) Update(_ context.Context, _ service.Actor, _ string, _ *dto.UpdateGapRequest) (*dto.GapResponse, error) {
	return m.gap, m.err
}
func (m *mockCoverageService) AssignGuard(_ context.Context, _ service.Actor, _ string, _ *dto.ResolveGapRequest) (*dto.GapResponse, error) {
	return m.gap, m.err
}
func (m *mockCoverageService) Export(_ context.Context, _ service.Actor, _ *dto.GapListRequest) ([]byte, string, error) {
	return m.export, m.filename, m.err
}

// ── Mock ShiftPostService ──

type mockShiftPostService struct {
	result    *dto.AssignPostResult
	err       error
	gotPostID string
}

func (m *mockShiftPostService) Generate(_ context.Context, _ service.Actor, _ *dto.GeneratePostsRequest) ([]dto.ShiftPostResponse, error) {
	if m.result == nil {
		return nil, m.err
	}
	return m.result.Posts, m.err
}
func (m *mockShiftPostService) List(_ context.Context, _ service.Actor, _ *dto.ShiftPostListRequest) ([]dto.ShiftPostResponse, error) {
	return nil, m.err
}
func (m *mockShiftPostService) AssignGuard(_ context.Context, _ service.Actor, postID string, _ *dto.AssignPostGuardRequest) (*dto.AssignPostResult, error) {
	m.gotPostID = postID
	return m.result, m.err
}
func (m *mockShiftPostService) UnassignGuard(_ context.Context, _ service.Actor, postID string) (*dto.AssignPostResult, error) {
	m.gotPostID = postID
	return m.result, m.err
}

// ── Mock GuardService ──

type mockGuardService struct {
	calendar []byte
	filename string
	err      error
}

func (m *mockGuardService) Create(_ context.Context, _ service.Actor, _ *dto.CreateGuardRequest) (*dto.GuardResponse, error) {
	return nil, m.err
}
func (m *mockGuardService) GetByID(_ context.Context, _ service.Actor, _ string) (*dto.GuardResponse, error) {
	return nil, m.err
}
func (m *mockGuardService) List(_ context.Context, _ service.Actor, _ *dto.CatalogListRequest) ([]dto.GuardResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockGuardService) Update(_ context.Context, _ service.Actor, _ string, _ *dto.UpdateGuardRequest) (*dto.GuardResponse, error) {
	return nil, m.err
}
func (m *mockGuardService) Delete(_ context.Context, _ service.Actor, _ string) error {
	return m.err
}
func (m *mockGuardService) Calendar(_ context.Context, _ service.Actor, _ string, _ *dto.GuardCalendarRequest) ([]byte, string, error) {
	return m.calendar, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

const (
	testPostID  = "7b3f1c2e-8a4d-4e5f-9a1b-2c3d4e5f6a7b"
	testGuardID = "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
	testInstID  = "9f8e7d6c-5b4a-4c3d-8e2f-1a0b9c8d7e6f"
	testRoleID  = "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
)

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("tenant_id", "test-tenant-id")
	c.Set("role", "admin")
	c.Set("token_jti", "test-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

// authed 在处理器前注入认证信息
func authed(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c)
		h(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock, nil)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "admin@gardops.cl",
		Password: "Test1234",
	}))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
	// 验证 Set-Cookie 头
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" {
			found = true
			if c.Value != "test-refresh-token" {
				t.Errorf("expected cookie value test-refresh-token, got %s", c.Value)
			}
			if !c.HttpOnly {
				t.Error("refresh_token cookie should be HttpOnly")
			}
		}
	}
	if !found {
		t.Error("expected refresh_token cookie to be set")
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", strings.NewReader("invalid json"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials}, nil)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "admin@gardops.cl",
		Password: "wrong",
	}))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_RefreshToken_FromBodyAndCookie(t *testing.T) {
	mock := &mockAuthService{
		refreshResult: &dto.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 900},
	}
	h := NewAuthHandler(mock, nil)
	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)

	w := serve(r, "POST", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{RefreshToken: "old-refresh"}))
	if w.Code != http.StatusOK || mock.refreshToken != "old-refresh" {
		t.Errorf("expected 200 with body token, got %d token=%s", w.Code, mock.refreshToken)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "cookie-refresh"})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || mock.refreshToken != "cookie-refresh" {
		t.Errorf("expected 200 with cookie token, got %d token=%s", w.Code, mock.refreshToken)
	}
}

func TestAuthHandler_RefreshToken_MissingToken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)
	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)

	w := serve(r, "POST", "/auth/refresh", jsonBody(map[string]string{}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	mock := &mockAuthService{meResult: &dto.UserDetailResponse{TenantName: "Seguridad Austral"}}
	h := NewAuthHandler(mock, nil)

	r := gin.New()
	r.GET("/auth/me", authed(h.GetCurrentUser))
	r.GET("/anon/me", h.GetCurrentUser)

	if w := serve(r, "GET", "/auth/me", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w := serve(r, "GET", "/anon/me", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock, nil)

	r := gin.New()
	r.POST("/auth/logout", authed(h.Logout))
	w := serve(r, "POST", "/auth/logout", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.logoutJTI != "test-jti" {
		t.Errorf("expected jti test-jti, got %s", mock.logoutJTI)
	}
	// 验证 Cookie 被清除（max-age = -1）
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" && c.MaxAge >= 0 {
			t.Error("expected refresh_token cookie to be cleared")
		}
	}
}

// ═══════════════════════════════════════════════════════════
// ShiftPostHandler Tests
// ═══════════════════════════════════════════════════════════

func assignBody() io.Reader {
	return jsonBody(dto.AssignPostGuardRequest{
		GuardiaID:     testGuardID,
		PuestoID:      testPostID,
		InstalacionID: testInstID,
		RolID:         testRoleID,
	})
}

func TestShiftPostHandler_AssignGuard_Success(t *testing.T) {
	mock := &mockShiftPostService{result: &dto.AssignPostResult{
		Success: true,
		Posts:   []dto.ShiftPostResponse{{ID: testPostID, Name: "Puesto #1", Position: 1}},
	}}
	h := NewShiftPostHandler(mock, responder{})

	r := gin.New()
	r.POST("/posts/:id/assign-guard", authed(h.AssignGuard))
	w := serve(r, "POST", "/posts/"+testPostID+"/assign-guard", assignBody())

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if mock.gotPostID != testPostID {
		t.Errorf("expected post id from path, got %s", mock.gotPostID)
	}

	var body struct {
		Code int                  `json:"code"`
		Data dto.AssignPostResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !body.Data.Success || len(body.Data.Posts) != 1 || body.Data.Posts[0].Name != "Puesto #1" {
		t.Errorf("unexpected data: %+v", body.Data)
	}
}

func TestShiftPostHandler_AssignGuard_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"not found", service.ErrShiftPostNotFound, http.StatusNotFound, 50001},
		{"parent mismatch", service.ErrShiftPostParentMismatch, http.StatusNotFound, 50002},
		{"has guard", service.ErrShiftPostHasGuard, http.StatusBadRequest, 50003},
		{"inactive", service.ErrShiftPostInactive, http.StatusBadRequest, 50004},
		{"guard busy", service.ErrGuardBusy, http.StatusConflict, 50006},
		{"guard not found", service.ErrGuardNotFound, http.StatusNotFound, 20004},
		{"validation", pkgerrors.NewValidation("puesto_id", "与路径不一致"), http.StatusBadRequest, 10001},
		{"wrapped", errors.Join(errors.New("tx"), service.ErrGuardBusy), http.StatusConflict, 50006},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewShiftPostHandler(&mockShiftPostService{err: tc.err}, responder{})
			r := gin.New()
			r.POST("/posts/:id/assign-guard", authed(h.AssignGuard))
			w := serve(r, "POST", "/posts/"+testPostID+"/assign-guard", assignBody())

			if w.Code != tc.status {
				t.Errorf("expected %d, got %d", tc.status, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tc.code {
				t.Errorf("expected code %d, got %d", tc.code, resp.Code)
			}
			if resp.Message == "" {
				t.Error("error message should be carried in the envelope")
			}
		})
	}
}

func TestShiftPostHandler_AssignGuard_BadParams(t *testing.T) {
	h := NewShiftPostHandler(&mockShiftPostService{}, responder{})
	r := gin.New()
	r.POST("/posts/:id/assign-guard", authed(h.AssignGuard))

	w := serve(r, "POST", "/posts/"+testPostID+"/assign-guard", jsonBody(map[string]string{"guardia_id": "not-a-uuid"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestResponder_InternalErrorDetails(t *testing.T) {
	for _, expose := range []bool{true, false} {
		h := NewShiftPostHandler(&mockShiftPostService{err: errors.New("connection refused")}, responder{exposeDetails: expose})
		r := gin.New()
		r.POST("/posts/:id/unassign-guard", authed(h.UnassignGuard))
		w := serve(r, "POST", "/posts/"+testPostID+"/unassign-guard", nil)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", w.Code)
		}
		resp := parseResponse(w)
		if resp.Code != 50000 {
			t.Errorf("expected code 50000, got %d", resp.Code)
		}
		if expose && resp.Details != "connection refused" {
			t.Errorf("expected details to echo error, got %q", resp.Details)
		}
		if !expose && resp.Details != "" {
			t.Errorf("expected no details, got %q", resp.Details)
		}
	}
}

// ═══════════════════════════════════════════════════════════
// Assignment / Linkage Handler Tests
// ═══════════════════════════════════════════════════════════

func TestAssignmentHandler_Create(t *testing.T) {
	mock := &mockAssignmentService{result: &dto.AssignmentResponse{ID: "a-1", RequiredGuards: 2}}
	h := NewAssignmentHandler(mock, responder{})
	r := gin.New()
	r.POST("/assignments", authed(h.CreateAssignment))

	w := serve(r, "POST", "/assignments", jsonBody(dto.CreateAssignmentRequest{
		InstallationID: testInstID, PostID: testPostID, RoleID: testRoleID, RequiredGuards: 2,
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if mock.gotActor.TenantID != "test-tenant-id" || mock.gotActor.UserID != "test-user-id" {
		t.Errorf("actor should come from context, got %+v", mock.gotActor)
	}

	w = serve(r, "POST", "/assignments", jsonBody(dto.CreateAssignmentRequest{
		InstallationID: testInstID, PostID: testPostID, RoleID: testRoleID, RequiredGuards: 0,
	}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("required_guards=0 expected 400, got %d", w.Code)
	}
}

func TestAssignmentHandler_RejectsMalformedGuardIDs(t *testing.T) {
	mock := &mockAssignmentService{result: &dto.AssignmentResponse{ID: "a-1", RequiredGuards: 2}}
	h := NewAssignmentHandler(mock, responder{})
	r := gin.New()
	r.POST("/assignments", authed(h.CreateAssignment))
	r.PUT("/assignments/:id", authed(h.UpdateAssignment))

	w := serve(r, "POST", "/assignments", jsonBody(dto.CreateAssignmentRequest{
		InstallationID: testInstID, PostID: testPostID, RoleID: testRoleID, RequiredGuards: 2,
		Guards: []string{"x"},
	}))
	if w.Code != http.StatusBadRequest || parseResponse(w).Code != 10001 {
		t.Errorf("create guards=[x] expected 400/10001, got %d/%d", w.Code, parseResponse(w).Code)
	}
	if mock.gotActor.UserID != "" {
		t.Error("service should not be called for malformed guard ids")
	}

	// 空串表示暂缺，合法
	w = serve(r, "POST", "/assignments", jsonBody(dto.CreateAssignmentRequest{
		InstallationID: testInstID, PostID: testPostID, RoleID: testRoleID, RequiredGuards: 2,
		Guards: []string{"", testGuardID},
	}))
	if w.Code != http.StatusCreated {
		t.Errorf("create guards=[\"\", uuid] expected 201, got %d: %s", w.Code, w.Body.String())
	}

	guards := []string{testGuardID, "x"}
	w = serve(r, "PUT", "/assignments/a-1", jsonBody(dto.UpdateAssignmentRequest{Guards: &guards}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("update guards=[uuid, x] expected 400, got %d", w.Code)
	}
	if mock.updated {
		t.Error("service should not be called for malformed guard ids")
	}
}

func TestAssignmentHandler_NotFound(t *testing.T) {
	h := NewAssignmentHandler(&mockAssignmentService{err: service.ErrAssignmentNotFound}, responder{})
	r := gin.New()
	r.GET("/assignments/:id", authed(h.GetAssignment))
	r.DELETE("/assignments/:id", authed(h.DeleteAssignment))

	for _, method := range []string{"GET", "DELETE"} {
		w := serve(r, method, "/assignments/a-1", nil)
		if w.Code != http.StatusNotFound || parseResponse(w).Code != 30001 {
			t.Errorf("%s expected 404/30001, got %d/%d", method, w.Code, parseResponse(w).Code)
		}
	}
}

func TestAssignmentHandler_ListPagination(t *testing.T) {
	mock := &mockAssignmentService{list: []dto.AssignmentResponse{{ID: "a-1"}}, total: 41}
	h := NewAssignmentHandler(mock, responder{})
	r := gin.New()
	r.GET("/assignments", authed(h.ListAssignments))

	w := serve(r, "GET", "/assignments?page=2&page_size=20", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.TotalPages != 3 || body.Data.Pagination.Page != 2 {
		t.Errorf("unexpected pagination: %+v", body.Data.Pagination)
	}
}

func TestGuardLinkageHandler(t *testing.T) {
	h := NewGuardLinkageHandler(&mockLinkageService{err: service.ErrSlotNotPending}, responder{})
	r := gin.New()
	r.GET("/guard-linkages", authed(h.ListSlots))
	r.POST("/guard-linkages", authed(h.BindSlot))

	if w := serve(r, "GET", "/guard-linkages", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing assignment_id expected 400, got %d", w.Code)
	}

	idx := 0
	w := serve(r, "POST", "/guard-linkages", jsonBody(dto.BindSlotRequest{
		AssignmentID: testInstID, SlotIndex: &idx, GuardID: testGuardID,
	}))
	if w.Code != http.StatusConflict || parseResponse(w).Code != 30003 {
		t.Errorf("bound slot expected 409/30003, got %d/%d", w.Code, parseResponse(w).Code)
	}
}

// ═══════════════════════════════════════════════════════════
// Coverage / Guard Handler Tests
// ═══════════════════════════════════════════════════════════

func TestCoverageHandler_AssignGuard_Conflict(t *testing.T) {
	h := NewCoverageHandler(&mockCoverageService{err: service.ErrGapNotPending}, responder{})
	r := gin.New()
	r.POST("/coverage-gaps/:id/assign-guard", authed(h.AssignGuard))

	w := serve(r, "POST", "/coverage-gaps/g-1/assign-guard", jsonBody(dto.ResolveGapRequest{GuardID: testGuardID}))
	if w.Code != http.StatusConflict || parseResponse(w).Code != 40002 {
		t.Errorf("expected 409/40002, got %d/%d", w.Code, parseResponse(w).Code)
	}
}

func TestCoverageHandler_Export(t *testing.T) {
	h := NewCoverageHandler(&mockCoverageService{export: []byte("PK"), filename: "ppc_2026-03-01.xlsx"}, responder{})
	r := gin.New()
	r.GET("/coverage-gaps/export", authed(h.ExportGaps))

	w := serve(r, "GET", "/coverage-gaps/export?status=pendiente", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "ppc_2026-03-01.xlsx") {
		t.Errorf("unexpected disposition %s", cd)
	}

	if w := serve(r, "GET", "/coverage-gaps/export?status=abierto", nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid status expected 400, got %d", w.Code)
	}
}

func TestGuardHandler_Calendar(t *testing.T) {
	h := NewGuardHandler(&mockGuardService{calendar: []byte("BEGIN:VCALENDAR"), filename: "turnos_12345678-5.ics"}, responder{})
	r := gin.New()
	r.GET("/guards/:id/calendar.ics", authed(h.Calendar))

	w := serve(r, "GET", "/guards/"+testGuardID+"/calendar.ics?days=7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("unexpected content type %s", ct)
	}

	if w := serve(r, "GET", "/guards/"+testGuardID+"/calendar.ics?days=90", nil); w.Code != http.StatusBadRequest {
		t.Errorf("days=90 expected 400, got %d", w.Code)
	}
}

func TestMustGetActor_MissingTenant(t *testing.T) {
	h := NewAssignmentHandler(&mockAssignmentService{}, responder{})
	r := gin.New()
	r.GET("/assignments/:id", func(c *gin.Context) {
		c.Set("user_id", "u-1")
		h.GetAssignment(c)
	})

	if w := serve(r, "GET", "/assignments/a-1", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}
