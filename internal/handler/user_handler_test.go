package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ichiro/userhub/internal/middleware"
	"github.com/ichiro/userhub/internal/model"
)

// --- モック定義 ---

type mockUserService struct {
	listFn   func(ctx context.Context) ([]*model.Profile, error)
	getFn    func(ctx context.Context, id string) (*model.Profile, error)
	updateFn func(ctx context.Context, callerID, targetID string, patch model.ProfilePatch) (*model.Profile, error)
	deleteFn func(ctx context.Context, callerID, targetID string) error
}

func (m *mockUserService) List(ctx context.Context) ([]*model.Profile, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserService) Get(ctx context.Context, id string) (*model.Profile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserService) Update(ctx context.Context, callerID, targetID string, patch model.ProfilePatch) (*model.Profile, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, callerID, targetID, patch)
	}
	return nil, nil
}

func (m *mockUserService) Delete(ctx context.Context, callerID, targetID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, callerID, targetID)
	}
	return nil
}

var _ UserServiceInterface = (*mockUserService)(nil)

func testProfile(id string) *model.Profile {
	return &model.Profile{
		ID:        id,
		Email:     id + "@example.com",
		FullName:  "Test User",
		Role:      model.RoleUser,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// authedRequest は認証済みアカウントとURLパラメータを注入したリクエストを生成する。
func authedRequest(t *testing.T, method, path, body, accountID, idParam string) *http.Request {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	ctx := middleware.ContextWithAccount(req.Context(), &model.Account{ID: accountID})

	if idParam != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", idParam)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	return req.WithContext(ctx)
}

// --- テスト ---

func TestUserList_Success_ReturnsUsers(t *testing.T) {
	service := &mockUserService{
		listFn: func(ctx context.Context) ([]*model.Profile, error) {
			return []*model.Profile{testProfile("user-1"), testProfile("user-2")}, nil
		},
	}
	h := NewUserHandler(service)

	req := authedRequest(t, http.MethodGet, "/users", "", "caller-1", "")
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := decodeBody(t, rec)
	users, ok := got["users"].([]any)
	if !ok {
		t.Fatalf("users = %v, want array", got["users"])
	}
	if len(users) != 2 {
		t.Errorf("len(users) = %d, want 2", len(users))
	}
}

func TestUserList_EmptyStore_ReturnsEmptyArray(t *testing.T) {
	service := &mockUserService{
		listFn: func(ctx context.Context) ([]*model.Profile, error) {
			return []*model.Profile{}, nil
		},
	}
	h := NewUserHandler(service)

	req := authedRequest(t, http.MethodGet, "/users", "", "caller-1", "")
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	// nullではなく空配列で返ること
	if !strings.Contains(rec.Body.String(), `"users":[]`) {
		t.Errorf("body = %q, want users to be []", rec.Body.String())
	}
}

func TestUserList_NoAccountInContext_Returns401(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUserGet_Found_ReturnsUser(t *testing.T) {
	service := &mockUserService{
		getFn: func(ctx context.Context, id string) (*model.Profile, error) {
			if id != "user-1" {
				t.Errorf("id = %q, want %q", id, "user-1")
			}
			return testProfile(id), nil
		},
	}
	h := NewUserHandler(service)

	req := authedRequest(t, http.MethodGet, "/users/user-1", "", "caller-1", "user-1")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := decodeBody(t, rec)
	user, ok := got["user"].(map[string]any)
	if !ok {
		t.Fatalf("user = %v, want object", got["user"])
	}
	if user["id"] != "user-1" {
		t.Errorf("user.id = %v, want %q", user["id"], "user-1")
	}
	// null許容フィールドも常にキーとして存在すること
	if _, exists := user["avatar_url"]; !exists {
		t.Error("expected avatar_url key in response")
	}
}

func TestUserGet_NotFound_Returns404(t *testing.T) {
	service := &mockUserService{
		getFn: func(ctx context.Context, id string) (*model.Profile, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewUserHandler(service)

	req := authedRequest(t, http.MethodGet, "/users/missing", "", "caller-1", "missing")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	got := decodeBody(t, rec)
	if got["error"] != "User not found" {
		t.Errorf("error = %v, want %q", got["error"], "User not found")
	}
}

func TestUserUpdate_Success_Returns200(t *testing.T) {
	var gotCaller, gotTarget string
	var gotPatch model.ProfilePatch
	service := &mockUserService{
		updateFn: func(ctx context.Context, callerID, targetID string, patch model.ProfilePatch) (*model.Profile, error) {
			gotCaller, gotTarget, gotPatch = callerID, targetID, patch
			return testProfile(targetID), nil
		},
	}
	h := NewUserHandler(service)

	body := `{"full_name":"New Name","bio":"hello"}`
	req := authedRequest(t, http.MethodPut, "/users/user-1", body, "user-1", "user-1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := decodeBody(t, rec)
	if got["message"] != "Profile updated successfully" {
		t.Errorf("message = %v, want %q", got["message"], "Profile updated successfully")
	}
	if gotCaller != "user-1" || gotTarget != "user-1" {
		t.Errorf("caller/target = %q/%q, want user-1/user-1", gotCaller, gotTarget)
	}
	if gotPatch.FullName == nil || *gotPatch.FullName != "New Name" {
		t.Errorf("patch.FullName = %v, want New Name", gotPatch.FullName)
	}
	// 未指定のフィールドはnilで渡ること（部分更新）
	if gotPatch.AvatarURL != nil {
		t.Errorf("patch.AvatarURL = %v, want nil", gotPatch.AvatarURL)
	}
}

func TestUserUpdate_RoleFieldIgnored(t *testing.T) {
	var gotPatch model.ProfilePatch
	service := &mockUserService{
		updateFn: func(ctx context.Context, callerID, targetID string, patch model.ProfilePatch) (*model.Profile, error) {
			gotPatch = patch
			return testProfile(targetID), nil
		},
	}
	h := NewUserHandler(service)

	// roleフィールドはリクエスト型に存在しないため黙って無視される
	body := `{"role":"admin","full_name":"Attacker"}`
	req := authedRequest(t, http.MethodPut, "/users/user-1", body, "user-1", "user-1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotPatch.FullName == nil || *gotPatch.FullName != "Attacker" {
		t.Errorf("patch.FullName = %v, want Attacker", gotPatch.FullName)
	}
}

func TestUserUpdate_OtherUsersProfile_Returns403(t *testing.T) {
	service := &mockUserService{
		updateFn: func(ctx context.Context, callerID, targetID string, patch model.ProfilePatch) (*model.Profile, error) {
			return nil, model.NewProfileUpdateForbiddenError()
		},
	}
	h := NewUserHandler(service)

	req := authedRequest(t, http.MethodPut, "/users/user-2", `{"full_name":"x"}`, "user-1", "user-2")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	got := decodeBody(t, rec)
	if got["error"] != "Forbidden: You can only update your own profile" {
		t.Errorf("error = %v", got["error"])
	}
}

func TestUserUpdate_MalformedJSON_Returns500(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := authedRequest(t, http.MethodPut, "/users/user-1", `{bad`, "user-1", "user-1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestUserDelete_AsAdmin_Returns200(t *testing.T) {
	var gotCaller, gotTarget string
	service := &mockUserService{
		deleteFn: func(ctx context.Context, callerID, targetID string) error {
			gotCaller, gotTarget = callerID, targetID
			return nil
		},
	}
	h := NewUserHandler(service)

	req := authedRequest(t, http.MethodDelete, "/users/user-2", "", "admin-1", "user-2")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := decodeBody(t, rec)
	if got["message"] != "User deleted successfully" {
		t.Errorf("message = %v, want %q", got["message"], "User deleted successfully")
	}
	if gotCaller != "admin-1" || gotTarget != "user-2" {
		t.Errorf("caller/target = %q/%q", gotCaller, gotTarget)
	}
}

func TestUserDelete_AsNonAdmin_Returns403(t *testing.T) {
	service := &mockUserService{
		deleteFn: func(ctx context.Context, callerID, targetID string) error {
			return model.NewAdminRequiredError()
		},
	}
	h := NewUserHandler(service)

	req := authedRequest(t, http.MethodDelete, "/users/user-2", "", "user-1", "user-2")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	got := decodeBody(t, rec)
	if got["error"] != "Forbidden: Admin access required" {
		t.Errorf("error = %v", got["error"])
	}
}
