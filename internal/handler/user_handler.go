package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ichiro/userhub/internal/middleware"
	"github.com/ichiro/userhub/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// List は全プロフィールをcreated_at降順で返す。
	List(ctx context.Context) ([]*model.Profile, error)
	// Get は指定IDのプロフィールを返す。
	Get(ctx context.Context, id string) (*model.Profile, error)
	// Update はプロフィールを部分更新する。認可は本人または管理者。
	Update(ctx context.Context, callerID, targetID string, patch model.ProfilePatch) (*model.Profile, error)
	// Delete はユーザーを削除する。認可は管理者のみ。
	Delete(ctx context.Context, callerID, targetID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
// 呼び出し元の認証はベアラー認証ミドルウェアが済ませている前提。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// updateUserRequest はプロフィール更新リクエストのボディ。
// nilのフィールドは変更しない部分更新のセマンティクス。
// roleは受け付けない（自己昇格の防止）。
type updateUserRequest struct {
	FullName  *string `json:"full_name"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

// List は全ユーザーの一覧を取得する。
// GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.AccountFromContext(r.Context()); err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profiles, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	users := make([]profileResponse, len(profiles))
	for i, p := range profiles {
		users[i] = toProfileResponse(p)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"users": users,
	})
}

// Get は指定IDのユーザーを取得する。
// GET /users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.AccountFromContext(r.Context()); err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profile, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"user": toProfileResponse(profile),
	})
}

// Update はプロフィールを部分更新する。
// PUT /users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// ボディ不正は捕捉されない失敗として500で返す（API契約）
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	patch := model.ProfilePatch{
		FullName:  req.FullName,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	}

	updated, err := h.service.Update(r.Context(), account.ID, chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"user":    toProfileResponse(updated),
		"message": "Profile updated successfully",
	})
}

// Delete はユーザーを削除する（管理者のみ）。
// DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.Delete(r.Context(), account.ID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "User deleted successfully",
	})
}
