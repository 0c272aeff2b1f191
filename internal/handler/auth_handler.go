// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ichiro/userhub/internal/middleware"
	"github.com/ichiro/userhub/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, email, password, fullName string) (*model.Account, *model.Session, error)
	SignIn(ctx context.Context, email, password string) (*model.Account, *model.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context, accessToken string) (*model.Account, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// signUpRequest はsignupリクエストのボディ。
type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// signInRequest はsigninリクエストのボディ。
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp は新規ユーザーを登録する。
// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// ボディ不正は捕捉されない失敗として500で返す（API契約）
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	account, session, err := h.service.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]any{
		"user":    toAccountResponse(account),
		"session": toSessionResponse(session),
		"message": "User registered successfully",
	})
}

// SignIn はパスワード認証でログインする。
// POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	account, session, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"user":    toAccountResponse(account),
		"session": toSessionResponse(session),
		"message": "Login successful",
	})
}

// SignOut は現在のセッションを無効化する。
// POST /auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if header == "" {
		middleware.WriteError(w, http.StatusUnauthorized, "Authorization header required")
		return
	}

	if err := h.service.SignOut(r.Context(), middleware.BearerToken(header)); err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Logout successful",
	})
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if header == "" {
		middleware.WriteError(w, http.StatusUnauthorized, "Authorization header required")
		return
	}

	account, err := h.service.CurrentUser(r.Context(), middleware.BearerToken(header))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"user": toAccountResponse(account),
	})
}
