package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ichiro/userhub/internal/middleware"
	"github.com/ichiro/userhub/internal/model"
)

// accountResponse はIDプロバイダーのアカウント情報のAPIレスポンス。
type accountResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// sessionResponse はセッショントークンのAPIレスポンス。
type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// profileResponse はプロフィールのAPIレスポンス。
// 認証情報に相当するフィールドは存在しない。
type profileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	AvatarURL *string   `json:"avatar_url"`
	Bio       *string   `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// toAccountResponse はドメインのAccountをレスポンス型に変換する。nil安全。
func toAccountResponse(account *model.Account) *accountResponse {
	if account == nil {
		return nil
	}
	return &accountResponse{
		ID:        account.ID,
		Email:     account.Email,
		FullName:  account.FullName,
		CreatedAt: account.CreatedAt,
	}
}

// toSessionResponse はドメインのSessionをレスポンス型に変換する。nil安全。
// メール確認待ちのsignupではセッションはnullとして返る。
func toSessionResponse(session *model.Session) *sessionResponse {
	if session == nil {
		return nil
	}
	return &sessionResponse{
		AccessToken:  session.AccessToken,
		TokenType:    session.TokenType,
		ExpiresIn:    session.ExpiresIn,
		RefreshToken: session.RefreshToken,
	}
}

// toProfileResponse はドメインのProfileをレスポンス型に変換する。
func toProfileResponse(p *model.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      string(p.Role),
		AvatarURL: p.AvatarURL,
		Bio:       p.Bio,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIErrorはステータスとメッセージをそのまま使用し、
// それ以外（接続失敗等の想定外エラー）は500で返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteError(w, apiErr.Status, apiErr.Message)
		return
	}

	slog.Error("unhandled service error", slog.String("error", err.Error()))
	middleware.WriteError(w, http.StatusInternalServerError, err.Error())
}
