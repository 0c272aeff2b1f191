// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ichiro/userhub/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// accountContextKey はリクエストコンテキストに認証済みアカウントを格納するためのキー。
var accountContextKey = contextKey("account")

// TokenResolver はベアラートークンの解決に必要なインターフェース。
// identity.Clientの部分集合として定義する。
type TokenResolver interface {
	GetUser(ctx context.Context, accessToken string) (*model.Account, error)
}

// NewBearerAuthMiddleware はAuthorizationヘッダーのベアラートークンを
// IDプロバイダーで解決するミドルウェアを返す。
// 解決済みアカウントをリクエストコンテキストに注入する。
// ヘッダー欠落は401 "Authorization header required"、
// 解決失敗は401 "Unauthorized" を返す。
func NewBearerAuthMiddleware(resolver TokenResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Authorizationヘッダーの取得
			header := r.Header.Get("Authorization")
			if header == "" {
				WriteError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			// 2. トークンをアカウントに解決
			account, err := resolver.GetUser(r.Context(), BearerToken(header))
			if err != nil || account == nil {
				if err != nil {
					slog.Warn("failed to resolve bearer token",
						slog.String("error", err.Error()),
					)
				}
				WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			// 3. 認証済みアカウントをコンテキストに注入
			ctx := context.WithValue(r.Context(), accountContextKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken はAuthorizationヘッダー値から"Bearer "プレフィックスを除去する。
// プレフィックスなしの生トークンもそのまま受け付ける。
func BearerToken(header string) string {
	return strings.TrimPrefix(header, "Bearer ")
}

// AccountFromContext はリクエストコンテキストから認証済みアカウントを取得する。
// ベアラー認証ミドルウェアを通過したリクエストでのみ有効。
func AccountFromContext(ctx context.Context) (*model.Account, error) {
	account, ok := ctx.Value(accountContextKey).(*model.Account)
	if !ok || account == nil {
		return nil, fmt.Errorf("account not found in context")
	}
	return account, nil
}

// ContextWithAccount はコンテキストにアカウントを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAccount(ctx context.Context, account *model.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}
