package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ichiro/userhub/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger        *slog.Logger
	TokenResolver middleware.TokenResolver
	RateLimiter   *middleware.RateLimiter
	Metrics       middleware.RequestRecorder

	// サービス
	AuthService AuthServiceInterface
	UserService UserServiceInterface

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成した
// chi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → CORS → Logging → Metrics
//
// CORSはルーティングの前に適用されるため、OPTIONSプリフライトは
// 存在しないパスに対しても200で応答する。
// /users 配下のみベアラー認証とレート制限を通す（認証ルートは
// ヘッダーをハンドラー内で検査する）。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewCORSMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	// 未マッチのパス・メソッドはすべて404（API契約: 405は使わない）
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証ルート ---
	// signup/signinは未認証で叩かれるためIP単位のレート制限を追加する
	r.Route("/auth", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/signup", authHandler.SignUp)
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/signin", authHandler.SignIn)
		} else {
			r.Post("/signup", authHandler.SignUp)
			r.Post("/signin", authHandler.SignIn)
		}
		r.Post("/signout", authHandler.SignOut)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: BearerAuth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewBearerAuthMiddleware(deps.TokenResolver))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.Get)
				r.Put("/", userHandler.Update)
				r.Delete("/", userHandler.Delete)
			})
		})
	})

	// --- 運用エンドポイント ---
	if deps.HealthChecker != nil {
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				middleware.WriteError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
			middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	}
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	return r
}
