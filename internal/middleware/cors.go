package middleware

import "net/http"

// CORSヘッダーはAPI契約で固定（全オリジン許可、Cookieは使用しない）。
const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Client-Info, Apikey"
)

// NewCORSMiddleware は全レスポンスにCORSヘッダーを付与するミドルウェアを返す。
// 資格情報はAuthorizationヘッダーで運ぶためワイルドカードオリジンを使用する。
// OPTIONSプリフライトリクエストにはルーティングの前に200と空ボディで応答する。
func NewCORSMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", corsAllowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)

			// OPTIONSプリフライトはパスに関わらず200で短絡する
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
