package middleware

import "net/http"

// corsHeaders はオリジン以外のCORSレスポンスヘッダー。全ルートで共通。
var corsHeaders = map[string]string{
	"Access-Control-Allow-Methods": "GET, POST, PUT, DELETE, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type, Authorization",
	"Access-Control-Max-Age":       "86400",
}

// NewCORSMiddleware は単一の許可オリジンに対するCORSミドルウェアを返す。
// 認証はAuthorizationヘッダーのBearerトークンで行うため、
// Cookieを使わずAllow-Credentialsも付与しない。
// OPTIONSプリフライトはここで204を返して打ち切る。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			for name, value := range corsHeaders {
				w.Header().Set(name, value)
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
