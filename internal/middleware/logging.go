package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// responseRecorder はhttp.ResponseWriterをラップし、
// ハンドラーが書き込んだステータスコードを後段で参照できるようにする。
// 最初に確定したステータスのみを保持する。
type responseRecorder struct {
	http.ResponseWriter
	status    int
	committed bool
}

func (rr *responseRecorder) WriteHeader(code int) {
	if !rr.committed {
		rr.status = code
		rr.committed = true
	}
	rr.ResponseWriter.WriteHeader(code)
}

// Write はWriteHeader未呼び出しのままボディが書かれた場合、
// net/httpの挙動に合わせて200として確定させる。
func (rr *responseRecorder) Write(b []byte) (int, error) {
	if !rr.committed {
		rr.status = http.StatusOK
		rr.committed = true
	}
	return rr.ResponseWriter.Write(b)
}

// newResponseRecorder は200を初期値とするresponseRecorderを生成する。
func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

// logLevelFor はレスポンスステータスに応じたログレベルを返す。
// 5xxはError、4xxはWarn、それ以外はInfo。
func logLevelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// NewLoggingMiddleware は1リクエスト1行のJSON構造化アクセスログを
// 出力するミドルウェアを返す。
// 記録するのはmethod、path、status、duration_msと、
// 認証ミドルウェアを通過済みの場合のuser_id。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newResponseRecorder(w)

			next.ServeHTTP(rec, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000.0),
			}
			if userID, err := UserIDFromContext(r.Context()); err == nil && userID != "" {
				attrs = append(attrs, slog.String("user_id", userID))
			}

			logger.LogAttrs(r.Context(), logLevelFor(rec.status), "http_request", attrs...)
		})
	}
}
