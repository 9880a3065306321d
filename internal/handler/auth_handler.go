// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/taskboard/internal/auth"
	"github.com/hitoshi/taskboard/internal/middleware"
	"github.com/hitoshi/taskboard/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
}

// LoginMetrics はログイン結果のメトリクス記録インターフェース。
type LoginMetrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// noopLoginMetrics はメトリクス未設定時のフォールバック。
type noopLoginMetrics struct{}

func (noopLoginMetrics) RecordLoginSuccess() {}
func (noopLoginMetrics) RecordLoginFailure() {}

// loginRequest はログインAPIのリクエストボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse はログインAPIのレスポンスボディ。
type loginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics LoginMetrics
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, metrics LoginMetrics) *AuthHandler {
	if metrics == nil {
		metrics = noopLoginMetrics{}
	}
	return &AuthHandler{
		service: service,
		metrics: metrics,
	}
}

// Login はユーザー名とパスワードで認証し、アクセストークンを返す。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST_BODY",
			Message:  "リクエストボディを解析できません。",
			Category: "validation",
			Action:   "JSONフォーマットを確認してください。",
		})
		return
	}

	if req.Username == "" || req.Password == "" {
		h.metrics.RecordLoginFailure()
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			h.metrics.RecordLoginFailure()
			middleware.WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
			return
		}
		slog.Error("login failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.metrics.RecordLoginSuccess()

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.Token,
		UserID:      result.Profile.UserID,
		Username:    result.Profile.Username,
		FirstName:   result.Profile.FirstName,
		LastName:    result.Profile.LastName,
	})
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
