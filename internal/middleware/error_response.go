package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/taskboard/internal/model"
)

// ErrorResponseBody は全エンドポイント共通のエラーレスポンス形式。
// model.APIErrorのコード・メッセージ・カテゴリ・対処案内をそのまま運ぶ。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse はAPIErrorを共通形式のJSONとして書き込む。
// ハンドラーとミドルウェアのどちらからも同じ形のエラーが返るようにする。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は想定外の失敗に対する500レスポンスを書き込む。
// 内部の詳細はレスポンスに含めない。原因はログ側にのみ残す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}
