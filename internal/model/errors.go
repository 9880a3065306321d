// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, task, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTokenMissing       = "TOKEN_MISSING"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeTaskNotFound       = "TASK_NOT_FOUND"
	ErrCodeInvalidTitle       = "INVALID_TITLE"
	ErrCodeInvalidDetails     = "INVALID_DETAILS"
	ErrCodeInvalidDueDate     = "INVALID_DUE_DATE"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeNoUpdateFields     = "NO_UPDATE_FIELDS"
	ErrCodeStoreFailure       = "STORE_FAILURE"
)

// NewInvalidCredentialsError は認証失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewTokenMissingError はAuthorizationヘッダー欠落エラーを生成する。
func NewTokenMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenMissing,
		Message:  "認証トークンが指定されていません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewTokenInvalidError は無効または期限切れトークンのエラーを生成する。
func NewTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenInvalid,
		Message:  "認証トークンが無効または期限切れです。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
// 他ユーザー所有のタスクへのアクセスも存在有無を隠すため同じエラーになる。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "task",
		Action:   "タスク一覧を再読み込みしてください。",
	}
}

// NewInvalidTitleError は無効なタイトルエラーを生成する。
func NewInvalidTitleError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTitle,
		Message:  fmt.Sprintf("無効なタイトルです: %s", reason),
		Category: "validation",
		Action:   fmt.Sprintf("タイトルは1文字以上%d文字以内で入力してください。", MaxTitleLength),
	}
}

// NewInvalidDetailsError は無効な詳細エラーを生成する。
func NewInvalidDetailsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDetails,
		Message:  fmt.Sprintf("詳細は%d文字以内で入力してください。", MaxDetailsLength),
		Category: "validation",
		Action:   "詳細の文字数を減らしてください。",
	}
}

// NewInvalidDueDateError は無効な期日エラーを生成する。
func NewInvalidDueDateError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDueDate,
		Message:  fmt.Sprintf("無効な期日です: %s", value),
		Category: "validation",
		Action:   "期日はYYYY-MM-DD形式で指定してください。",
	}
}

// NewInvalidStatusError は無効なステータスエラーを生成する。
func NewInvalidStatusError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効なステータスです: %s", value),
		Category: "validation",
		Action:   "ステータスには To Do、In Progress、Completed のいずれかを指定してください。",
	}
}

// NewNoUpdateFieldsError は更新フィールド未指定エラーを生成する。
func NewNoUpdateFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeNoUpdateFields,
		Message:  "更新するフィールドが指定されていません。",
		Category: "validation",
		Action:   "少なくとも1つのフィールドを指定してください。",
	}
}
