// Package client はタスクボードAPIのクライアントライブラリを提供する。
//
// UIツールキットに依存しない形で、セッション管理（SessionManager）、
// タスクキャッシュ（TaskCache）、ボード射影（Project/Filter）、
// リトライポリシー（RetryPolicy）、ドラッグ&ドロップ状態機械（DragMachine）
// を実装する。各型は単一ゴルーチン（UIイベントループ相当）からの利用を想定する。
package client

import "errors"

// ErrorKind はAPI呼び出し失敗の分類を表す。
type ErrorKind int

const (
	// ErrorKindNetwork はレスポンスを受信できなかった失敗。
	ErrorKindNetwork ErrorKind = iota
	// ErrorKindAuthentication は認証失敗（401）。セッション破棄を伴う。
	ErrorKindAuthentication
	// ErrorKindNotFound は対象未検出またはアクセス拒否（403/404）。
	ErrorKindNotFound
	// ErrorKindValidation は入力検証エラー（400/422）。
	ErrorKindValidation
	// ErrorKindServer はサーバー側の失敗（5xx）。リトライ対象。
	ErrorKindServer
	// ErrorKindUnknown は上記以外の失敗。
	ErrorKindUnknown
)

// CallError はAPI呼び出しの失敗を表す。
// 生のトランスポートエラーはこの型に変換され、パッケージ外へは漏れない。
type CallError struct {
	Kind       ErrorKind
	StatusCode int    // レスポンスを受信できなかった場合は0
	Message    string // ユーザーに表示可能なメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *CallError) Error() string {
	return e.Message
}

// ClassifyStatus はHTTPステータスコードをエラー分類にマッピングする。
func ClassifyStatus(statusCode int) ErrorKind {
	switch {
	case statusCode == 401:
		return ErrorKindAuthentication
	case statusCode == 403 || statusCode == 404:
		return ErrorKindNotFound
	case statusCode == 400 || statusCode == 422:
		return ErrorKindValidation
	case statusCode >= 500:
		return ErrorKindServer
	default:
		return ErrorKindUnknown
	}
}

// UserMessage は分類ごとのデフォルトのユーザー向けメッセージを返す。
func (k ErrorKind) UserMessage() string {
	switch k {
	case ErrorKindNetwork:
		return "ネットワークエラーが発生しました。接続を確認してください。"
	case ErrorKindAuthentication:
		return "認証の有効期限が切れました。再度ログインしてください。"
	case ErrorKindNotFound:
		return "対象のタスクが見つかりません。"
	case ErrorKindValidation:
		return "入力内容に誤りがあります。"
	case ErrorKindServer:
		return "サーバーエラーが発生しました。しばらく待ってから再度お試しください。"
	default:
		return "予期しないエラーが発生しました。"
	}
}

// IsAuthenticationError はエラーが認証失敗（401）であるかを返す。
func IsAuthenticationError(err error) bool {
	var callErr *CallError
	return errors.As(err, &callErr) && callErr.Kind == ErrorKindAuthentication
}

// userMessage はエラーからユーザー向けメッセージを取り出す。
// CallError以外（想定外のエラー）はUnknown扱いになる。
func userMessage(err error) string {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Message
	}
	return ErrorKindUnknown.UserMessage()
}
