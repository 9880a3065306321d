// Package logger はタスクボード全体で使うJSON構造化ログの初期化を提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup は指定writerへJSON形式で出力するslog.Loggerを生成する。
// レベルはInfo以上。Debugはログ収集基盤に流さない方針のため抑制する。
func Setup(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}

// SetupDefault はSetupで生成したロガーをプロセスのデフォルトに設定する。
// wがnilの場合はos.Stdoutへ出力する（コンテナ運用での標準）。
// 起動時にapp.Initから一度だけ呼ばれる。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(Setup(w))
}
