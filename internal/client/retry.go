package client

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy はAPI呼び出しのリトライ戦略を表す。
// 最大試行回数・固定バックオフ遅延・リトライ可否述語を独立した
// オブジェクトとして保持し、単体でテスト可能にする。
type RetryPolicy struct {
	MaxAttempts int                   // 初回を含む最大試行回数
	Backoff     time.Duration         // 試行間の固定待ち時間
	Retryable   func(err error) bool  // このエラーで再試行するか
	sleep       func(d time.Duration) // テスト用に差し替え可能
}

// DefaultRetryPolicy はデフォルトのリトライポリシーを返す。
// 一時的な失敗（ネットワーク/5xx）のみを最大3回試行し、
// 認証失敗（401）は決して再試行しない。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     500 * time.Millisecond,
		Retryable:   IsRetryable,
	}
}

// IsRetryable はエラーが再試行に値する一時的な失敗かを返す。
// ネットワークエラーと5xxのみが対象。401を含む4xxは対象外。
func IsRetryable(err error) bool {
	var callErr *CallError
	if !errors.As(err, &callErr) {
		return false
	}
	return callErr.Kind == ErrorKindNetwork || callErr.Kind == ErrorKindServer
}

// Do はfnをポリシーに従って実行する。
// 成功するか、リトライ対象外のエラーが出るか、試行回数を使い切るまで繰り返す。
// コンテキストのキャンセルでバックオフ待ちを中断し、最後のエラーを返す。
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(lastErr) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}
		if err := p.wait(ctx); err != nil {
			return lastErr
		}
	}
	return lastErr
}

// wait はバックオフ時間だけ待機する。コンテキストのキャンセルで中断する。
func (p RetryPolicy) wait(ctx context.Context) error {
	if p.Backoff <= 0 {
		return ctx.Err()
	}
	if p.sleep != nil {
		p.sleep(p.Backoff)
		return ctx.Err()
	}

	timer := time.NewTimer(p.Backoff)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
