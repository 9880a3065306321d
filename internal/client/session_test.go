package client

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hitoshi/taskboard/internal/model"
)

// --- モック ---

type mockLoginAPI struct {
	loginFn func(ctx context.Context, username, password string) (*LoginResponse, error)
}

func (m *mockLoginAPI) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	return m.loginFn(ctx, username, password)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func successLoginAPI() *mockLoginAPI {
	return &mockLoginAPI{
		loginFn: func(ctx context.Context, username, password string) (*LoginResponse, error) {
			return &LoginResponse{
				AccessToken: "token-abc",
				UserID:      "u1",
				Username:    "hitoshi",
				FirstName:   "仁",
				LastName:    "市川",
			}, nil
		},
	}
}

func newTestSessionManager(t *testing.T, api LoginAPI) (*SessionManager, *FileSessionStore) {
	t.Helper()
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))
	return NewSessionManager(api, store, discardLogger(), nil), store
}

// --- テスト ---

func TestSessionManager_Login_Success(t *testing.T) {
	m, store := newTestSessionManager(t, successLoginAPI())

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	if !m.Login(context.Background(), "hitoshi", "password123") {
		t.Fatalf("Login が失敗した: %s", m.LastError())
	}

	if !m.HasValidSession() {
		t.Error("ログイン後はセッションが有効であるべき")
	}
	if m.Token() != "token-abc" {
		t.Errorf("Token = %s, want token-abc", m.Token())
	}
	profile, ok := m.Profile()
	if !ok || profile.UserID != "u1" || profile.FirstName != "仁" {
		t.Errorf("プロファイルが期待と異なる: %+v", profile)
	}
	if m.LastError() != "" {
		t.Errorf("成功時のLastErrorは空であるべき: %s", m.LastError())
	}

	// セッションは24時間の有効期限付きで永続化される
	saved, err := store.Load()
	if err != nil || saved == nil {
		t.Fatalf("セッションが永続化されていない: %v", err)
	}
	if !saved.ExpiresAt.Equal(base.Add(24 * time.Hour)) {
		t.Errorf("有効期限 = %v, want %v", saved.ExpiresAt, base.Add(24*time.Hour))
	}
}

func TestSessionManager_Login_InvalidCredentials(t *testing.T) {
	m, store := newTestSessionManager(t, &mockLoginAPI{
		loginFn: func(ctx context.Context, username, password string) (*LoginResponse, error) {
			return nil, &CallError{Kind: ErrorKindAuthentication, StatusCode: 401}
		},
	})

	if m.Login(context.Background(), "hitoshi", "wrong") {
		t.Fatal("認証失敗でtrueが返った")
	}
	if m.LastError() != "ユーザー名またはパスワードが正しくありません。" {
		t.Errorf("エラーメッセージ = %s", m.LastError())
	}
	// 失敗時は一切の部分状態を残さない
	if m.HasValidSession() || m.Token() != "" {
		t.Error("失敗時にセッション状態が残っている")
	}
	if saved, _ := store.Load(); saved != nil {
		t.Error("失敗時にセッションが永続化された")
	}
}

func TestSessionManager_Login_NetworkError(t *testing.T) {
	m, _ := newTestSessionManager(t, &mockLoginAPI{
		loginFn: func(ctx context.Context, username, password string) (*LoginResponse, error) {
			return nil, &CallError{
				Kind:    ErrorKindNetwork,
				Message: ErrorKindNetwork.UserMessage(),
			}
		},
	})

	if m.Login(context.Background(), "hitoshi", "password123") {
		t.Fatal("ネットワークエラーでtrueが返った")
	}
	if m.LastError() != ErrorKindNetwork.UserMessage() {
		t.Errorf("エラーメッセージ = %s", m.LastError())
	}
}

func TestSessionManager_Logout(t *testing.T) {
	logoutCalled := 0
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))
	m := NewSessionManager(successLoginAPI(), store, discardLogger(), func() { logoutCalled++ })

	if !m.Login(context.Background(), "hitoshi", "password123") {
		t.Fatal("ログインに失敗した")
	}
	m.Logout()

	if m.HasValidSession() || m.Token() != "" {
		t.Error("ログアウト後にセッション状態が残っている")
	}
	if saved, _ := store.Load(); saved != nil {
		t.Error("ログアウト後に永続化セッションが残っている")
	}
	if logoutCalled != 1 {
		t.Errorf("onLogoutフックの呼び出し回数 = %d, want 1", logoutCalled)
	}
}

func TestSessionManager_InitializeAuth_RestoresSession(t *testing.T) {
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))

	// 前プロセスでのログインを再現
	first := NewSessionManager(successLoginAPI(), store, discardLogger(), nil)
	if !first.Login(context.Background(), "hitoshi", "password123") {
		t.Fatal("ログインに失敗した")
	}

	// 再起動後のプロセス
	second := NewSessionManager(successLoginAPI(), store, discardLogger(), nil)
	second.InitializeAuth()

	if !second.HasValidSession() {
		t.Error("再起動後にセッションが復元されるべき")
	}
	if second.Token() != "token-abc" {
		t.Errorf("復元されたトークン = %s, want token-abc", second.Token())
	}
}

func TestSessionManager_InitializeAuth_ExpiredSessionCleared(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileSessionStore(path)

	expired := &Session{
		Token:     "old-token",
		Profile:   model.Profile{UserID: "u1"},
		IssuedAt:  time.Now().Add(-48 * time.Hour),
		ExpiresAt: time.Now().Add(-24 * time.Hour),
	}
	if err := store.Save(expired); err != nil {
		t.Fatalf("セッションの保存に失敗した: %v", err)
	}

	m := NewSessionManager(successLoginAPI(), store, discardLogger(), nil)
	m.InitializeAuth()

	if m.HasValidSession() {
		t.Error("期限切れセッションが復元された")
	}
	if saved, _ := store.Load(); saved != nil {
		t.Error("期限切れセッションが破棄されていない")
	}
}

func TestSessionManager_InitializeAuth_NoSavedSession(t *testing.T) {
	m, _ := newTestSessionManager(t, successLoginAPI())
	m.InitializeAuth()

	if m.HasValidSession() {
		t.Error("保存なしでセッションが有効になった")
	}
}

func TestSessionManager_HasValidSession_Expiry(t *testing.T) {
	m, _ := newTestSessionManager(t, successLoginAPI())

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	if !m.Login(context.Background(), "hitoshi", "password123") {
		t.Fatal("ログインに失敗した")
	}
	if !m.HasValidSession() {
		t.Fatal("直後はセッションが有効であるべき")
	}

	// 有効期限を過ぎると無効になる
	m.now = func() time.Time { return base.Add(24*time.Hour + time.Second) }
	if m.HasValidSession() {
		t.Error("期限切れセッションが有効と判定された")
	}
}

func TestSessionManager_HandleUnauthorized(t *testing.T) {
	logoutCalled := 0
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))
	m := NewSessionManager(successLoginAPI(), store, discardLogger(), func() { logoutCalled++ })

	// セッションがない状態では何もしない
	m.HandleUnauthorized()
	if logoutCalled != 0 {
		t.Error("セッションなしでonLogoutが呼ばれた")
	}

	if !m.Login(context.Background(), "hitoshi", "password123") {
		t.Fatal("ログインに失敗した")
	}
	m.HandleUnauthorized()

	if m.HasValidSession() {
		t.Error("401受信後もセッションが残っている")
	}
	if logoutCalled != 1 {
		t.Errorf("onLogoutフックの呼び出し回数 = %d, want 1", logoutCalled)
	}
}

func TestFileSessionStore_CorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileSessionStore(path)

	if err := store.Save(&Session{Token: "t"}); err != nil {
		t.Fatalf("保存に失敗した: %v", err)
	}

	// ファイルを壊す
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("ファイルの書き込みに失敗した: %v", err)
	}

	saved, err := store.Load()
	if err != nil {
		t.Errorf("壊れたファイルはエラーではなく未保存として扱うべき: %v", err)
	}
	if saved != nil {
		t.Error("壊れたファイルからセッションが返った")
	}
}
