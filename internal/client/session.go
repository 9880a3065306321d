package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hitoshi/taskboard/internal/model"
)

// DefaultSessionTTL はセッションの有効期間（発行から24時間）。
const DefaultSessionTTL = 24 * time.Hour

// Session はクライアント側のログインセッションを表す。
// トークンとユーザープロファイルを有効期限付きで保持する。
type Session struct {
	Token     string        `json:"token"`
	Profile   model.Profile `json:"profile"`
	IssuedAt  time.Time     `json:"issued_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// SessionStore はセッションのプロセス再起動をまたぐ永続化を定義する。
type SessionStore interface {
	// Load は保存済みセッションを読み込む。未保存の場合はnilを返す。
	Load() (*Session, error)
	// Save はセッションを保存する。
	Save(session *Session) error
	// Clear は保存済みセッションを破棄する。未保存でもエラーにしない。
	Clear() error
}

// FileSessionStore はJSONファイルによるSessionStoreの実装。
type FileSessionStore struct {
	path string
}

// NewFileSessionStore は指定パスにセッションを保存するFileSessionStoreを生成する。
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// Load は保存済みセッションを読み込む。ファイルがない場合はnilを返す。
func (s *FileSessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		// 壊れたセッションファイルは未保存として扱う
		return nil, nil
	}
	return &session, nil
}

// Save はセッションをJSONファイルに保存する。
// トークンを含むためパーミッションは0600とする。
func (s *FileSessionStore) Save(session *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear はセッションファイルを削除する。
func (s *FileSessionStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// LoginAPI はSessionManagerが必要とするAPIクライアントの部分集合。
type LoginAPI interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
}

// SessionManager は現在のセッション状態を管理する。
// ログイン・ログアウト・再起動時の復元・期限切れ判定を担う。
// 単一ゴルーチンからの利用を想定する。
type SessionManager struct {
	api    LoginAPI
	store  SessionStore
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time // テスト用に差し替え可能

	session   *Session
	lastError string
	onLogout  func() // ログイン画面への遷移フック。nil可。
}

// NewSessionManager はSessionManagerを生成する。
// onLogoutはログアウト時（明示・暗黙とも）に呼ばれる画面遷移フック。nil可。
func NewSessionManager(api LoginAPI, store SessionStore, logger *slog.Logger, onLogout func()) *SessionManager {
	return &SessionManager{
		api:      api,
		store:    store,
		logger:   logger,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		onLogout: onLogout,
	}
}

// InitializeAuth はプロセス起動時に永続化済みセッションを復元する。
// 保存がない、または期限切れの場合はセッションを空のままにする。
func (m *SessionManager) InitializeAuth() {
	saved, err := m.store.Load()
	if err != nil {
		m.logger.Warn("セッションの復元に失敗しました", slog.String("error", err.Error()))
		return
	}
	if saved == nil {
		return
	}
	if saved.Token == "" || saved.Profile.UserID == "" || !m.now().Before(saved.ExpiresAt) {
		// 期限切れセッションは残さない
		if err := m.store.Clear(); err != nil {
			m.logger.Warn("期限切れセッションの破棄に失敗しました", slog.String("error", err.Error()))
		}
		return
	}
	m.session = saved
}

// Login はクレデンシャルで認証し、成功時にセッションを確立・永続化する。
// 失敗時は状態を変更せず、表示用のエラーメッセージを記録してfalseを返す。
func (m *SessionManager) Login(ctx context.Context, username, password string) bool {
	m.lastError = ""

	resp, err := m.api.Login(ctx, username, password)
	if err != nil {
		if IsAuthenticationError(err) {
			m.lastError = "ユーザー名またはパスワードが正しくありません。"
		} else {
			m.lastError = userMessage(err)
		}
		return false
	}

	now := m.now()
	session := &Session{
		Token: resp.AccessToken,
		Profile: model.Profile{
			UserID:    resp.UserID,
			Username:  resp.Username,
			FirstName: resp.FirstName,
			LastName:  resp.LastName,
		},
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.session = session
	if err := m.store.Save(session); err != nil {
		// 永続化失敗はログのみ。メモリ上のセッションは有効なまま。
		m.logger.Warn("セッションの保存に失敗しました", slog.String("error", err.Error()))
	}
	return true
}

// Logout はセッション状態を無条件に破棄し、ログイン画面へ遷移させる。
func (m *SessionManager) Logout() {
	m.session = nil
	m.lastError = ""
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("セッションの破棄に失敗しました", slog.String("error", err.Error()))
	}
	if m.onLogout != nil {
		m.onLogout()
	}
}

// HasValidSession はトークンとプロファイルが存在し、
// 有効期限内である場合のみtrueを返す。
func (m *SessionManager) HasValidSession() bool {
	if m.session == nil || m.session.Token == "" || m.session.Profile.UserID == "" {
		return false
	}
	return m.now().Before(m.session.ExpiresAt)
}

// Token は現在のトークンを返す。セッションがない場合は空文字列。
func (m *SessionManager) Token() string {
	if m.session == nil {
		return ""
	}
	return m.session.Token
}

// Profile は現在のユーザープロファイルを返す。
// セッションがない場合は2番目の戻り値がfalseになる。
func (m *SessionManager) Profile() (model.Profile, bool) {
	if m.session == nil {
		return model.Profile{}, false
	}
	return m.session.Profile, true
}

// LastError は直近の操作のエラーメッセージを返す。成功時は空文字列。
func (m *SessionManager) LastError() string {
	return m.lastError
}

// HandleUnauthorized は任意のAPI呼び出しが401を受けた際の暗黙ログアウト。
// 期限切れセッションが動き続けることを防ぐ。
func (m *SessionManager) HandleUnauthorized() {
	if m.session == nil {
		return
	}
	m.logger.Info("認証エラーを受信したためセッションを破棄します")
	m.Logout()
}
