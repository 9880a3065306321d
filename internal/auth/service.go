// Package auth は認証ドメインサービスを提供する。
// ユーザー名・パスワードによる認証と、署名付きトークンの発行・検証を行う。
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/taskboard/internal/model"
)

// UserFinder は認証サービスが必要とするユーザーリポジトリの部分集合。
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	TokenSecret string        // トークン署名鍵
	TokenTTL    time.Duration // トークンの有効期間
}

// LoginResult はログイン成功時の結果を表す。
type LoginResult struct {
	Token   string
	Profile model.Profile
}

// Service は認証ドメインサービス。
type Service struct {
	users  UserFinder
	config ServiceConfig
	now    func() time.Time // テスト用に差し替え可能
}

// NewService はServiceを生成する。
func NewService(users UserFinder, config ServiceConfig) *Service {
	return &Service{
		users:  users,
		config: config,
		now:    time.Now,
	}
}

// Login はユーザー名とパスワードで認証し、アクセストークンを発行する。
// 認証失敗時はユーザーの存在有無を区別せず同じエラーを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !verifyPassword(user.Password, password) {
		slog.Warn("failed authentication attempt",
			slog.String("username", username),
		)
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{
		Token:   token,
		Profile: user.Profile(),
	}, nil
}

// VerifyToken はアクセストークンを検証し、対応するユーザーを返す。
// 署名不正・期限切れ・ユーザー不在のいずれもTOKEN_INVALIDエラーになる。
func (s *Service) VerifyToken(ctx context.Context, token string) (*model.User, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !parsed.Valid {
		return nil, model.NewTokenInvalidError()
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, model.NewTokenInvalidError()
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, model.NewTokenInvalidError()
	}

	return user, nil
}

// issueToken はユーザーIDをsubjectとするHS256署名トークンを生成する。
func (s *Service) issueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.TokenSecret))
}

// verifyPassword は格納済みクレデンシャルと入力パスワードを照合する。
// bcryptハッシュを基本とし、旧データのプレーンテキストには
// 定数時間比較でフォールバックする。
func verifyPassword(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// HashPassword はパスワードのbcryptハッシュを生成する。
// ユーザープロビジョニング（useraddサブコマンド）で使用する。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
