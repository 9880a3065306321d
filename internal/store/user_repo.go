package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hitoshi/taskboard/internal/model"
)

// usersFileName はユーザーコレクションのファイル名。
const usersFileName = "users.json"

// JSONUserRepo はJSONファイルを使用したユーザーリポジトリ。
type JSONUserRepo struct {
	file *jsonFile
}

// NewJSONUserRepo はdataDir配下のusers.jsonを開いてJSONUserRepoを生成する。
func NewJSONUserRepo(dataDir string) (*JSONUserRepo, error) {
	file, err := newJSONFile(filepath.Join(dataDir, usersFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open users store: %w", err)
	}
	return &JSONUserRepo{file: file}, nil
}

// Close はファイル監視を停止する。
func (r *JSONUserRepo) Close() error {
	return r.file.Close()
}

// FindByUsername は指定ユーザー名のユーザーを取得する。未存在の場合はnilを返す。
func (r *JSONUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var users []model.User
	if err := r.file.load(&users); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for i := range users {
		if users[i].Username == username {
			u := users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// FindByID は指定IDのユーザーを取得する。未存在の場合はnilを返す。
func (r *JSONUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var users []model.User
	if err := r.file.load(&users); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for i := range users {
		if users[i].ID == id {
			u := users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// Create はユーザーを追加する。ユーザー名が重複する場合はエラーを返す。
func (r *JSONUserRepo) Create(ctx context.Context, user *model.User) error {
	var users []model.User
	err := r.file.mutate(&users, func() (bool, error) {
		for i := range users {
			if users[i].Username == user.Username {
				return false, fmt.Errorf("username already exists: %s", user.Username)
			}
		}
		users = append(users, *user)
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*JSONUserRepo)(nil)
