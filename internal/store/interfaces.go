package store

import (
	"context"

	"github.com/hitoshi/taskboard/internal/model"
)

// UserRepository はユーザーコレクションへのアクセスを定義する。
type UserRepository interface {
	// FindByUsername は指定ユーザー名のユーザーを取得する。未存在の場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// FindByID は指定IDのユーザーを取得する。未存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// Create はユーザーを追加する。ユーザー名が重複する場合はエラーを返す。
	Create(ctx context.Context, user *model.User) error
}

// TaskRepository はタスクコレクションへのアクセスを定義する。
// 並び順はファイル内の出現順（挿入順）を常に保持する。
type TaskRepository interface {
	// ListByUser は指定ユーザーの全タスクを挿入順で返す。
	ListByUser(ctx context.Context, userID string) ([]model.Task, error)
	// FindByID は指定IDのタスクを取得する。未存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)
	// Create はタスクを末尾に追加する。IDは呼び出し前に採番済みであること。
	Create(ctx context.Context, task *model.Task) error
	// Update は指定IDのタスクに部分更新を適用し、更新後のタスクを返す。
	// 未存在の場合は(nil, nil)を返す。
	Update(ctx context.Context, id string, update model.TaskUpdate) (*model.Task, error)
	// Delete は指定IDのタスクを削除する。削除した場合はtrueを返す。
	Delete(ctx context.Context, id string) (bool, error)
}
