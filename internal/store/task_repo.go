package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hitoshi/taskboard/internal/model"
)

// tasksFileName はタスクコレクションのファイル名。
const tasksFileName = "tasks.json"

// JSONTaskRepo はJSONファイルを使用したタスクリポジトリ。
// コレクション内の並び順（挿入順）をすべての操作で保持する。
type JSONTaskRepo struct {
	file *jsonFile
}

// NewJSONTaskRepo はdataDir配下のtasks.jsonを開いてJSONTaskRepoを生成する。
func NewJSONTaskRepo(dataDir string) (*JSONTaskRepo, error) {
	file, err := newJSONFile(filepath.Join(dataDir, tasksFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks store: %w", err)
	}
	return &JSONTaskRepo{file: file}, nil
}

// Close はファイル監視を停止する。
func (r *JSONTaskRepo) Close() error {
	return r.file.Close()
}

// ListByUser は指定ユーザーの全タスクを挿入順で返す。
func (r *JSONTaskRepo) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.file.load(&tasks); err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	result := make([]model.Task, 0, len(tasks))
	for i := range tasks {
		if tasks[i].UserID == userID {
			result = append(result, tasks[i])
		}
	}
	return result, nil
}

// FindByID は指定IDのタスクを取得する。未存在の場合はnilを返す。
func (r *JSONTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var tasks []model.Task
	if err := r.file.load(&tasks); err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	for i := range tasks {
		if tasks[i].ID == id {
			t := tasks[i]
			return &t, nil
		}
	}
	return nil, nil
}

// Create はタスクをコレクション末尾に追加する。
func (r *JSONTaskRepo) Create(ctx context.Context, task *model.Task) error {
	var tasks []model.Task
	err := r.file.mutate(&tasks, func() (bool, error) {
		tasks = append(tasks, *task)
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Update は指定IDのタスクに部分更新を適用し、更新後のタスクを返す。
// 位置は変更しない（移動したタスクも元の相対位置を保つ）。
// 未存在の場合は(nil, nil)を返す。
func (r *JSONTaskRepo) Update(ctx context.Context, id string, update model.TaskUpdate) (*model.Task, error) {
	var tasks []model.Task
	var updated *model.Task
	err := r.file.mutate(&tasks, func() (bool, error) {
		for i := range tasks {
			if tasks[i].ID != id {
				continue
			}
			if update.Title != nil {
				tasks[i].Title = *update.Title
			}
			if update.Details != nil {
				tasks[i].Details = *update.Details
			}
			if update.DueDate != nil {
				tasks[i].DueDate = *update.DueDate
			}
			if update.Status != nil {
				tasks[i].Status = *update.Status
			}
			t := tasks[i]
			updated = &t
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return updated, nil
}

// Delete は指定IDのタスクを削除する。削除した場合はtrueを返す。
func (r *JSONTaskRepo) Delete(ctx context.Context, id string) (bool, error) {
	var tasks []model.Task
	deleted := false
	err := r.file.mutate(&tasks, func() (bool, error) {
		for i := range tasks {
			if tasks[i].ID == id {
				tasks = append(tasks[:i], tasks[i+1:]...)
				deleted = true
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ TaskRepository = (*JSONTaskRepo)(nil)
