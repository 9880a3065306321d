// Package task はタスクのドメインサービスを提供する。
// 入力検証・所有権チェック・サニタイズを行い、リポジトリへのCRUDを仲介する。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/taskboard/internal/model"
	"github.com/hitoshi/taskboard/internal/security"
	"github.com/hitoshi/taskboard/internal/store"
)

// dueDateLayout は期日のフォーマット（ISO 8601の日付部分）。
const dueDateLayout = "2006-01-02"

// CreateRequest はタスク作成の入力を表す。
// ステータスは受け付けない。新規タスクは常にTo Doで作成される。
type CreateRequest struct {
	Title   string
	Details string
	DueDate string
}

// Service はタスクドメインサービス。
type Service struct {
	tasks     store.TaskRepository
	sanitizer security.TextSanitizerService
	newID     func() string // テスト用に差し替え可能
}

// NewService はServiceを生成する。
func NewService(tasks store.TaskRepository, sanitizer security.TextSanitizerService) *Service {
	return &Service{
		tasks:     tasks,
		sanitizer: sanitizer,
		newID:     uuid.NewString,
	}
}

// List は指定ユーザーの全タスクを挿入順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]model.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Create は新しいタスクを作成する。
// 呼び出し側がどんなステータスを指定してもTo Doで作成される。
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*model.Task, error) {
	title, err := s.validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	details, err := s.validateDetails(req.Details)
	if err != nil {
		return nil, err
	}
	dueDate, err := validateDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	t := &model.Task{
		ID:      s.newID(),
		UserID:  userID,
		Title:   title,
		Details: details,
		DueDate: dueDate,
		Status:  model.StatusToDo,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	slog.Info("task created",
		slog.String("task_id", t.ID),
		slog.String("user_id", userID),
	)
	return t, nil
}

// Update は指定タスクに部分更新を適用し、更新後のタスクを返す。
// 他ユーザー所有のタスクは存在しないものとして扱う。
func (s *Service) Update(ctx context.Context, userID, taskID string, update model.TaskUpdate) (*model.Task, error) {
	if update.IsEmpty() {
		return nil, model.NewNoUpdateFieldsError()
	}

	if err := s.validateUpdate(&update); err != nil {
		return nil, err
	}

	if err := s.checkOwnership(ctx, userID, taskID); err != nil {
		return nil, err
	}

	updated, err := s.tasks.Update(ctx, taskID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if updated == nil {
		// 所有権チェック後に外部編集で消えた場合
		return nil, model.NewTaskNotFoundError(taskID)
	}

	slog.Info("task updated",
		slog.String("task_id", taskID),
		slog.String("user_id", userID),
	)
	return updated, nil
}

// Delete は指定タスクを削除する。
// 他ユーザー所有のタスクは存在しないものとして扱う。
func (s *Service) Delete(ctx context.Context, userID, taskID string) error {
	if err := s.checkOwnership(ctx, userID, taskID); err != nil {
		return err
	}

	deleted, err := s.tasks.Delete(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return model.NewTaskNotFoundError(taskID)
	}

	slog.Info("task deleted",
		slog.String("task_id", taskID),
		slog.String("user_id", userID),
	)
	return nil
}

// checkOwnership はタスクが存在し、指定ユーザーの所有であることを確認する。
func (s *Service) checkOwnership(ctx context.Context, userID, taskID string) error {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to find task: %w", err)
	}
	if t == nil || t.UserID != userID {
		return model.NewTaskNotFoundError(taskID)
	}
	return nil
}

// validateUpdate は部分更新の各フィールドを検証し、正規化する。
func (s *Service) validateUpdate(update *model.TaskUpdate) error {
	if update.Title != nil {
		title, err := s.validateTitle(*update.Title)
		if err != nil {
			return err
		}
		update.Title = &title
	}
	if update.Details != nil {
		details, err := s.validateDetails(*update.Details)
		if err != nil {
			return err
		}
		update.Details = &details
	}
	if update.DueDate != nil {
		dueDate, err := validateDueDate(*update.DueDate)
		if err != nil {
			return err
		}
		update.DueDate = &dueDate
	}
	if update.Status != nil && !update.Status.IsValid() {
		return model.NewInvalidStatusError(string(*update.Status))
	}
	return nil
}

// validateTitle はタイトルをトリム・サニタイズし、長さを検証する。
func (s *Service) validateTitle(title string) (string, error) {
	title = strings.TrimSpace(s.sanitizer.Sanitize(title))
	if title == "" {
		return "", model.NewInvalidTitleError("タイトルが空です")
	}
	if utf8.RuneCountInString(title) > model.MaxTitleLength {
		return "", model.NewInvalidTitleError("タイトルが長すぎます")
	}
	return title, nil
}

// validateDetails は詳細をトリム・サニタイズし、長さを検証する。
func (s *Service) validateDetails(details string) (string, error) {
	details = strings.TrimSpace(s.sanitizer.Sanitize(details))
	if utf8.RuneCountInString(details) > model.MaxDetailsLength {
		return "", model.NewInvalidDetailsError()
	}
	return details, nil
}

// validateDueDate は期日がYYYY-MM-DD形式の有効な日付であることを検証する。
func validateDueDate(value string) (string, error) {
	parsed, err := time.Parse(dueDateLayout, value)
	if err != nil {
		return "", model.NewInvalidDueDateError(value)
	}
	return parsed.Format(dueDateLayout), nil
}
