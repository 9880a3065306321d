package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskboard/internal/middleware"
	"github.com/hitoshi/taskboard/internal/model"
	"github.com/hitoshi/taskboard/internal/task"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	List(ctx context.Context, userID string) ([]model.Task, error)
	Create(ctx context.Context, userID string, req task.CreateRequest) (*model.Task, error)
	Update(ctx context.Context, userID, taskID string, update model.TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
}

// TaskMetrics はタスク操作のメトリクス記録インターフェース。
type TaskMetrics interface {
	RecordTaskOperation(op string)
}

// noopTaskMetrics はメトリクス未設定時のフォールバック。
type noopTaskMetrics struct{}

func (noopTaskMetrics) RecordTaskOperation(op string) {}

// createTaskRequest はタスク作成APIのリクエストボディ。
// statusフィールドは互換性のため受理するが、常に無視される
// （新規タスクは必ずTo Doで作成される）。
type createTaskRequest struct {
	Title   string `json:"title"`
	Details string `json:"details"`
	DueDate string `json:"due_date"`
	Status  string `json:"status"`
}

// taskListResponse はタスク一覧APIのレスポンスボディ。
type taskListResponse struct {
	Tasks []model.Task `json:"tasks"`
	Total int          `json:"total"`
}

// deleteResponse はタスク削除APIのレスポンスボディ。
type deleteResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

// TaskHandler はタスクCRUDのHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
	metrics TaskMetrics
}

// NewTaskHandler はTaskHandlerを生成する。metricsはnilでもよい。
func NewTaskHandler(service TaskServiceInterface, metrics TaskMetrics) *TaskHandler {
	if metrics == nil {
		metrics = noopTaskMetrics{}
	}
	return &TaskHandler{
		service: service,
		metrics: metrics,
	}
}

// ListTasks は認証済みユーザーの全タスクを返す。
// GET /api/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenInvalidError())
		return
	}

	tasks, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	h.metrics.RecordTaskOperation("list")
	writeJSON(w, http.StatusOK, taskListResponse{
		Tasks: tasks,
		Total: len(tasks),
	})
}

// CreateTask は新しいタスクを作成する。
// POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenInvalidError())
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST_BODY",
			Message:  "リクエストボディを解析できません。",
			Category: "validation",
			Action:   "JSONフォーマットを確認してください。",
		})
		return
	}

	// req.Statusは意図的に渡さない（To Do固定）
	created, err := h.service.Create(r.Context(), userID, task.CreateRequest{
		Title:   req.Title,
		Details: req.Details,
		DueDate: req.DueDate,
	})
	if err != nil {
		h.writeServiceError(w, err, "failed to create task")
		return
	}

	h.metrics.RecordTaskOperation("create")
	writeJSON(w, http.StatusOK, created)
}

// UpdateTask は既存タスクに部分更新を適用する。
// PUT /api/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenInvalidError())
		return
	}
	taskID := chi.URLParam(r, "id")

	var update model.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST_BODY",
			Message:  "リクエストボディを解析できません。",
			Category: "validation",
			Action:   "JSONフォーマットを確認してください。",
		})
		return
	}

	updated, err := h.service.Update(r.Context(), userID, taskID, update)
	if err != nil {
		h.writeServiceError(w, err, "failed to update task")
		return
	}

	h.metrics.RecordTaskOperation("update")
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTask は既存タスクを削除する。
// DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenInvalidError())
		return
	}
	taskID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, taskID); err != nil {
		h.writeServiceError(w, err, "failed to delete task")
		return
	}

	h.metrics.RecordTaskOperation("delete")
	writeJSON(w, http.StatusOK, deleteResponse{
		Message: "タスクを削除しました。",
		TaskID:  taskID,
	})
}

// writeServiceError はサービス層のエラーをHTTPステータスにマッピングして書き込む。
func (h *TaskHandler) writeServiceError(w http.ResponseWriter, err error, logMsg string) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, apiErrorStatus(apiErr), apiErr)
		return
	}
	slog.Error(logMsg, slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// apiErrorStatus はAPIErrorのコードをHTTPステータスコードにマッピングする。
func apiErrorStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeTaskNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidCredentials, model.ErrCodeTokenMissing, model.ErrCodeTokenInvalid:
		return http.StatusUnauthorized
	case model.ErrCodeInvalidTitle, model.ErrCodeInvalidDetails, model.ErrCodeInvalidDueDate,
		model.ErrCodeInvalidStatus, model.ErrCodeNoUpdateFields:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
