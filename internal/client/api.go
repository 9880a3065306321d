package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/taskboard/internal/model"
)

// LoginResponse はログインAPIのレスポンスを表す。
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

// taskListResponse はタスク一覧APIのレスポンスを表す。
type taskListResponse struct {
	Tasks []model.Task `json:"tasks"`
	Total int          `json:"total"`
}

// createTaskRequest はタスク作成APIのリクエストボディ。
// statusは送信しない（サーバー側でTo Do固定）。
type createTaskRequest struct {
	Title   string `json:"title"`
	Details string `json:"details"`
	DueDate string `json:"due_date"`
}

// errorResponseBody はサーバーの統一エラーフォーマット。
type errorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// APIClient はタスクボードAPIのHTTPクライアント。
// トランスポートの失敗とHTTPエラーステータスをCallErrorに変換して返す。
// 一時的な失敗はRetryPolicyに従って再試行する。
type APIClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	retry      RetryPolicy
}

// NewAPIClient はAPIClientの新しいインスタンスを生成する。
// baseURLは末尾スラッシュなしのAPIサーバーのベースURL。
func NewAPIClient(httpClient *http.Client, logger *slog.Logger, baseURL string, retry RetryPolicy) *APIClient {
	return &APIClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		retry:      retry,
	}
}

// Login はユーザー名とパスワードで認証し、アクセストークンを取得する。
// POST /api/auth/login
func (c *APIClient) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}
	var resp LoginResponse
	if err := c.call(ctx, http.MethodPost, "/api/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTasks は認証済みユーザーの全タスクを取得する。
// GET /api/tasks
func (c *APIClient) ListTasks(ctx context.Context, token string) ([]model.Task, error) {
	var resp taskListResponse
	if err := c.call(ctx, http.MethodGet, "/api/tasks", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// CreateTask は新しいタスクを作成し、サーバーが採番したタスクを返す。
// POST /api/tasks
func (c *APIClient) CreateTask(ctx context.Context, token, title, details, dueDate string) (*model.Task, error) {
	body := createTaskRequest{
		Title:   title,
		Details: details,
		DueDate: dueDate,
	}
	var resp model.Task
	if err := c.call(ctx, http.MethodPost, "/api/tasks", token, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTask は指定タスクの部分更新を送信し、サーバー確定後のタスクを返す。
// 変更のないフィールドは送信されない。
// PUT /api/tasks/{id}
func (c *APIClient) UpdateTask(ctx context.Context, token, id string, update model.TaskUpdate) (*model.Task, error) {
	var resp model.Task
	if err := c.call(ctx, http.MethodPut, "/api/tasks/"+id, token, update, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteTask は指定タスクを削除する。
// DELETE /api/tasks/{id}
func (c *APIClient) DeleteTask(ctx context.Context, token, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/tasks/"+id, token, nil, nil)
}

// call はリクエストの構築・送信・レスポンスのデコードを行う。
// 失敗はすべてCallErrorに変換される。一時的な失敗はリトライポリシーに従う。
func (c *APIClient) call(ctx context.Context, method, path, token string, body, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &CallError{
				Kind:    ErrorKindUnknown,
				Message: ErrorKindUnknown.UserMessage(),
			}
		}
		payload = data
	}

	return c.retry.Do(ctx, func() error {
		return c.doOnce(ctx, method, path, token, payload, result)
	})
}

// doOnce は1回分のHTTP呼び出しを実行する。
func (c *APIClient) doOnce(ctx context.Context, method, path, token string, payload []byte, result any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &CallError{
			Kind:    ErrorKindUnknown,
			Message: ErrorKindUnknown.UserMessage(),
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("APIリクエストの送信に失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return &CallError{
			Kind:    ErrorKindNetwork,
			Message: ErrorKindNetwork.UserMessage(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(method, path, resp)
	}

	if result == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		c.logger.Error("APIレスポンスのパースに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return &CallError{
			Kind:    ErrorKindUnknown,
			Message: ErrorKindUnknown.UserMessage(),
		}
	}
	return nil
}

// errorFromResponse はエラーステータスのレスポンスをCallErrorに変換する。
// サーバーが統一エラーフォーマットでメッセージを返した場合はそれを採用し、
// それ以外は分類ごとのデフォルトメッセージを使用する。
func (c *APIClient) errorFromResponse(method, path string, resp *http.Response) error {
	kind := ClassifyStatus(resp.StatusCode)
	message := kind.UserMessage()

	var body errorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		message = body.Message
	}

	c.logger.Warn("APIがエラーステータスを返しました",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("http_status", resp.StatusCode),
	)

	return &CallError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
