package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/taskboard/internal/model"
)

// noRetryPolicy は1回だけ試行するポリシー。呼び出し回数の検証を単純にする。
func noRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

func newTestAPIClient(srv *httptest.Server, retry RetryPolicy) *APIClient {
	return NewAPIClient(srv.Client(), discardLogger(), srv.URL, retry)
}

func TestAPIClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("想定外のリクエスト: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("リクエストボディのデコードに失敗した: %v", err)
		}
		if body["username"] != "hitoshi" || body["password"] != "password123" {
			t.Errorf("リクエストボディが期待と異なる: %v", body)
		}
		json.NewEncoder(w).Encode(LoginResponse{
			AccessToken: "token-abc",
			UserID:      "u1",
			Username:    "hitoshi",
		})
	}))
	defer srv.Close()

	c := newTestAPIClient(srv, noRetryPolicy())
	resp, err := c.Login(context.Background(), "hitoshi", "password123")
	if err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}
	if resp.AccessToken != "token-abc" || resp.UserID != "u1" {
		t.Errorf("レスポンスが期待と異なる: %+v", resp)
	}
}

func TestAPIClient_ListTasks_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-abc" {
			t.Errorf("Authorization = %s, want Bearer token-abc", got)
		}
		json.NewEncoder(w).Encode(taskListResponse{
			Tasks: []model.Task{{ID: "t1", Title: "買い物"}},
			Total: 1,
		})
	}))
	defer srv.Close()

	c := newTestAPIClient(srv, noRetryPolicy())
	tasks, err := c.ListTasks(context.Background(), "token-abc")
	if err != nil {
		t.Fatalf("ListTasks がエラーを返した: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Errorf("タスク一覧が期待と異なる: %+v", tasks)
	}
}

func TestAPIClient_CreateTask_DoesNotSendStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("リクエストボディのデコードに失敗した: %v", err)
		}
		// ステータスはクライアントから指定できない契約
		if _, ok := raw["status"]; ok {
			t.Error("作成リクエストにstatusフィールドが含まれている")
		}
		json.NewEncoder(w).Encode(model.Task{
			ID:      "server-id",
			Title:   raw["title"].(string),
			Status:  model.StatusToDo,
			DueDate: raw["due_date"].(string),
		})
	}))
	defer srv.Close()

	c := newTestAPIClient(srv, noRetryPolicy())
	created, err := c.CreateTask(context.Background(), "token", "買い物", "牛乳", "2026-09-15")
	if err != nil {
		t.Fatalf("CreateTask がエラーを返した: %v", err)
	}
	if created.ID != "server-id" || created.Status != model.StatusToDo {
		t.Errorf("作成結果が期待と異なる: %+v", created)
	}
}

func TestAPIClient_UpdateTask_SendsOnlyChangedFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/tasks/t1" {
			t.Errorf("想定外のリクエスト: %s %s", r.Method, r.URL.Path)
		}
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("リクエストボディのデコードに失敗した: %v", err)
		}
		if len(raw) != 1 || raw["status"] != "In Progress" {
			t.Errorf("変更フィールドのみ送信されるべき: %v", raw)
		}
		json.NewEncoder(w).Encode(model.Task{ID: "t1", Status: model.StatusInProgress})
	}))
	defer srv.Close()

	c := newTestAPIClient(srv, noRetryPolicy())
	status := model.StatusInProgress
	updated, err := c.UpdateTask(context.Background(), "token", "t1", model.TaskUpdate{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTask がエラーを返した: %v", err)
	}
	if updated.Status != model.StatusInProgress {
		t.Errorf("更新結果が期待と異なる: %+v", updated)
	}
}

func TestAPIClient_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		statusCode int
		wantKind   ErrorKind
	}{
		{http.StatusUnauthorized, ErrorKindAuthentication},
		{http.StatusNotFound, ErrorKindNotFound},
		{http.StatusBadRequest, ErrorKindValidation},
		{http.StatusInternalServerError, ErrorKindServer},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.statusCode)
		}))

		c := newTestAPIClient(srv, noRetryPolicy())
		_, err := c.ListTasks(context.Background(), "token")

		var callErr *CallError
		if !errors.As(err, &callErr) {
			t.Fatalf("status %d: CallErrorが返るべき: %v", tt.statusCode, err)
		}
		if callErr.Kind != tt.wantKind || callErr.StatusCode != tt.statusCode {
			t.Errorf("status %d: kind=%v code=%d, want kind=%v",
				tt.statusCode, callErr.Kind, callErr.StatusCode, tt.wantKind)
		}
		srv.Close()
	}
}

func TestAPIClient_AdoptsServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errorResponseBody{
			Code:    "INVALID_TITLE",
			Message: "タイトルが長すぎます。",
		})
	}))
	defer srv.Close()

	c := newTestAPIClient(srv, noRetryPolicy())
	_, err := c.ListTasks(context.Background(), "token")

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("CallErrorが返るべき: %v", err)
	}
	if callErr.Message != "タイトルが長すぎます。" {
		t.Errorf("サーバーのメッセージを採用すべき: %s", callErr.Message)
	}
}

func TestAPIClient_NetworkErrorIsClassified(t *testing.T) {
	// 接続先のないURLでネットワークエラーを発生させる
	c := NewAPIClient(&http.Client{Timeout: time.Second}, discardLogger(),
		"http://127.0.0.1:1", noRetryPolicy())

	_, err := c.ListTasks(context.Background(), "token")

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("CallErrorが返るべき: %v", err)
	}
	if callErr.Kind != ErrorKindNetwork {
		t.Errorf("kind = %v, want ErrorKindNetwork", callErr.Kind)
	}
}

func TestAPIClient_RetriesTransientFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(taskListResponse{Tasks: []model.Task{}, Total: 0})
	}))
	defer srv.Close()

	retry := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
		Retryable:   IsRetryable,
		sleep:       func(time.Duration) {},
	}
	c := newTestAPIClient(srv, retry)

	if _, err := c.ListTasks(context.Background(), "token"); err != nil {
		t.Fatalf("再試行後に成功すべき: %v", err)
	}
	if calls != 3 {
		t.Errorf("リクエスト回数 = %d, want 3", calls)
	}
}

func TestAPIClient_DoesNotRetryUnauthorized(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	retry := DefaultRetryPolicy()
	retry.sleep = func(time.Duration) {}
	c := newTestAPIClient(srv, retry)

	_, err := c.ListTasks(context.Background(), "token")
	if !IsAuthenticationError(err) {
		t.Fatalf("認証エラーが返るべき: %v", err)
	}
	if calls != 1 {
		t.Errorf("リクエスト回数 = %d, want 1（401は再試行しない）", calls)
	}
}
