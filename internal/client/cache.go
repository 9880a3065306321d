package client

import (
	"context"

	"github.com/hitoshi/taskboard/internal/model"
)

// TaskAPI はTaskCacheが必要とするAPIクライアントの部分集合。
type TaskAPI interface {
	ListTasks(ctx context.Context, token string) ([]model.Task, error)
	CreateTask(ctx context.Context, token, title, details, dueDate string) (*model.Task, error)
	UpdateTask(ctx context.Context, token, id string, update model.TaskUpdate) (*model.Task, error)
	DeleteTask(ctx context.Context, token, id string) error
}

// SessionProvider はTaskCacheが必要とするセッション情報の供給元。
// SessionManagerの部分集合として定義する。
type SessionProvider interface {
	Token() string
	HandleUnauthorized()
}

// TaskCache は認証済みユーザーのタスク集合のメモリ上の写しを保持する。
// 真実の源泉はサーバー側のタスクストアであり、全ての変更操作は
// サーバー確定後の結果でローカルエントリを置き換える。
// 単一ゴルーチンからの利用を想定する。
type TaskCache struct {
	api     TaskAPI
	session SessionProvider

	tasks     []model.Task
	loading   bool
	lastError string
}

// NewTaskCache はTaskCacheを生成する。
func NewTaskCache(api TaskAPI, session SessionProvider) *TaskCache {
	return &TaskCache{
		api:     api,
		session: session,
	}
}

// Tasks は現在のタスク集合のコピーを挿入順で返す。
func (c *TaskCache) Tasks() []model.Task {
	result := make([]model.Task, len(c.tasks))
	copy(result, c.tasks)
	return result
}

// Loading はいずれかの操作が実行中であるかを返す。
func (c *TaskCache) Loading() bool {
	return c.loading
}

// LastError は直近の操作のエラーメッセージを返す。成功時は空文字列。
func (c *TaskCache) LastError() string {
	return c.lastError
}

// LoadTasks はサーバーの現在のタスク集合でローカルコレクション全体を置き換える。
// ボード表示時および外部からの無効化検知後に呼ばれる。
func (c *TaskCache) LoadTasks(ctx context.Context) bool {
	done := c.begin()
	defer done()

	tasks, err := c.api.ListTasks(ctx, c.session.Token())
	if err != nil {
		c.fail(err)
		return false
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	c.tasks = tasks
	return true
}

// CreateTask は新しいタスクを作成する。
// ステータスは契約によりTo Do固定で、呼び出し側からは指定できない。
// 成功時はサーバーが採番したタスクをコレクション末尾に追加する。
func (c *TaskCache) CreateTask(ctx context.Context, title, details, dueDate string) bool {
	done := c.begin()
	defer done()

	created, err := c.api.CreateTask(ctx, c.session.Token(), title, details, dueDate)
	if err != nil {
		c.fail(err)
		return false
	}
	c.tasks = append(c.tasks, *created)
	return true
}

// UpdateTask は変更のあったフィールドのみを送信する。
// 成功時はローカルエントリをサーバーのレスポンスで丸ごと置き換える
// （クライアントとサーバーの内容の乖離を防ぐ）。
func (c *TaskCache) UpdateTask(ctx context.Context, id string, update model.TaskUpdate) bool {
	done := c.begin()
	defer done()

	updated, err := c.api.UpdateTask(ctx, c.session.Token(), id, update)
	if err != nil {
		c.fail(err)
		return false
	}
	c.replace(id, *updated)
	return true
}

// DeleteTask はサーバーでの削除確認後にのみローカルコレクションから除去する。
func (c *TaskCache) DeleteTask(ctx context.Context, id string) bool {
	done := c.begin()
	defer done()

	if err := c.api.DeleteTask(ctx, c.session.Token(), id); err != nil {
		c.fail(err)
		return false
	}
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			break
		}
	}
	return true
}

// MoveTask はタスクのステータスのみを変更する。
// 移動先が現在のステータスと同じ、または無効な値の場合は
// ネットワーク呼び出しなしで成功として扱う。
func (c *TaskCache) MoveTask(ctx context.Context, id string, newStatus model.Status) bool {
	if !newStatus.IsValid() {
		return true
	}
	for i := range c.tasks {
		if c.tasks[i].ID == id && c.tasks[i].Status == newStatus {
			return true
		}
	}

	status := newStatus
	return c.UpdateTask(ctx, id, model.TaskUpdate{Status: &status})
}

// begin は操作開始の共有状態を設定し、終了処理を返す。
// 開始時にローディングフラグを立て、エラーをクリアする。
func (c *TaskCache) begin() func() {
	c.loading = true
	c.lastError = ""
	return func() {
		c.loading = false
	}
}

// fail は失敗をユーザー向けメッセージとして記録する。
// 認証エラー（401）の場合はセッション破棄を連動させる。
// キャッシュ本体は変更しない（部分書き込みなし）。
func (c *TaskCache) fail(err error) {
	c.lastError = userMessage(err)
	if IsAuthenticationError(err) {
		c.session.HandleUnauthorized()
	}
}

// replace は指定IDのローカルエントリを位置を保ったまま置き換える。
func (c *TaskCache) replace(id string, t model.Task) {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks[i] = t
			return
		}
	}
	// ローカルに存在しないIDの更新結果は末尾に追加する
	c.tasks = append(c.tasks, t)
}
