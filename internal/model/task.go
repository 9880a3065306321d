// Package model はドメインモデルを定義する。
package model

// Status はタスクの進捗状態を表す。
// カンバンボードの3カラムに対応する固定の3値のみが有効。
type Status string

const (
	// StatusToDo は未着手状態。新規作成タスクは必ずこの状態で始まる。
	StatusToDo Status = "To Do"
	// StatusInProgress は作業中状態。
	StatusInProgress Status = "In Progress"
	// StatusCompleted は完了状態。
	StatusCompleted Status = "Completed"
)

// ValidStatuses はボードに表示される全ステータスを列挙順で返す。
// ボードのカラム順序はこの順序に従う。
func ValidStatuses() []Status {
	return []Status{StatusToDo, StatusInProgress, StatusCompleted}
}

// IsValid はステータスが有効な3値のいずれかであるかを返す。
func (s Status) IsValid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

const (
	// MaxTitleLength はタスクタイトルの最大文字数。
	MaxTitleLength = 200
	// MaxDetailsLength はタスク詳細の最大文字数。
	MaxDetailsLength = 1000
)

// Task は1件のタスクを表す。
// IDはサーバーが採番する不透明な文字列。DueDateはISO 8601形式の日付（YYYY-MM-DD）。
type Task struct {
	ID      string `json:"task_id"`
	UserID  string `json:"userId"`
	Title   string `json:"title"`
	Details string `json:"details"`
	DueDate string `json:"due_date"`
	Status  Status `json:"status"`
}

// TaskUpdate はタスクの部分更新を表す。
// nilのフィールドは「変更しない」を意味する。
type TaskUpdate struct {
	Title   *string `json:"title,omitempty"`
	Details *string `json:"details,omitempty"`
	DueDate *string `json:"due_date,omitempty"`
	Status  *Status `json:"status,omitempty"`
}

// IsEmpty は更新対象フィールドが1つも指定されていないかを返す。
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Details == nil && u.DueDate == nil && u.Status == nil
}
