package client

import (
	"context"

	"github.com/hitoshi/taskboard/internal/model"
)

// DropZoneKind はドロップ先の種別を表す。
type DropZoneKind int

const (
	// ZoneColumn はステータスカラムへのドロップ先。
	ZoneColumn DropZoneKind = iota
	// ZoneDelete は削除ゾーンへのドロップ先。
	ZoneDelete
)

// DropZone はドラッグ中のタスクのドロップ先を表す。
// KindがZoneColumnの場合のみStatusが意味を持つ。
type DropZone struct {
	Kind   DropZoneKind
	Status model.Status
}

// TaskMover はDragMachineが必要とするタスク操作のインターフェース。
// TaskCacheの部分集合として定義する。
type TaskMover interface {
	MoveTask(ctx context.Context, id string, newStatus model.Status) bool
	DeleteTask(ctx context.Context, id string) bool
}

// DragMachine はドラッグ&ドロップの1ジェスチャ分の状態機械。
// DOMイベントモデルから独立しており、UI層はイベントを
// Start/Enter/Leave/Drop/Cancelの呼び出しに変換するだけでよい。
// 同時にドラッグできるタスクは最大1つ。
type DragMachine struct {
	mover         TaskMover
	confirmDelete func(taskID string) bool // 削除前のユーザー確認フック

	dragging    bool
	taskID      string
	fromStatus  model.Status
	highlighted *DropZone
}

// NewDragMachine はDragMachineを生成する。
// confirmDeleteは削除ゾーンへのドロップ時にユーザー確認を行うフック。
// nilの場合は確認なしで削除する。
func NewDragMachine(mover TaskMover, confirmDelete func(taskID string) bool) *DragMachine {
	return &DragMachine{
		mover:         mover,
		confirmDelete: confirmDelete,
	}
}

// Dragging はドラッグ中であるかを返す。
func (d *DragMachine) Dragging() bool {
	return d.dragging
}

// DraggedTaskID はドラッグ中のタスクIDを返す。Idle状態では空文字列。
func (d *DragMachine) DraggedTaskID() string {
	if !d.dragging {
		return ""
	}
	return d.taskID
}

// Highlighted は現在ハイライトされているドロップ先を返す。なければnil。
func (d *DragMachine) Highlighted() *DropZone {
	return d.highlighted
}

// Start はドラッグ開始でIdleからDraggingへ遷移する。
// タスクIDとドラッグ開始時点のステータスを記録する。
// 既にドラッグ中の場合は無視してfalseを返す。
func (d *DragMachine) Start(taskID string, fromStatus model.Status) bool {
	if d.dragging {
		return false
	}
	d.dragging = true
	d.taskID = taskID
	d.fromStatus = fromStatus
	d.highlighted = nil
	return true
}

// Enter はドロップ先への進入を処理する。
// ハイライトされるのは、ドラッグ中タスクの現在のステータスと異なる
// 有効なステータスカラム、または削除ゾーンのみ。
// ハイライトした場合はtrueを返す。
func (d *DragMachine) Enter(zone DropZone) bool {
	if !d.dragging {
		return false
	}
	if !d.isValidTarget(zone) {
		d.highlighted = nil
		return false
	}
	z := zone
	d.highlighted = &z
	return true
}

// Leave はドロップ先からの退出でハイライトを解除する。
func (d *DragMachine) Leave() {
	d.highlighted = nil
}

// Drop はドロップでDraggingからIdleへ遷移する。
//   - 異なる有効ステータスのカラム上: MoveTaskを呼び出す
//   - 削除ゾーン上: ユーザー確認の後にDeleteTaskを呼び出す
//   - それ以外: 状態変更なし
//
// 戻り値は実行した操作の成否（操作なしの場合はtrue）。
// ハイライト等の視覚状態は結果によらず必ずクリアされる。
func (d *DragMachine) Drop(ctx context.Context, zone DropZone) bool {
	if !d.dragging {
		return true
	}
	taskID := d.taskID
	valid := d.isValidTarget(zone)
	d.reset()

	if !valid {
		return true
	}

	switch zone.Kind {
	case ZoneColumn:
		return d.mover.MoveTask(ctx, taskID, zone.Status)
	case ZoneDelete:
		if d.confirmDelete != nil && !d.confirmDelete(taskID) {
			return true
		}
		return d.mover.DeleteTask(ctx, taskID)
	}
	return true
}

// Cancel はドロップに至らなかったドラッグ終了（Escape、対象外への
// ドロップ、dropイベントなしのdragend等）を処理する。
// 変更操作は行わず、すべての状態をクリアしてIdleへ戻る。
func (d *DragMachine) Cancel() {
	d.reset()
}

// isValidTarget はドロップ先がハイライト・実行の対象になるかを判定する。
func (d *DragMachine) isValidTarget(zone DropZone) bool {
	switch zone.Kind {
	case ZoneDelete:
		return true
	case ZoneColumn:
		return zone.Status.IsValid() && zone.Status != d.fromStatus
	}
	return false
}

// reset はドラッグ状態と視覚状態をすべてクリアする。
// 正常・異常を問わずすべての終端遷移で呼ばれる。
func (d *DragMachine) reset() {
	d.dragging = false
	d.taskID = ""
	d.fromStatus = ""
	d.highlighted = nil
}
