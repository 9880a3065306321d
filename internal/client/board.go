package client

import (
	"strings"

	"github.com/hitoshi/taskboard/internal/model"
)

// Column はボード上の1カラム（ステータス1つ分の表示対象タスク列）を表す。
type Column struct {
	Status model.Status
	Tasks  []model.Task
}

// Projection は（タスク集合, 検索クエリ）から導出されるボードの表示状態。
// Columnsは常に固定の3カラムをmodel.ValidStatuses()の順で持つ。
// Orphansは有効な3値以外のステータスを持つタスク（ストアの外部編集で
// 発生しうる）で、どのカラムにも属さないが黙って捨てられることもない。
type Projection struct {
	Columns []Column
	Orphans []model.Task
}

// Filter は検索クエリに一致するタスクのみを元の順序で返す。
// クエリは前後の空白を除去し、大文字小文字を区別せずタイトルまたは
// 詳細への部分一致で判定する。空クエリは全タスクに一致する。
// 冪等であり、結果に同じクエリを再適用しても変化しない。
func Filter(tasks []model.Task, query string) []model.Task {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return tasks
	}

	result := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), query) ||
			strings.Contains(strings.ToLower(t.Details), query) {
			result = append(result, t)
		}
	}
	return result
}

// Project はタスク集合と検索クエリからボードの表示状態を導出する純粋関数。
// タスクキャッシュまたはクエリが変わるたびに再計算される。
// カラム内の並び順はキャッシュの挿入順をそのまま保つ（暗黙のソートなし）。
func Project(tasks []model.Task, query string) Projection {
	filtered := Filter(tasks, query)

	statuses := model.ValidStatuses()
	columns := make([]Column, len(statuses))
	index := make(map[model.Status]int, len(statuses))
	for i, s := range statuses {
		columns[i] = Column{Status: s, Tasks: []model.Task{}}
		index[s] = i
	}

	var orphans []model.Task
	for _, t := range filtered {
		i, ok := index[t.Status]
		if !ok {
			orphans = append(orphans, t)
			continue
		}
		columns[i].Tasks = append(columns[i].Tasks, t)
	}

	return Projection{
		Columns: columns,
		Orphans: orphans,
	}
}
