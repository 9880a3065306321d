// Package store はフラットなJSONファイルを永続化層として扱うリポジトリを提供する。
//
// 各コレクション（users, tasks）は1ファイル=1配列のJSONで保存される。
// ファイル全体をメモリにキャッシュし、fsnotifyで外部編集を検知した場合のみ
// 次回アクセス時に再読み込みする。書き込みは一時ファイルへの書き出しと
// renameによるアトミック置換で行う（last write wins）。
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// jsonFile は1つのJSONコレクションファイルへのアクセスを直列化する。
// キャッシュはエンコード済みバイト列として保持し、読み出しごとにデコードする。
type jsonFile struct {
	path    string
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	cache []byte // nilの場合は未読み込み
}

// newJSONFile はJSONコレクションファイルを開く。
// ファイルが存在しない場合は空配列で作成する。
// アトミックなrename置換でファイルノードが入れ替わるため、
// ファイル自体ではなく親ディレクトリを監視する。
func newJSONFile(path string) (*jsonFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]\n"), 0o644); err != nil {
			return nil, fmt.Errorf("failed to initialize store file: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch data directory: %w", err)
	}

	f := &jsonFile{
		path:    path,
		watcher: watcher,
	}
	go f.watchLoop()

	return f, nil
}

// watchLoop は対象ファイルへの変更イベントを受けてキャッシュを無効化する。
// 自プロセスのsaveによるイベントも区別せず無効化する（次回loadで再読込されるだけ）。
func (f *jsonFile) watchLoop() {
	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if event.Name != f.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				f.mu.Lock()
				f.cache = nil
				f.mu.Unlock()
			}
		case _, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			// 監視エラー時は安全側に倒してキャッシュを捨てる
			f.mu.Lock()
			f.cache = nil
			f.mu.Unlock()
		}
	}
}

// Close はファイル監視を停止する。
func (f *jsonFile) Close() error {
	return f.watcher.Close()
}

// load はコレクション全体をvにデコードする。
// キャッシュが有効な場合はファイルを読まない。
func (f *jsonFile) load(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked(v)
}

func (f *jsonFile) loadLocked(v any) error {
	if f.cache == nil {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return fmt.Errorf("failed to read store file %s: %w", f.path, err)
		}
		f.cache = data
	}
	if err := json.Unmarshal(f.cache, v); err != nil {
		return fmt.Errorf("invalid store file format %s: %w", f.path, err)
	}
	return nil
}

// save はコレクション全体をアトミックに書き込む。
// 同一ディレクトリ内の一時ファイルに書いてからrenameで置換する。
func (f *jsonFile) save(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveLocked(v)
}

func (f *jsonFile) saveLocked(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store data: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp store file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	f.cache = data
	return nil
}

// mutate はload→変更→saveを1つのクリティカルセクションで実行する。
// fnがfalseを返した場合は保存せずに終了する。
func (f *jsonFile) mutate(v any, fn func() (bool, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadLocked(v); err != nil {
		return err
	}
	changed, err := fn()
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return f.saveLocked(v)
}
