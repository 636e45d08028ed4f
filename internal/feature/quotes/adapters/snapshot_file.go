// Package adapters provides the snapshot file store and the bundled seed for the quote cache.
package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"stock_trader/internal/feature/quotes/domain"
	"stock_trader/internal/feature/quotes/domain/entity"
	"stock_trader/internal/feature/quotes/usecase"
	"stock_trader/internal/shared/env"
)

// DefaultSnapshotPath はスナップショットファイルの既定の保存先です。
const DefaultSnapshotPath = "data/quote_cache.json"

// SnapshotPathFromEnv returns QUOTE_SNAPSHOT_PATH or the default path.
func SnapshotPathFromEnv() string {
	return env.String("QUOTE_SNAPSHOT_PATH", DefaultSnapshotPath)
}

// FileSnapshotStore は銘柄一覧をJSONファイルとして保存します。
// 書き込みは一時ファイルへの出力とリネームで行うため、読み手が書きかけの内容を見ることはありません。
type FileSnapshotStore struct {
	path string
}

// FileSnapshotStoreがSnapshotStoreを実装していることをコンパイル時に検証します。
var _ usecase.SnapshotStore = (*FileSnapshotStore)(nil)

// NewFileSnapshotStore は path に保存するFileSnapshotStoreを生成します。
func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

// Path returns the snapshot file location.
func (s *FileSnapshotStore) Path() string {
	return s.path
}

// Load はスナップショットを読み込みます。ファイルがない場合は domain.ErrSnapshotNotFound を返します。
func (s *FileSnapshotStore) Load(_ context.Context) (*entity.Snapshot, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read quote snapshot: %w", err)
	}

	var snap entity.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode quote snapshot %s: %w", s.path, err)
	}
	return &snap, nil
}

// Save はスナップショットを書き込みます。
func (s *FileSnapshotStore) Save(_ context.Context, snap entity.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode quote snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".quote_cache-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() {
		// リネーム済みなら何もしない
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to remove temp snapshot", "path", tmp.Name(), "error", err)
		}
	}()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace quote snapshot: %w", err)
	}
	return nil
}
