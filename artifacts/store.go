package artifacts

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/donkeykey/AIPhotoFrame/types"
)

// Store 使用本地目录保存生成的图像并执行保留策略.
type Store struct {
	dir       string
	maxStored int
	logger    *zap.Logger

	mu     sync.Mutex
	issued map[string]struct{}
}

// Option 配置 Store.
type Option func(*Store)

// WithLogger 设置日志记录器.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore 创建产物存储，目录不存在时自动创建.
func NewStore(dir string, maxStored int, opts ...Option) (*Store, error) {
	if maxStored < 1 {
		return nil, fmt.Errorf("max stored must be at least 1, got %d", maxStored)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, types.NewError(types.ErrStoreWriteFailed, "failed to create output dir").
			WithPath(dir).
			WithCause(err)
	}

	s := &Store{
		dir:       dir,
		maxStored: maxStored,
		logger:    zap.NewNop(),
		issued:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "artifact_store"))

	return s, nil
}

// Dir 返回输出目录.
func (s *Store) Dir() string { return s.dir }

// MaxStored 返回保留上限.
func (s *Store) MaxStored() int { return s.maxStored }

// NextPath 为时间 t 分配一个尚未使用的产物路径.
// 同一秒内再次分配或文件已存在时追加 _1、_2 等后缀.
func (s *Store) NextPath(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := FileName(t)
	for n := 1; s.taken(name); n++ {
		name = suffixedName(t, n)
	}
	s.issued[name] = struct{}{}

	return filepath.Join(s.dir, name)
}

func (s *Store) taken(name string) bool {
	if _, ok := s.issued[name]; ok {
		return true
	}
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}

// Save 将图像编码为 PNG 写入 path.
// 先写入同目录下的临时文件再重命名，失败时不会留下残缺产物.
func (s *Store) Save(ctx context.Context, path string, img image.Image) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	if img == nil {
		return Artifact{}, types.NewError(types.ErrStoreWriteFailed, "nothing to save").WithPath(path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".frame-*.tmp")
	if err != nil {
		return Artifact{}, storeError(path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return Artifact{}, storeError(path, fmt.Errorf("encode png: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return Artifact{}, storeError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return Artifact{}, storeError(path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, storeError(path, err)
	}

	a := Artifact{
		Path:    path,
		Name:    info.Name(),
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
	s.logger.Info("图像已保存",
		zap.String("path", path),
		zap.Int64("size", a.Size))

	return a, nil
}

func storeError(path string, cause error) *types.Error {
	return types.NewError(types.ErrStoreWriteFailed, "failed to save image").
		WithPath(path).
		WithCause(cause)
}

// List 返回按修改时间倒序排列的所有产物.
func (s *Store) List(ctx context.Context) ([]Artifact, error) {
	all, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	// scan 结果为升序，反转即为最新在前
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

// Cleanup 删除超出保留上限的最旧产物，返回成功删除的数量.
// 单个文件删除失败会被记录并跳过，所有失败通过 errors.Join 一并返回.
func (s *Store) Cleanup(ctx context.Context) (int, error) {
	all, err := s.scan(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) <= s.maxStored {
		return 0, nil
	}

	excess := all[:len(all)-s.maxStored]
	deleted := 0
	var errs []error

	for _, a := range excess {
		if err := os.Remove(a.Path); err != nil {
			cerr := types.NewError(types.ErrCleanupFailed, "failed to delete old image").
				WithPath(a.Path).
				WithCause(err)
			s.logger.Warn("删除旧图像失败", zap.String("path", a.Path), zap.Error(err))
			errs = append(errs, cerr)
			continue
		}
		deleted++
		s.logger.Info("已删除旧图像", zap.String("name", a.Name))
	}

	s.logger.Debug("保留策略执行完成",
		zap.Int("found", len(all)),
		zap.Int("deleted", deleted),
		zap.Int("max_stored", s.maxStored))

	return deleted, errors.Join(errs...)
}

// scan 返回按修改时间升序排列的产物，时间相同时按路径字典序.
func (s *Store) scan(ctx context.Context) ([]Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, Pattern))
	if err != nil {
		return nil, fmt.Errorf("glob artifacts: %w", err)
	}

	all := make([]Artifact, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			// 扫描与 stat 之间被删除
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		all = append(all, Artifact{
			Path:    path,
			Name:    info.Name(),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].ModTime.Equal(all[j].ModTime) {
			return all[i].Path < all[j].Path
		}
		return all[i].ModTime.Before(all[j].ModTime)
	})

	return all, nil
}
