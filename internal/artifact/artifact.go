package artifact

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dir 临时产物目录，为空时使用 os.TempDir()
var Dir string

// TempPath 生成唯一的临时文件路径 <dir>/<prefix>-<uuid><ext>，不创建文件
func TempPath(prefix, ext string) string {
	dir := Dir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, prefix+"-"+uuid.NewString()+ext)
}

// SafeRemove 删除文件，文件不存在不视为错误
func SafeRemove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Cleanup 删除一组临时产物，失败只记录警告
func Cleanup(logger *zap.Logger, paths ...string) {
	for _, p := range paths {
		if err := SafeRemove(p); err != nil && logger != nil {
			logger.Warn("failed to remove artifact", zap.String("path", p), zap.Error(err))
		}
	}
}
