package artifacts

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// FilePrefix 产物文件名前缀
	FilePrefix = "ai_photo_"
	// FileExt 产物文件扩展名
	FileExt = ".png"
	// TimestampLayout 文件名中的时间戳格式
	TimestampLayout = "20060102_150405"
	// DisplayTimeLayout 列表展示用的时间格式
	DisplayTimeLayout = "2006-01-02 15:04:05"
)

// Pattern 是匹配所有产物文件的 glob 模式
var Pattern = FilePrefix + "*" + FileExt

// Artifact 描述输出目录中一张已保存的图像
type Artifact struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// SizeKB 返回以 KB 计的文件大小
func (a Artifact) SizeKB() float64 {
	return float64(a.Size) / 1024
}

// HumanSize 返回保留一位小数的 KB 字符串，例如 "512.3 KB"
func (a Artifact) HumanSize() string {
	return fmt.Sprintf("%.1f KB", a.SizeKB())
}

// Timestamp 返回本地时区的修改时间字符串
func (a Artifact) Timestamp() string {
	return a.ModTime.Local().Format(DisplayTimeLayout)
}

// IsArtifactName 判断文件名是否属于产物命名空间
func IsArtifactName(name string) bool {
	ok, err := filepath.Match(Pattern, name)
	return err == nil && ok
}

// FileName 根据时间生成产物文件名
func FileName(t time.Time) string {
	return FilePrefix + t.Format(TimestampLayout) + FileExt
}

// suffixedName 为同秒冲突的文件名追加序号
func suffixedName(t time.Time, n int) string {
	base := strings.TrimSuffix(FileName(t), FileExt)
	return fmt.Sprintf("%s_%d%s", base, n, FileExt)
}
