// Package embedded 提供嵌入资源的统一访问接口
//
// //go:embed 只能嵌入当前包目录下的文件，所以 embed.FS 声明在项目根目录（embed.go），
// 由 main 在启动时调用 Init 传入。
package embedded

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

var dataFS fs.FS

// Init 设置嵌入的数据文件系统，必须在读取任何资源之前调用
func Init(data fs.FS) {
	dataFS = data
}

// IsInitialized 是否已经调用过 Init
func IsInitialized() bool {
	return dataFS != nil
}

// clean 统一路径格式：正斜杠，无 "./" 前缀，必须以 data/ 开头
func clean(path string) (string, error) {
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")
	if !strings.HasPrefix(path, "data/") {
		return "", fmt.Errorf("unknown resource path prefix: %s (must start with 'data/')", path)
	}
	return path, nil
}

// ReadFile 读取嵌入文件
func ReadFile(path string) ([]byte, error) {
	if dataFS == nil {
		return nil, fmt.Errorf("embedded package not initialized, call Init() first")
	}
	p, err := clean(path)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(dataFS, p)
}

// Exists 检查嵌入文件是否存在
func Exists(path string) bool {
	if dataFS == nil {
		return false
	}
	p, err := clean(path)
	if err != nil {
		return false
	}
	_, err = fs.Stat(dataFS, p)
	return err == nil
}
