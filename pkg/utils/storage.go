package utils

import (
	"log"

	"github.com/quasilyte/gdata/v2"
)

// AppName gdata 存储使用的应用名
const AppName = "feedcat"

// OpenStorage 打开 gdata 存储，目录由 gdata 按平台决定
//
// 失败时返回 nil，调用方进入仅内存的降级模式
func OpenStorage(appName string) *gdata.Manager {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[Storage] 打开存储失败: %v（仅内存模式）", err)
		return nil
	}
	return m
}
