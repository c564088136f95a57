package session

import (
	"fmt"
	"time"

	"github.com/SlpAus/million-meters-backend/pkg/lifecycle"
)

// cleanupInterval 是过期会话的清理周期
const cleanupInterval = time.Hour

// StartCleanupWorker 启动一个后台Goroutine，周期性清理过期会话。
// 它通过生命周期句柄响应停机信号。
func StartCleanupWorker(handle *lifecycle.Handle) {
	go func() {
		defer handle.Close()
		fmt.Println("会话清理服务已启动。")

		for {
			if err := handle.Sleep(cleanupInterval); err != nil {
				fmt.Println("会话清理服务已退出。")
				return
			}
			deleted, err := DeleteExpired()
			if err != nil {
				fmt.Printf("会话清理出错: %v\n", err)
				continue
			}
			if deleted > 0 {
				fmt.Printf("已清理 %d 个过期会话。\n", deleted)
			}
		}
	}()
}
