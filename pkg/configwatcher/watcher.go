package configwatcher

import (
	"path/filepath"
	"time"

	"resume_optimizer_backend/internal/config"
	"resume_optimizer_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type ConfigReloader func(cfg interface{})

// WatchConfig 监听配置文件写入，防抖一秒后重新加载并回调。
// 热加载是可选能力，监听器建不起来只记日志，不影响主流程。
func WatchConfig(configPath string, cfg interface{}, reloader ConfigReloader) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Log.Error("config watcher disabled", zap.Error(err))
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		logger.Log.Error("config watcher disabled", zap.Error(err))
		return
	}
	if err := watcher.Add(absPath); err != nil {
		logger.Log.Error("config watcher disabled",
			zap.String("path", absPath), zap.Error(err))
		return
	}

	// 编辑器保存常触发连续多次写事件，合并为一次重载
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write != 0 {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(time.Second)
			}
		case <-debounce.C:
			newCfg, err := config.LoadConfig(filepath.Dir(configPath))
			if err != nil {
				logger.Log.Error("config reload failed", zap.Error(err))
				continue
			}
			reloader(newCfg)
			logger.Log.Info("config reloaded", zap.String("path", absPath))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Error("config watcher error", zap.Error(err))
		}
	}
}
