package database

import (
	"database/sql"
	"seafood_shop/pkg/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PoolStatsSource 由 *sql.DB 实现
type PoolStatsSource interface {
	Stats() sql.DBStats
}

// PoolMonitorConfig 连接池巡检配置
type PoolMonitorConfig struct {
	Interval       time.Duration
	InUseThreshold float64 // 使用中连接占 MaxOpen 的比例
}

// PoolMonitor 定期检查连接池，出现排队或接近上限时告警
type PoolMonitor struct {
	src    PoolStatsSource
	cfg    PoolMonitorConfig
	stopCh chan struct{}
	once   sync.Once

	mu        sync.Mutex
	lastWaits int64
}

func NewPoolMonitor(src PoolStatsSource, cfg PoolMonitorConfig) *PoolMonitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.InUseThreshold <= 0 || cfg.InUseThreshold > 1 {
		cfg.InUseThreshold = 0.8
	}
	return &PoolMonitor{src: src, cfg: cfg, stopCh: make(chan struct{})}
}

// Start 后台巡检，Stop 之后退出
func (pm *PoolMonitor) Start() {
	go func() {
		ticker := time.NewTicker(pm.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pm.Check()
			case <-pm.stopCh:
				return
			}
		}
	}()
}

func (pm *PoolMonitor) Stop() {
	pm.once.Do(func() { close(pm.stopCh) })
}

// PoolAlert 一次巡检发现的问题
type PoolAlert struct {
	Kind    string // waiting / saturated
	Message string
}

// Check 执行一次巡检，返回本次的告警
func (pm *PoolMonitor) Check() []PoolAlert {
	stats := pm.src.Stats()

	pm.mu.Lock()
	newWaits := stats.WaitCount - pm.lastWaits
	pm.lastWaits = stats.WaitCount
	pm.mu.Unlock()

	var alerts []PoolAlert
	if newWaits > 0 {
		alerts = append(alerts, PoolAlert{Kind: "waiting", Message: "requests waited for a free connection"})
		logger.Log.Warn("db pool: connection waits",
			zap.Int64("new_waits", newWaits),
			zap.Duration("wait_total", stats.WaitDuration),
		)
	}
	if stats.MaxOpenConnections > 0 &&
		float64(stats.InUse)/float64(stats.MaxOpenConnections) >= pm.cfg.InUseThreshold {
		alerts = append(alerts, PoolAlert{Kind: "saturated", Message: "in-use connections near max_open"})
		logger.Log.Warn("db pool: near saturation",
			zap.Int("in_use", stats.InUse),
			zap.Int("max_open", stats.MaxOpenConnections),
		)
	}
	return alerts
}
