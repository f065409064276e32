// Package diskmon watches the free space of the cache volume. Redis keeps
// its append-only file there and a full disk turns into silently lost
// product list updates, so the operator wants an alarm well before that.
package diskmon

import (
	"fmt"
	"log/slog"
	"syscall"

	"github.com/getsentry/sentry-go"
	"github.com/robfig/cron/v3"

	"github.com/DD-DeCaF/metabolic-ninja/internal/metrics"
)

// defaultThreshold is the free-space ratio below which the monitor raises
// an alarm.
const defaultThreshold = 0.25

type Monitor struct {
	dataDir   string
	threshold float64

	cron *cron.Cron
}

func NewMonitor(dataDir string) *Monitor {
	return &Monitor{dataDir: dataDir, threshold: defaultThreshold}
}

// FreeRatio returns the fraction of the volume at path that is free.
func FreeRatio(path string) (float64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	if stat.Blocks == 0 {
		return 0, fmt.Errorf("statfs %s: volume reports zero blocks", path)
	}
	return float64(stat.Bfree) / float64(stat.Blocks), nil
}

// Check measures the watched volume once, exports the ratio and raises an
// alarm when it is below the threshold. There is nothing to do here beyond
// telling the operator; the remedy is growing the volume or asking Redis
// for a BGREWRITEAOF.
func (m *Monitor) Check() (float64, error) {
	ratio, err := FreeRatio(m.dataDir)
	if err != nil {
		return 0, err
	}
	metrics.DiskFreeRatio.Set(ratio)

	if ratio < m.threshold {
		slog.Error("low disk space on watched volume, consider running BGREWRITEAOF", "data_dir", m.dataDir, "free_ratio", ratio)
		sentry.CaptureMessage(fmt.Sprintf("low disk space on %s: %.0f%% free, consider running BGREWRITEAOF", m.dataDir, ratio*100))
	} else {
		slog.Info("checked watched volume", "data_dir", m.dataDir, "free_ratio", ratio)
	}
	return ratio, nil
}

// Start checks the volume immediately, then once per hour.
func (m *Monitor) Start() error {
	if _, err := m.Check(); err != nil {
		return err
	}

	m.cron = cron.New()
	if _, err := m.cron.AddFunc("@hourly", func() {
		if _, err := m.Check(); err != nil {
			slog.Error("unable to check watched volume", "data_dir", m.dataDir, "error", err)
		}
	}); err != nil {
		return fmt.Errorf("unable to schedule disk check: %w", err)
	}
	m.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running check to finish.
func (m *Monitor) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
}
