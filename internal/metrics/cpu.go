package metrics

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUMonitor periodically samples host-wide CPU utilization and reports
// it through a Recorder, so the worker's core-pinning choice can be
// correlated against actual load in the same dashboard as the other
// meter metrics.
type CPUMonitor struct {
	recorder Recorder
	interval time.Duration
}

// NewCPUMonitor creates a monitor that samples every interval.
func NewCPUMonitor(recorder Recorder, interval time.Duration) *CPUMonitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &CPUMonitor{recorder: recorder, interval: interval}
}

// Run samples CPU utilization until ctx is canceled.
func (m *CPUMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *CPUMonitor) sample() {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		return
	}
	m.recorder.SetCPUUtilization(percents[0])
}
