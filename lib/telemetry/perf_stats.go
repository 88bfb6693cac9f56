package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("eatap.perf_stats")

const perfStatsInterval = time.Second * 30

// InstrumentPerfStats periodically records process health gauges until
// the context ends. A failed reading is logged and skipped, the next
// tick tries again.
func InstrumentPerfStats(ctx context.Context) {
	cpuGauge, _ := meter.Float64Gauge("cpu_usage")
	allocatedGauge, _ := meter.Int64Gauge("allocated_mb")
	liveObjectsGauge, _ := meter.Int64Gauge("live_objects")
	goroutineGauge, _ := meter.Int64Gauge("goroutine_count")

	go func() {
		ticker := time.NewTicker(perfStatsInterval)
		defer ticker.Stop()

		var memStats runtime.MemStats
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			runtime.ReadMemStats(&memStats)
			allocatedGauge.Record(ctx, int64(memStats.Alloc/1_000_000))
			liveObjectsGauge.Record(ctx, int64(memStats.Mallocs-memStats.Frees))
			goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))

			usage, err := cpu.PercentWithContext(ctx, time.Minute, false)
			if err != nil {
				slog.WarnContext(ctx, "failed to read cpu usage", "err", err)
				continue
			}
			if len(usage) > 0 {
				cpuGauge.Record(ctx, usage[0])
			}
		}
	}()
}
