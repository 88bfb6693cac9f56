package main

import (
	"context"
	"errors"
	"log/slog"

	"eatap-backend/lib/restyutil"
	scraper "eatap-backend/lib/scrapers/eatap"
	"eatap-backend/lib/serviceutil"
	"eatap-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	tel, err := telemetry.SetupFromEnv(ctx, "eatap-server")
	if errors.Is(err, telemetry.ErrNoConfig) {
		slog.WarnContext(ctx, "no telemetry.json5 found, otlp export disabled")
	} else if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	} else {
		go func() {
			<-ctx.Done()
			tel.Shutdown(context.Background())
		}()
	}
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return
	}

	scraper.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/eatap"),
	)
}
