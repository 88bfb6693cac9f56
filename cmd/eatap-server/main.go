package main

import (
	"flag"

	"eatap-backend/lib/configutil"
	"eatap-backend/lib/serviceutil"
	"eatap-backend/lib/sqliteutil"
	"eatap-backend/services/dashboard"
	"eatap-backend/services/eatap"
	"eatap-backend/services/eatap/db"

	"github.com/go-chi/chi/v5"
)

type Config struct {
	Port          int          `json:"port"`
	AuditDatabase string       `json:"audit_database"`
	Eatap         eatap.Config `json:"eatap"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	database, err := sqliteutil.OpenDB(db.Schema, cfg.AuditDatabase)
	if err != nil {
		serviceutil.Fatal("init audit database", err)
	}

	r := chi.NewRouter()
	r.Mount("/api/v1", eatap.NewService(cfg.Eatap, database).Router())
	r.Mount("/", dashboard.NewService(dashboard.Config{
		CookiesPath: cfg.Eatap.CookiesPath,
	}, database).Router())

	go serviceutil.StartHttpServer(cfg.Port, r)
	<-ctx.Done()
}
