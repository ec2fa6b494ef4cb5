package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tcgsearch_api/config"
	"tcgsearch_api/internal/tcg/app"
	"tcgsearch_api/migrations/infrastructure"
	"tcgsearch_api/pkg/dbconnect"
	"tcgsearch_api/pkg/dbconnect/migration"
	"tcgsearch_api/pkg/dbconnect/postgres"
	"tcgsearch_api/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.NewLogger(nil, "[tcgsearch]")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pg dbconnect.Database = postgres.NewPgConnector(cfg.Postgres, appLog)
	db, err := pg.Connect(ctx)
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %v", err)
	}
	defer pg.Close()

	if err := migration.Apply(db, infrastructure.All()...); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	appLog.Log("Inventory migrations applied successfully")

	server := app.NewSearchServer(cfg, db, appLog)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
