package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/glowdesk/glowdesk/pkg/database"
)

func main() {
	dbURL := flag.String("db-url", os.Getenv("GLOWDESK_POSTGRES_URL"), "PostgreSQL connection URL")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall migration timeout")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if *dbURL == "" {
		log.Fatal("database URL is required (set --db-url or GLOWDESK_POSTGRES_URL)")
	}

	db, err := sql.Open("postgres", *dbURL)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("failed to ping database")
	}

	start := time.Now()
	if err := database.RunMigrations(ctx, db); err != nil {
		log.WithError(err).Fatal("migrations failed")
	}
	log.WithField("elapsed", time.Since(start).String()).Info("migrations applied")
}
