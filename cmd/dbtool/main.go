package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"route-planner-service/internal/adapters/repositories"
	"route-planner-service/internal/config"
	"route-planner-service/internal/platform/db"
	"strings"
)

// dbtool initializes the route-set and mapping-cache schema for the SQL stores.
func main() {
	config.LoadDotEnv()

	driver := flag.String("driver", config.Get("STORE_DRIVER", config.DriverSqlite), "sqlite or postgres")
	dbPath := flag.String("db", config.Get("DB_PATH", "data/app.db"), "SQLite database path")
	databaseURL := flag.String("url", config.Get("DATABASE_URL", ""), "Postgres connection URL")
	flag.Parse()

	conn, initSchema, err := open(strings.ToLower(*driver), *dbPath, *databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Println("Initializing database schema...")
	if err := initSchema(conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")
}

func open(driver, dbPath, databaseURL string) (*sql.DB, func(*sql.DB) error, error) {
	switch driver {
	case config.DriverSqlite:
		conn, err := db.OpenSqlite(dbPath)
		return conn, repositories.InitSchema, err
	case config.DriverPostgres:
		if strings.TrimSpace(databaseURL) == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for postgres")
		}
		conn, err := db.OpenPostgres(databaseURL)
		return conn, repositories.InitPostgresSchema, err
	default:
		return nil, nil, fmt.Errorf("driver %q has no SQL schema", driver)
	}
}
