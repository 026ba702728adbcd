// Command migrate applies the SQL files under migrations/ to one of the
// platform's three databases (order, inventory, marketing authorities
// each own their schema). Running migrations is a deploy-time operator
// step, not something any service does on startup.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	dbURL := flag.String("db-url", "", "Postgres connection URL (required)")
	dir := flag.String("dir", "migrations", "path to the migrations directory")
	direction := flag.String("direction", "up", "up or down")
	flag.Parse()

	if *dbURL == "" {
		log.Fatal("missing required -db-url")
	}

	db, err := sql.Open("pgx", *dbURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("set dialect: %v", err)
	}

	switch *direction {
	case "up":
		if err := goose.Up(db, *dir); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
	case "down":
		if err := goose.Down(db, *dir); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
	default:
		log.Fatalf("unknown direction %q", *direction)
	}

	fmt.Println("migrations applied")
}
