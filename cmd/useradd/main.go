// Command useradd creates an account interactively.
package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/filevault/internal/admin"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/services"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migrations error: %v", err)
	}

	hasher, err := auth.NewPasswordHasher(cfg.PasswordHash)
	if err != nil {
		log.Fatalf("%v", err)
	}

	sessions := services.NewSessionService(db, rm, cfg.SessionTTL)
	users := services.NewUserService(db, rm, sessions, auth.NewEvaluator(sessions), hasher)

	if _, err := admin.AddUser(ctx, users, bufio.NewReader(os.Stdin), os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}
