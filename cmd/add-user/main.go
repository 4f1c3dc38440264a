// Command add-user creates a login account. There is no HTTP registration
// route; accounts are provisioned with this tool.
//
//	add-user -username alice -password 'Str0ng!Password'
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"biro-server/internal/config"
	"biro-server/internal/repository"
	"biro-server/internal/service"
	"biro-server/pkg/database"
	"biro-server/pkg/logger"
)

func main() {
	username := flag.String("username", "", "login name, 3-32 letters, digits or underscores")
	password := flag.String("password", os.Getenv("ADD_USER_PASSWORD"), "password, 12-64 chars with lower, upper, digit and symbol (or ADD_USER_PASSWORD)")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	// 1. Load config
	cfg, _, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Fatal("add-user needs a persistent store, STORAGE_DRIVER=memory would discard the account")
	}

	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Dev: true})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	// 2. Setup Database
	db, err := database.Connect(cfg.DatabaseDSN, zl)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ migrate: %v", err)
	}

	// 3. Add the user
	store := service.NewCredentialStore(repository.NewUserRepo(db), zl.Sugar())
	user, err := store.AddUser(context.Background(), *username, *password)
	if err != nil {
		log.Fatalf("❌ Failed to add user %s: %v", *username, err)
	}

	log.Printf("✅ Success! User %s created with id %d", user.Username, user.ID)
}
