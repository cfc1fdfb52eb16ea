// cmd/seeduser/main.go creates or resets the first administrator.
// Usage: go run ./cmd/seeduser -username admin -password 'change-me'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"maintrack/internal/config"
	"maintrack/internal/infra"
	"maintrack/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	username := flag.String("username", "admin", "login name")
	password := flag.String("password", "", "password (at least 8 characters)")
	name := flag.String("name", "Administrator", "display name")
	email := flag.String("email", "", "address for notification mail")
	flag.Parse()

	if len(*password) < 8 {
		log.Fatal().Msg("-password must have at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.AutoMigrate)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}

	var mail *string
	if *email != "" {
		mail = email
	}

	result := db.WithContext(context.Background()).Exec(`
		INSERT INTO app_user (username, name, email, password_hash, role, active)
		VALUES (?, ?, ?, ?, ?, true)
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    role = EXCLUDED.role,
		    active = true,
		    updated_at = now()
	`, *username, *name, mail, string(hash), model.RoleAdmin)
	if result.Error != nil {
		log.Fatal().Err(result.Error).Msg("insert failed")
	}
	fmt.Printf("admin %q created or updated\n", *username)
}
