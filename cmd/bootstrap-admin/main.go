// Command bootstrap-admin seeds the cohorts of an academic year and creates
// the first ADMIN account.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/BIGM16/Ecole-desExcellents/internal/config"
	"github.com/BIGM16/Ecole-desExcellents/internal/crypto"
	"github.com/BIGM16/Ecole-desExcellents/internal/db"
	"github.com/BIGM16/Ecole-desExcellents/internal/gateway"
	"github.com/BIGM16/Ecole-desExcellents/internal/model"
	"github.com/BIGM16/Ecole-desExcellents/internal/repository"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		log.Fatalf("bootstrap-admin: %v", err)
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("bootstrap-admin", pflag.ContinueOnError)
	email := flagSet.String("email", "", "admin email address")
	password := flagSet.String("password", "", "admin password (falls back to ADMIN_PASSWORD)")
	firstName := flagSet.String("first-name", "Admin", "admin first name")
	lastName := flagSet.String("last-name", "", "admin last name")
	year := flagSet.Int("year", time.Now().Year(), "academic year whose cohorts are seeded")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	*email = strings.ToLower(strings.TrimSpace(*email))
	if *email == "" {
		return errors.New("--email is required")
	}
	if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}
	if *password == "" {
		return errors.New("--password or ADMIN_PASSWORD is required")
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connection failed: %w", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("db migration failed: %w", err)
	}
	store := repository.NewStore(db.NewStore(pool))

	for _, name := range model.CohortNames {
		err := store.CreateCohort(ctx, model.Cohort{ID: uuid.NewString(), Name: name, Year: *year})
		switch {
		case err == nil:
			log.Printf("created cohort %s %d", name, *year)
		case errors.Is(err, gateway.ErrDuplicate):
		default:
			return fmt.Errorf("create cohort %s: %w", name, err)
		}
	}

	hash, err := crypto.HashPassword(*password)
	if err != nil {
		return err
	}
	admin := model.Principal{
		ID:           uuid.NewString(),
		Email:        *email,
		PasswordHash: hash,
		FirstName:    *firstName,
		LastName:     *lastName,
		Role:         model.RoleAdmin,
		IsActive:     true,
		IsStaff:      true,
		DateJoined:   time.Now().UTC(),
	}
	if err := store.CreatePrincipal(ctx, admin); err != nil {
		if errors.Is(err, gateway.ErrDuplicate) {
			return fmt.Errorf("an account already uses %s", *email)
		}
		return fmt.Errorf("create admin: %w", err)
	}
	log.Printf("created admin %s (%s)", admin.Email, admin.ID)
	return nil
}
