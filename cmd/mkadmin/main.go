package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/tanc-norcal/membership-api/internal/adapters/postgres"
	pgadminrepo "github.com/tanc-norcal/membership-api/internal/adapters/postgres/adminrepo"
	pgidentity "github.com/tanc-norcal/membership-api/internal/adapters/postgres/identity"
	"github.com/tanc-norcal/membership-api/internal/ports/out/adminrepo"
	"github.com/tanc-norcal/membership-api/internal/ports/out/identity"
)

// mkadmin bootstraps an administrator: it creates the account (unless one
// already exists for the email) and grants it the admin role. There is no API
// route for this on purpose; the first admin has to come from outside the
// admin-gated surface.
func main() {
	var (
		email     = flag.String("email", "", "account email (required)")
		password  = flag.String("password", "", "account password (required)")
		firstName = flag.String("first-name", "", "admin first name")
		lastName  = flag.String("last-name", "", "admin last name")
	)
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	ids := pgidentity.NewProvider(pool)
	admins := pgadminrepo.NewRepo(pool)

	subject, err := ids.CreateAccount(ctx, *email, *password)
	switch {
	case err == nil:
		log.Printf("created account %s", subject)
	case errors.Is(err, identity.ErrEmailInUse):
		subject, err = ids.Authenticate(ctx, *email, *password)
		if err != nil {
			log.Fatalf("account exists but password does not match: %v", err)
		}
		log.Printf("using existing account %s", subject)
	default:
		log.Fatalf("create account: %v", err)
	}

	now := time.Now().UTC()
	if err := admins.Put(ctx, adminrepo.Admin{
		Subject:   subject,
		FirstName: *firstName,
		LastName:  *lastName,
		Email:     *email,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		log.Fatalf("grant admin: %v", err)
	}

	log.Printf("admin granted to %s", *email)
}
