package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tanc-norcal/membership-api/internal/adapters/cloudinary"
	"github.com/tanc-norcal/membership-api/internal/adapters/httpapi"
	memadminrepo "github.com/tanc-norcal/membership-api/internal/adapters/memory/adminrepo"
	memapplicationrepo "github.com/tanc-norcal/membership-api/internal/adapters/memory/applicationrepo"
	memidentity "github.com/tanc-norcal/membership-api/internal/adapters/memory/identity"
	memmemberrepo "github.com/tanc-norcal/membership-api/internal/adapters/memory/memberrepo"
	postgres "github.com/tanc-norcal/membership-api/internal/adapters/postgres"
	pgadminrepo "github.com/tanc-norcal/membership-api/internal/adapters/postgres/adminrepo"
	pgapplicationrepo "github.com/tanc-norcal/membership-api/internal/adapters/postgres/applicationrepo"
	pgidentity "github.com/tanc-norcal/membership-api/internal/adapters/postgres/identity"
	pgmemberrepo "github.com/tanc-norcal/membership-api/internal/adapters/postgres/memberrepo"
	"github.com/tanc-norcal/membership-api/internal/app/applications"
	"github.com/tanc-norcal/membership-api/internal/app/members"
	"github.com/tanc-norcal/membership-api/internal/platform/auth/token"
	platformclock "github.com/tanc-norcal/membership-api/internal/platform/clock"
	"github.com/tanc-norcal/membership-api/internal/platform/config"
	"github.com/tanc-norcal/membership-api/internal/platform/logging"
	adminrepoport "github.com/tanc-norcal/membership-api/internal/ports/out/adminrepo"
	applicationrepoport "github.com/tanc-norcal/membership-api/internal/ports/out/applicationrepo"
	identityport "github.com/tanc-norcal/membership-api/internal/ports/out/identity"
	memberrepoport "github.com/tanc-norcal/membership-api/internal/ports/out/memberrepo"
)

func main() {
	log := logging.New()

	cfg, warnings, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	for _, w := range warnings {
		log.Warn().Msg(w)
	}

	clk := platformclock.NewSystemClock()

	var (
		memberRepo memberrepoport.Repository
		appRepo    applicationrepoport.Repository
		adminRepo  adminrepoport.Repository
		ids        identityport.Provider
		cleanup    func()
	)

	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			log.Fatal().Err(err).Msg("invalid postgres config")
		}
		cleanup = pool.Close

		memberRepo = pgmemberrepo.NewRepo(pool)
		appRepo = pgapplicationrepo.NewRepo(pool)
		adminRepo = pgadminrepo.NewRepo(pool)
		ids = pgidentity.NewProvider(pool)
	default:
		// Approval writes the application and member stores together, so
		// the in-memory application repo shares the member repo's lock.
		memMembers := memmemberrepo.NewRepo()
		memberRepo = memMembers
		appRepo = memapplicationrepo.NewRepo(memMembers)
		adminRepo = memadminrepo.NewRepo()
		ids = memidentity.NewProvider()
	}

	if cleanup != nil {
		defer cleanup()
	}

	media := cloudinary.New(cfg.Cloudinary, log)

	appSvc := applications.NewService(appRepo, memberRepo, media, clk, log)
	memberSvc := members.NewService(memberRepo, adminRepo, ids, media, clk, log)

	// Auth configuration:
	// - Production: AUTH_SECRET-signed bearer tokens issued at login
	// - Local dev: set AUTH_MODE=dev to bypass verification and use X-Debug-Subject
	secret := cfg.AuthSecret
	if cfg.AuthMode == "dev" && len(secret) == 0 {
		secret = []byte("dev-only-not-a-secret")
	}
	tokens, err := token.NewManager(secret, cfg.TokenTTL, clk)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid auth config")
	}

	var authMW func(http.Handler) http.Handler
	if cfg.AuthMode == "dev" {
		authMW = httpapi.NewDevAuthMiddleware(cfg.DevSubject)
	} else {
		authMW = httpapi.NewAuthMiddleware(tokens)
	}

	api := httpapi.NewServer(appSvc, memberSvc, ids, adminRepo, media, tokens)

	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		Auth:           authMW,
		Admin:          httpapi.NewAdminMiddleware(adminRepo),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
