package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Blittyyy/RateMyCollegeFinal/internal/config"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/domain"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/infrastructure/dynamo"
	jwtinfra "github.com/Blittyyy/RateMyCollegeFinal/internal/infrastructure/jwt"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/infrastructure/linkedin"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/infrastructure/smtp"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/pkg/collegedomains"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/pkg/id"
	"github.com/Blittyyy/RateMyCollegeFinal/internal/ratelimit"
	transporthttp "github.com/Blittyyy/RateMyCollegeFinal/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Seed the college registry from the static domain map so alumni
	// matching and signup linking have records to hit on first boot.
	collegeRepo := dynamo.NewCollegeRepo(dynamoClient, cfg.DynamoTables.Colleges)
	seedColleges(context.Background(), collegeRepo)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// Rate limit counters live in Redis when configured; the in-process
	// fallback inside the limiter covers outages and Redis-less setups.
	var counterStore ratelimit.CounterStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("WARN: Redis unreachable, rate limiting falls back to memory: %v", err)
		}
		counterStore = ratelimit.NewRedisStore(rdb)
	}
	limiter := ratelimit.New(counterStore)

	mailer := smtp.NewMailer(cfg)
	linkedinClient := linkedin.NewClient(cfg.LinkedInClientID, cfg.LinkedInClientSecret, cfg.LinkedInRedirectURL)

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		TokenRepo:   dynamo.NewTokenRepo(dynamoClient, cfg.DynamoTables.VerificationTokens),
		CollegeRepo: collegeRepo,
		StateRepo:   dynamo.NewOAuthStateRepo(dynamoClient, cfg.DynamoTables.OAuthStates),
		Mailer:      mailer,
		LinkedIn:    linkedinClient,
		Limiter:     limiter,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func seedColleges(ctx context.Context, repo *dynamo.CollegeRepo) {
	names := collegedomains.Names()
	colleges := make([]domain.College, 0, len(names))
	for _, name := range names {
		colleges = append(colleges, domain.College{CollegeID: id.New(), Name: name})
	}
	if err := repo.Seed(ctx, colleges); err != nil {
		log.Printf("WARN: college seed failed: %v", err)
	}
}
