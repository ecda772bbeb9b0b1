package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bhaskar601/shikshaoffline/internal/account"
	api "github.com/bhaskar601/shikshaoffline/internal/api/http"
	auth "github.com/bhaskar601/shikshaoffline/internal/auth/middleware"
	"github.com/bhaskar601/shikshaoffline/internal/bank"
	"github.com/bhaskar601/shikshaoffline/internal/config"
	"github.com/bhaskar601/shikshaoffline/internal/db"
	"github.com/bhaskar601/shikshaoffline/internal/eventlog"
	"github.com/bhaskar601/shikshaoffline/internal/media"
	"github.com/bhaskar601/shikshaoffline/internal/practice"
	"github.com/bhaskar601/shikshaoffline/internal/quiz"
	"github.com/bhaskar601/shikshaoffline/internal/report"
	"github.com/bhaskar601/shikshaoffline/internal/school"
	"github.com/bhaskar601/shikshaoffline/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	// --- Question cache (optional) ---
	var cache bank.Cache = bank.NopCache{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("redis %s unavailable, question cache disabled: %v", cfg.RedisAddr, err)
			_ = rdb.Close()
		} else {
			defer rdb.Close()
			cache = bank.NewRedisCache(rdb, cfg.QuestionCacheTTL)
		}
	}

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Domain ---
	schools := school.NewStore(dbh)
	accounts := account.NewSQLStore(dbh, schools, cfg.BcryptCost)
	questions := bank.NewService(bank.NewSQLStore(dbh), cache)
	events := eventlog.NewRepo(dbh, cfg.SiteID)
	quizzes := quiz.NewService(quiz.NewSQLStore(dbh), accounts, questions, events)
	reports := report.NewStore(dbh)
	sessions := practice.NewManager(questions, quizzes,
		practice.WithCompletionHook(report.CompletionHook(reports, quizzes, accounts, events)))

	handler := api.NewRouter(api.Deps{
		DB:            dbh,
		Auth:          auth.NewAuthService(cfg.AuthSecret, cfg.TokenTTL),
		Bank:          questions,
		Quizzes:       quizzes,
		Accounts:      accounts,
		Schools:       schools,
		Reports:       reports,
		Events:        events,
		Practice:      sessions,
		Media:         media.NewResolver(bs),
		Blobs:         bs,
		CORSOrigins:   cfg.CORSOrigins,
		AdminID:       cfg.AdminID,
		AdminPassword: cfg.AdminPassword,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go pruneSessions(runCtx, sessions, cfg.SessionIdleTimeout)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-runCtx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Printf("listening on %s (mode=%s, db=%s, cache=%t)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.RedisAddr != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// pruneSessions drops abandoned practice sessions until ctx ends.
func pruneSessions(ctx context.Context, m *practice.Manager, idle time.Duration) {
	if idle <= 0 {
		return
	}
	t := time.NewTicker(idle / 4)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Prune(idle); n > 0 {
				log.Printf("pruned %d idle practice sessions", n)
			}
		}
	}
}
