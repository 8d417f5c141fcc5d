package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lingotube-backend/internal/config"
	"lingotube-backend/internal/domain/ports/adapter"
	smsAdapters "lingotube-backend/internal/infra/adapters/sms"
	"lingotube-backend/internal/infra/api"
	"lingotube-backend/internal/infra/api/apiv1"
	pg "lingotube-backend/internal/infra/db/postgres"
	"lingotube-backend/internal/infra/logging"
	"lingotube-backend/internal/infra/metrics"
	red "lingotube-backend/internal/infra/redis"
	"lingotube-backend/internal/infra/vod"
	"lingotube-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, SMS sandbox)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Runtime.Dev {
		log.Printf("[DEV MODE] Enabled")
		cfg.SMS.Sandbox = true
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.MaxConns))
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	codeRepo := pg.NewActivationCodeRepo(pool)
	sessionRepo := pg.NewActivationSessionRepo(pool)
	smsRepo := pg.NewSMSCodeRepo(pool)
	videoRepo := pg.NewVideoRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Tokens ----
	tokens := api.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)

	// ---- SMS gateway (Tencent when credentials are present) ----
	var gateway adapter.SMSGateway
	if cfg.SMS.SecretID != "" && cfg.SMS.SecretKey != "" {
		gateway, err = smsAdapters.NewTencentGateway(cfg.SMS)
		if err != nil {
			log.Fatalf("sms gateway: %v", err)
		}
		log.Printf("SMS gateway: tencent region=%s", cfg.SMS.Region)
	} else {
		gateway = smsAdapters.NewNoopGateway(logger)
		log.Printf("SMS gateway: noop (no credentials configured)")
	}

	// ---- Use cases ----
	authUC := usecase.NewAuthUseCase(smsRepo, userRepo, txManager, gateway, tokens, rateLimiter, cfg.SMS, logger)
	activationUC := usecase.NewActivationUseCase(codeRepo, sessionRepo, userRepo, txManager, tokens, cfg.Activation.SessionTTL(), logger)
	accessUC := usecase.NewAccessUseCase(videoRepo, logger)
	signer := vod.NewSigner(cfg.VOD)
	playbackUC := usecase.NewPlaybackUseCase(accessUC, signer, logger)

	// ---- HTTP server ----
	apiServer := apiv1.NewServer(authUC, activationUC, playbackUC, userRepo, tokens, logger)
	router := apiServer.Router()
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("http listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	// ---- Pool stats for metrics (periodic) ----
	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	log.Println("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
