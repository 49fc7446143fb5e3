package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/BIGM16/Ecole-desExcellents/internal/auth"
	"github.com/BIGM16/Ecole-desExcellents/internal/config"
	"github.com/BIGM16/Ecole-desExcellents/internal/db"
	"github.com/BIGM16/Ecole-desExcellents/internal/filestore"
	"github.com/BIGM16/Ecole-desExcellents/internal/gateway"
	principalgrpc "github.com/BIGM16/Ecole-desExcellents/internal/grpc"
	internalhttp "github.com/BIGM16/Ecole-desExcellents/internal/http"
	"github.com/BIGM16/Ecole-desExcellents/internal/repository"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("db migration failed: %v", err)
	}

	var revoker auth.Revoker = auth.NopRevoker{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisClient.Close()
		revoker = auth.NewRedisRevoker(redisClient)
		log.Printf("token denylist enabled on %s", cfg.RedisAddr)
	}

	tokens, err := auth.NewTokens(auth.Options{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Revoker:    revoker,
	})
	if err != nil {
		log.Fatalf("token service init failed: %v", err)
	}

	blobs, err := filestore.New(cfg.MediaRoot)
	if err != nil {
		log.Fatalf("media root init failed: %v", err)
	}

	store := repository.NewStore(db.NewStore(pool))
	gateways := gateway.New(store, blobs, gateway.Options{Logger: logger})
	server := internalhttp.NewServer(cfg, gateways, tokens, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("ecole http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	var grpcServer *grpc.Server
	if cfg.GRPCAddr != "" {
		grpcServer, err = principalgrpc.NewServer(principalgrpc.NewPrincipalServer(store), cfg.ServiceAuthToken)
		if err != nil {
			log.Fatalf("grpc server init failed: %v", err)
		}
		go func() {
			listener, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				log.Fatalf("grpc listen error: %v", err)
			}
			log.Printf("ecole grpc listening on %s", cfg.GRPCAddr)
			if err := grpcServer.Serve(listener); err != nil {
				log.Fatalf("grpc server error: %v", err)
			}
		}()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}
