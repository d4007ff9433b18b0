package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/ragserve/internal/chunker"
	"github.com/xxxsen/ragserve/internal/config"
	"github.com/xxxsen/ragserve/internal/handler"
	"github.com/xxxsen/ragserve/internal/middleware"
	"github.com/xxxsen/ragserve/internal/ollama"
	"github.com/xxxsen/ragserve/internal/qdrant"
	"github.com/xxxsen/ragserve/internal/registry"
	"github.com/xxxsen/ragserve/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "ragserve",
		Short: "retrieval-augmented answering module",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the answering module",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	log := logutil.GetLogger(context.Background())

	qdrantAddr := cfg.Qdrant.Address
	qdrantCollection := cfg.Qdrant.Collection
	var reg *registry.Client
	if cfg.BackendAddress != "" {
		reg = registry.New(cfg.ModuleName)
		info, err := reg.Register(context.Background(), cfg.BackendAddress)
		if err != nil {
			return fmt.Errorf("register module: %w", err)
		}
		qdrantAddr = info.QdrantAddress
		qdrantCollection = info.QdrantCollection
		log.Info("module registered",
			zap.String("backend", cfg.BackendAddress),
			zap.String("qdrant", qdrantAddr),
			zap.String("collection", qdrantCollection),
		)
	}

	ch, err := chunker.New(cfg.Chat.ChunkSize, cfg.Chat.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("init chunker: %w", err)
	}
	ollamaClient := ollama.New(ollama.Config{
		Address:       cfg.Ollama.Address,
		EmbedModel:    cfg.Ollama.EmbedModel,
		GenerateModel: cfg.Ollama.GenerateModel,
	})
	qdrantClient := qdrant.New(qdrant.Config{
		Address:    qdrantAddr,
		Collection: qdrantCollection,
	})
	chatService := service.NewChatService(ch, ollamaClient, qdrantClient, ollamaClient, cfg.Chat.TopK, cfg.Chat.ScoreCutoff)
	store := service.NewStore()

	deps := handler.RouterDeps{
		Chat: handler.NewChatHandler(chatService, store),
	}
	engine, err := webapi.NewEngine(
		"/",
		cfg.Address,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(),
			middleware.RateLimit(time.Duration(cfg.RateLimitMS)*time.Millisecond),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	log.Info("http server listening", zap.String("addr", cfg.Address))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("server stopping...")
	if reg != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := reg.Unregister(shutdownCtx, cfg.BackendAddress); err != nil {
			log.Warn("unregister failed", zap.Error(err))
		}
	}
	return nil
}
