package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/desktop-assistant/internal/agents"
	"github.com/example/desktop-assistant/internal/api"
	"github.com/example/desktop-assistant/internal/config"
	"github.com/example/desktop-assistant/internal/orchestrator"
	"github.com/example/desktop-assistant/internal/providers/llm"
	"github.com/example/desktop-assistant/internal/retrieval"
	"github.com/example/desktop-assistant/internal/tools"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	log, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("loading config", zap.Error(err))
	}

	client := llm.New(cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.Timeout)
	log.Info("completion client ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model))

	files := &tools.FileManagerTool{Root: cfg.Tools.WorkspaceDir}
	registry := tools.NewRegistry()
	for _, t := range []tools.Tool{
		&tools.OpenAppTool{},
		&tools.OpenBrowserTool{},
		&tools.GetTimeTool{},
		&tools.ClipboardTool{},
		files,
		&tools.ReadPDFTool{Files: files},
		&tools.WebPageTextTool{},
		&tools.RunCodeTool{},
		&tools.NoOpTool{},
	} {
		registry.Register(t)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index, err := retrieval.NewIndex(ctx, registry.List(), nil)
	if err != nil {
		log.Fatal("building tool index", zap.Error(err))
	}

	engine := orchestrator.New(
		&agents.Router{Client: client, ToolNames: registry.Names(), Log: log},
		&agents.Planner{Client: client, Log: log},
		&agents.Chatter{Client: client},
		&agents.Tooler{Client: client, Retrieval: index, TopK: cfg.Engine.TopK, Log: log},
		&agents.Coder{Client: client},
		&agents.Verifier{Client: client, Log: log},
		registry,
		orchestrator.Options{
			RetryLimit:     cfg.Engine.RetryLimit,
			VerifierWindow: cfg.Engine.VerifierWindow,
			ToolTimeout:    cfg.Engine.ToolTimeout,
		},
		log,
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(engine, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	log.Info("assistant daemon listening", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server error", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("ASSISTANT_DEBUG") != "" {
		return zap.NewDevelopment()
	}
	c := zap.NewProductionConfig()
	c.DisableStacktrace = true
	return c.Build()
}
