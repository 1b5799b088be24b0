// scribe is a content-generation service that augments LLM calls with a
// per-user long-term memory store and lightweight style analysis.
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

	"github.com/joho/godotenv"

	"github.com/scribeworks/scribe/config"
	"github.com/scribeworks/scribe/generator"
	"github.com/scribeworks/scribe/history"
	"github.com/scribeworks/scribe/llm"
	"github.com/scribeworks/scribe/logger"
	"github.com/scribeworks/scribe/memory"
	"github.com/scribeworks/scribe/memory/embedder/hash"
	"github.com/scribeworks/scribe/memory/store/chromem"
	"github.com/scribeworks/scribe/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	// All dependencies are constructed here and passed by reference; no
	// lazy singletons.
	store, err := chromem.Open(cfg.PersistDir)
	if err != nil {
		log.Fatalf("open vector store: %v", err)
	}
	defer store.Close()

	embedder := hash.New(hash.DefaultDimensions)

	mem, err := memory.NewService(store, embedder)
	if err != nil {
		log.Fatalf("create memory service: %v", err)
	}

	var gen llm.Generator
	switch cfg.LLMBackend {
	case config.BackendAnthropic:
		gen = llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	default:
		gen = llm.NewGroqClient(llm.GroqConfig{
			APIKey:  cfg.GroqAPIKey,
			BaseURL: cfg.GroqBaseURL,
			Model:   cfg.GroqModel,
		})
	}
	logger.Infof("[SCRIBE] Generation backend: %s (model %s)", cfg.LLMBackend, gen.Model())

	hist := history.New(history.DefaultCapacity)
	genService := generator.NewService(gen, mem, hist)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server.New(mem, genService).Handler(),
	}

	go func() {
		logger.Infof("[SCRIBE] Listening on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Infof("[SCRIBE] Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("[SCRIBE] Shutdown error: %v", err)
	}
	logger.Infof("[SCRIBE] Shutdown complete")
}
