// Cortex is a transparent memory layer for LLM chat APIs. It sits between
// the client and the upstream model, surfacing relevant memories into each
// request and learning from every completed exchange.
//
// Usage:
//
//	ANTHROPIC_BASE_URL=http://127.0.0.1:3031 claude
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shodh-ai/cortex/engine/brain"
	"github.com/shodh-ai/cortex/engine/breaker"
	"github.com/shodh-ai/cortex/engine/infra/server"
	"github.com/shodh-ai/cortex/engine/session"
	"github.com/shodh-ai/cortex/pkg/config"
	"github.com/shodh-ai/cortex/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "cortex:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.LogLevel(cfg.Runtime.LogLevel)
	logCfg.JSON = cfg.Runtime.LogJSON
	logger.Init(logCfg)
	log := logger.NewLogger(logCfg)
	ctx = logger.ContextWithLogger(ctx, log)

	sessions := session.New()
	go sessions.Run(ctx)

	brainClient := brain.NewClient(&cfg.Brain)
	brk := breaker.New()

	srv := server.New(cfg, log, brainClient, brk, sessions)
	return srv.Start(ctx)
}
