package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/steward-ai/steward/internal/agent"
	"github.com/steward-ai/steward/internal/config"
	"github.com/steward-ai/steward/internal/llm"
	"github.com/steward-ai/steward/internal/logger"
	"github.com/steward-ai/steward/internal/server"
	"github.com/steward-ai/steward/internal/store"
	"github.com/steward-ai/steward/pkg/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.L.Error("failed to open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	toolManager := tools.NewToolManager()
	toolManager.RegisterTool(&tools.CalculatorTool{})
	toolManager.RegisterTool(&tools.CurrentTimeTool{})
	toolManager.RegisterTool(tools.NewAddReminderTool(st))
	toolManager.RegisterTool(tools.NewQueryReminderTool(st))
	toolManager.RegisterTool(tools.NewUpdateReminderTool(st))
	if cfg.Search.APIKey != "" {
		toolManager.RegisterTool(tools.NewSearchOnlineTool(cfg.Search))
	} else {
		logger.L.Info("search.api_key not set, web search disabled")
	}

	// External MCP tool servers are best-effort: a server that fails to
	// connect is logged and skipped so the assistant still starts.
	ctx := context.Background()
	for _, serverCfg := range cfg.MCPServers {
		remote, err := tools.ConnectMCP(ctx, serverCfg)
		if err != nil {
			logger.L.Warn("skipping MCP server", "name", serverCfg.Name, "error", err)
			continue
		}
		for _, t := range remote {
			toolManager.RegisterTool(t)
		}
		logger.L.Info("registered MCP server tools", "name", serverCfg.Name, "tools", len(remote))
	}

	llmClient := llm.NewClient(cfg.LLM)
	ag := agent.New(llmClient, cfg.LLM, toolManager)
	srv := server.New(st, ag)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.L.Info("starting server", "address", addr, "tools", len(toolManager.List()))
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.L.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
