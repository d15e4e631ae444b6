package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"biotriage/adapters/llm"
	"biotriage/adapters/postgres"
	"biotriage/adapters/rules"
	"biotriage/app"
	"biotriage/internal/config"
	"biotriage/ports"
	"biotriage/ui"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("[Main] Loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Main] Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.Server.GinMode)

	// The rule base is load-bearing: a bad rule file is fatal at start, never
	// a degraded run.
	ruleIndex, err := rules.Load(cfg.Triage.RuleFile)
	if err != nil {
		log.Fatalf("[Main] Rule base load failed: %v", err)
	}

	var oracle ports.ReasoningOraclePort
	if cfg.Oracle.Enabled() {
		oracle, err = llm.NewOracleAdapter(llm.Config{
			Model:       cfg.Oracle.Model,
			APIKey:      cfg.Oracle.APIKey,
			BaseURL:     cfg.Oracle.BaseURL,
			Temperature: cfg.Oracle.Temperature,
			MaxTokens:   cfg.Oracle.MaxTokens,
			Timeout:     cfg.Oracle.Timeout,
		})
		if err != nil {
			log.Fatalf("[Main] Oracle setup failed: %v", err)
		}
		log.Printf("[Main] Reasoning oracle enabled (model=%s, timeout=%s)", cfg.Oracle.Model, cfg.Oracle.Timeout)
	} else {
		log.Println("[Main] No OPENAI_API_KEY set, running without narrative interpretation")
	}

	var archive ports.ResultArchivePort
	if cfg.Database.Enabled() {
		archive, err = postgres.NewResultRepository(cfg.Database.URL)
		if err != nil {
			log.Fatalf("[Main] Archive database setup failed: %v", err)
		}
		log.Println("[Main] Result archive enabled")
	}

	triageSvc := app.NewTriageService(app.Config{
		MaxConcurrent:    cfg.Triage.MaxConcurrent,
		JaccardThreshold: cfg.Triage.JaccardThreshold,
		OracleTimeout:    cfg.Oracle.Timeout,
	}, ruleIndex, oracle, archive)

	// Reports sidecar on its own port.
	go func() {
		addr := ":" + cfg.Reports.Port
		log.Printf("[Main] Reports server on http://localhost%s", addr)
		if err := http.ListenAndServe(addr, ui.ReportsRouter(cfg.Reports.Dir)); err != nil {
			log.Fatalf("[Main] Reports server failed: %v", err)
		}
	}()

	server := ui.NewServer(triageSvc, cfg.Reports.Dir, cfg.Server.MaxUploadMB)
	log.Printf("[Main] Triage API on http://localhost:%s", cfg.Server.Port)
	if err := server.Router().Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("[Main] Server failed: %v", err)
	}
}
