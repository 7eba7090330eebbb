package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"claude-gateway/adapters"
	"claude-gateway/circuitbreaker"
	"claude-gateway/config"
	"claude-gateway/proxy"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	fmt.Println(GetBuildInfo())
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	promptRewrites, err := config.LoadPromptRewrites("prompt_rewrites.yaml")
	if err != nil {
		log.Fatalf("failed to load prompt_rewrites.yaml: %v", err)
	}
	schemaRules, err := config.LoadToolSchemaRules("tool_schema_rules.yaml")
	if err != nil {
		log.Fatalf("failed to load tool_schema_rules.yaml: %v", err)
	}

	pipeline := adapters.New(cfg, promptRewrites, schemaRules)
	gate := circuitbreaker.New(circuitbreaker.DefaultConfig())
	handler := proxy.NewHandler(cfg, pipeline, gate)

	mux := http.NewServeMux()
	handler.Routes(mux)
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // long enough for a slow streamed completion
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("claude-gateway listening on %s, upstream %s", cfg.Listen, cfg.OpenAIBaseURL)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}
