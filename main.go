/*
Package main
File: main.go
Description: Server entry point. Loads configuration and the tissue
model, opens the dive log, starts the real-time hub and serves the
planning API.
*/

package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/everforgeworks/diveplan-server/internal/api"
	"github.com/everforgeworks/diveplan-server/internal/deco"
	"github.com/everforgeworks/diveplan-server/internal/store"
)

func main() {
	// 1. Resolve process configuration (defaults, file, env).
	cfg, err := loadServerConfig()
	if err != nil {
		log.Fatalf("Config fail: %v", err)
	}

	// 2. Load the decompression model, with optional YAML overrides.
	if cfg.ModelPath != "" {
		if err := deco.LoadModelConfig(cfg.ModelPath); err != nil {
			log.Fatalf("Model config fail: %v", err)
		}
		log.Printf("Model config loaded from %s", cfg.ModelPath)
	}

	// 3. Open the dive log database.
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Store fail: %v", err)
	}
	defer st.Close()

	// 4. Start the real-time WebSocket hub.
	hub := api.NewHub()
	go hub.Run()

	// 5. Hot-reload: SIGHUP re-reads the model YAML without a restart.
	// Plans already in flight keep the snapshot they started with.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGHUP)
		for {
			<-sigChan
			if cfg.ModelPath == "" {
				log.Println("SIGNAL: No model path configured, nothing to reload")
				continue
			}
			if err := deco.LoadModelConfig(cfg.ModelPath); err != nil {
				log.Printf("SIGNAL: Model reload failed: %v", err)
				continue
			}
			log.Println("SIGNAL: Model config reloaded")
			hub.Broadcast(api.Event{Type: "model_reloaded", Payload: map[string]interface{}{
				"model": deco.ActiveModelConfig().Name,
			}})
		}
	}()

	// 6. Router and handlers.
	srv := api.NewServer(st, hub)
	mux := srv.Routes()

	// 7. Start the server.
	log.Printf("DIVEPLAN Server live on %s", cfg.Addr)
	log.Printf("Model: %s", deco.ActiveModelConfig().Name)

	if err := http.ListenAndServe(cfg.Addr, corsMiddleware(mux)); err != nil {
		log.Fatal(err)
	}
}

// corsMiddleware lets browser clients on other origins reach the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
