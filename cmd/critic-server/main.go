package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"librarian/internal/archivist"
	"librarian/internal/critic"
	"librarian/internal/discovery"
	"librarian/internal/metadata"
	"librarian/internal/trace"
	"librarian/pkg/utils"
)

func main() {
	addr := flag.String("addr", ":8002", "listen address")
	traceAddr := flag.String("trace", ":7070", "TCP trace feed address")
	flag.Parse()

	cfg := utils.LoadConfig()

	aliases, err := discovery.LoadAliases(cfg.AliasPath)
	if err != nil {
		log.Fatalf("load aliases: %v", err)
	}

	store := metadata.NewStore(cfg.MetadataPath, cfg.MetadataURL)
	resolver := discovery.NewResolver(cfg.PreferCatalog, cfg.CatalogAddr, cfg.DataDir, store)
	proxy := archivist.NewProxy(cfg.ArchivistAddr, aliases)

	var policy critic.Policy = critic.RulePolicy{Aliases: aliases}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		gp, err := critic.NewGeminiPolicy(context.Background(), key, policy)
		if err != nil {
			log.Printf("gemini policy unavailable, using rules: %v", err)
		} else {
			log.Println("intent mapping via gemini")
			policy = gp
		}
	}

	hub := trace.NewHub()
	orch := &critic.Orchestrator{
		Resolver:  resolver,
		Proxy:     proxy,
		Historian: critic.NewHistorian(),
		Policy:    policy,
		Hub:       hub,
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/ws", trace.WSHandler(hub))
	tcpSrv := trace.NewServer(*traceAddr, hub)

	router.GET("/health", func(c *gin.Context) {
		stats := hub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"prefer_catalog": cfg.PreferCatalog,
			"tcp_observers":  stats.TCPObservers,
			"ws_observers":   stats.WSObservers,
		})
	})

	handler := critic.NewHandler(orch)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    *addr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("critic server listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("trace feed shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("critic server stopped")
}
