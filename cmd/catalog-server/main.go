package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"librarian/internal/catalog"
	"librarian/internal/metadata"
	"librarian/pkg/utils"
)

func main() {
	addr := flag.String("addr", ":8003", "listen address")
	flag.Parse()

	cfg := utils.LoadConfig()
	store := metadata.NewStore(cfg.MetadataPath, cfg.MetadataURL)

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"metadata": cfg.MetadataPath,
			"remote":   cfg.MetadataURL != "",
		})
	})

	handler := catalog.NewHandler(store, cfg.DataDir)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    *addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("catalog server listening on %s", *addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("catalog server stopped")
}
