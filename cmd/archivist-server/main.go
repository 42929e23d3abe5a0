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

	"librarian/internal/archivist"
	"librarian/pkg/database"
	"librarian/pkg/utils"
)

func main() {
	addr := flag.String("addr", ":8001", "listen address")
	flag.Parse()

	cfg := utils.LoadConfig()

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	repo := archivist.NewRepo(db)
	if keys, err := repo.Keys(context.Background()); err == nil {
		if len(keys) == 0 {
			log.Printf("passage index is empty; books will be indexed on demand (or run index-corpus)")
		} else {
			log.Printf("passage index holds %d book(s)", len(keys))
		}
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db_error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path, "corpus": cfg.DataDir})
	})

	handler := archivist.NewHandler(repo, cfg.DataDir)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    *addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("archivist server listening on %s", *addr)
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
	log.Println("archivist server stopped")
}
