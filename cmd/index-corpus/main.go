package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"librarian/internal/archivist"
	"librarian/pkg/database"
	"librarian/pkg/models"
	"librarian/pkg/utils"
)

func main() {
	cfg := utils.LoadConfig()
	dataDir := flag.String("data", cfg.DataDir, "corpus directory (one .txt per book)")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	repo := archivist.NewRepo(db)

	entries, err := os.ReadDir(*dataDir)
	if err != nil {
		log.Fatalf("read corpus dir %s: %v", *dataDir, err)
	}

	indexed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		key := models.NormalizeKey(e.Name())
		if key == "" {
			continue
		}

		path := filepath.Join(*dataDir, e.Name())
		b, err := os.ReadFile(path)
		if err != nil {
			log.Printf("skip %s: %v", path, err)
			continue
		}

		if err := repo.IndexBook(ctx, key, string(b)); err != nil {
			log.Printf("index %s failed: %v", key, err)
			continue
		}
		log.Printf("indexed %s (%d bytes)", key, len(b))
		indexed++
	}

	log.Printf("done: %d book(s) indexed from %s", indexed, *dataDir)
}
