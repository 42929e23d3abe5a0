package utils

import "os"

// Config is the shared runtime configuration for every librarian binary.
// It is loaded once at startup and never mutated afterward; components receive
// the values they need through their constructors.
type Config struct {
	// PreferCatalog makes discovery try the catalog service before scanning
	// the local corpus.
	PreferCatalog bool

	CatalogAddr   string
	ArchivistAddr string
	CriticAddr    string

	// DataDir is the corpus directory: one .txt file per book.
	DataDir string

	// MetadataPath is the local metadata JSON file. MetadataURL, when set,
	// points at a remote copy that takes precedence.
	MetadataPath string
	MetadataURL  string

	// AliasPath is an optional JSON file mapping friendly title variants to
	// normalized book keys.
	AliasPath string
}

func LoadConfig() Config {
	return Config{
		PreferCatalog: envBool("LIBRARIAN_PREFER_CATALOG"),
		CatalogAddr:   envOr("LIBRARIAN_CATALOG_ADDR", "http://127.0.0.1:8003"),
		ArchivistAddr: envOr("LIBRARIAN_ARCHIVIST_ADDR", "http://127.0.0.1:8001"),
		CriticAddr:    envOr("LIBRARIAN_CRITIC_ADDR", "http://127.0.0.1:8002"),
		DataDir:       envOr("LIBRARIAN_DATA_DIR", "data"),
		MetadataPath:  envOr("LIBRARIAN_METADATA_PATH", "book_metadata.json"),
		MetadataURL:   os.Getenv("LIBRARIAN_METADATA_URL"),
		AliasPath:     os.Getenv("LIBRARIAN_ALIAS_PATH"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "True", "yes":
		return true
	}
	return false
}
