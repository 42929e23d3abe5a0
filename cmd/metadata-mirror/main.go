package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
)

// Serves the local metadata JSON over HTTP so other deployments can point
// LIBRARIAN_METADATA_URL at it.
func main() {
	addr := flag.String("addr", ":9000", "listen address")
	path := flag.String("metadata", "book_metadata.json", "metadata JSON path")
	flag.Parse()

	http.HandleFunc("/metadata", func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(*path)
		if err != nil {
			http.Error(w, "cannot read metadata: "+err.Error(), http.StatusInternalServerError)
			return
		}
		// validate JSON so a bad file doesn't silently break consumers
		var tmp any
		if err := json.Unmarshal(b, &tmp); err != nil {
			http.Error(w, "metadata invalid JSON: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	})

	log.Printf("metadata mirror listening on %s (serving %s)", *addr, *path)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
