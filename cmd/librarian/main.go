package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"librarian/internal/discovery"
	"librarian/internal/metadata"
	"librarian/internal/router"
	"librarian/pkg/models"
	"librarian/pkg/utils"
)

func main() {
	cfg := utils.LoadConfig()

	global := flag.NewFlagSet("librarian", flag.ExitOnError)
	criticAddr := global.String("critic", cfg.CriticAddr, "critic base URL")
	archivistAddr := global.String("archivist", cfg.ArchivistAddr, "archivist base URL")
	catalogAddr := global.String("catalog", cfg.CatalogAddr, "catalog base URL")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	aliases, err := discovery.LoadAliases(cfg.AliasPath)
	if err != nil {
		log.Fatalf("load aliases: %v", err)
	}

	rt := router.New(*criticAddr, *archivistAddr, *catalogAddr, router.NewHTTPCaller())
	store := metadata.NewStore(cfg.MetadataPath, cfg.MetadataURL)

	ctx := context.Background()
	cmd := args[0]

	switch cmd {
	case "agents":
		handleAgents(rt)
	case "list":
		handleList(ctx, rt)
	case "meta":
		handleMeta(ctx, rt, store, aliases, args[1:])
	case "ask":
		handleAsk(ctx, rt, aliases, args[1:])
	case "chat":
		handleChat(ctx, rt, store, aliases)
	case "trace":
		handleTrace(args[1:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`librarian - talk to the library's agents

Usage:
  librarian agents                      list routable agents
  librarian list                        list available books
  librarian meta <book_key>             show metadata for a book
  librarian ask <agent> <text...>       one-shot question to an agent
  librarian chat                        interactive session
  librarian trace [-addr host:port]     follow the critic's dispatch feed

Flags (before the command):
  -critic, -archivist, -catalog         override agent base URLs`)
}

func handleAgents(rt *router.Router) {
	for _, t := range rt.Targets() {
		fmt.Printf("- %-9s %s (%s)\n", t.Name, t.BaseURL, t.Schema)
	}
}

func handleList(ctx context.Context, rt *router.Router) {
	// Prefer the critic's listing; fall back to the catalog's command protocol.
	resp, err := rt.Dispatch(ctx, "critic", "List the available books.")
	if err != nil {
		log.Printf("critic unavailable (%v), trying catalog", err)
		resp, err = rt.Dispatch(ctx, "catalog", "__LIST__")
		if err != nil {
			log.Fatalf("list failed: %v", err)
		}
	}
	fmt.Println(resp)
}

func handleMeta(ctx context.Context, rt *router.Router, store *metadata.Store, aliases discovery.AliasTable, args []string) {
	if len(args) == 0 {
		log.Fatal("usage: librarian meta <book_key>")
	}
	key := aliases.Resolve(strings.Join(args, " "))

	resp, err := rt.Dispatch(ctx, "catalog", "__META__:"+key)
	if err == nil && strings.TrimSpace(resp) != "{}" {
		printJSON(resp)
		return
	}
	if err != nil {
		log.Printf("catalog unavailable (%v), reading local metadata", err)
	}

	records, err := store.LoadLocal()
	if err != nil {
		log.Fatalf("no metadata available: %v", err)
	}
	rec, ok := records[key]
	if !ok {
		fmt.Printf("No metadata found for '%s'.\n", key)
		return
	}
	b, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Println(string(b))
}

func handleAsk(ctx context.Context, rt *router.Router, aliases discovery.AliasTable, args []string) {
	if len(args) < 2 {
		log.Fatal("usage: librarian ask <agent> <text...>")
	}
	name := args[0]
	text := strings.Join(args[1:], " ")

	payload := text
	if t, ok := rt.Lookup(name); ok && t.Schema == models.SchemaSpecialist && !json.Valid([]byte(text)) {
		// Talking to the archivist directly requires the structured payload;
		// build it from "key: question" shorthand.
		key, query, found := strings.Cut(text, ":")
		if !found {
			log.Fatal(`archivist questions need a book key: librarian ask archivist "<book_key>: <question>"`)
		}
		b, err := json.Marshal(models.SpecialistRequest{
			BookTitle: aliases.Resolve(key),
			Query:     strings.TrimSpace(query),
		})
		if err != nil {
			log.Fatalf("build payload: %v", err)
		}
		payload = string(b)
	}

	resp, err := rt.Dispatch(ctx, name, payload)
	if err != nil {
		log.Fatalf("ask failed: %v", err)
	}
	fmt.Println(resp)
}

func handleChat(ctx context.Context, rt *router.Router, store *metadata.Store, aliases discovery.AliasTable) {
	current := "critic"
	printBanner(rt, current)

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !sc.Scan() {
			fmt.Println("\nExiting...")
			return
		}
		input := strings.TrimSpace(sc.Text())
		if input == "" {
			continue
		}

		switch lc := strings.ToLower(input); {
		case lc == "/exit" || lc == "exit" || lc == "quit" || lc == ":q":
			fmt.Println("Goodbye!")
			return

		case lc == "/help" || lc == "help":
			printBanner(rt, current)

		case lc == "/agents" || lc == "agents":
			handleAgents(rt)

		case strings.HasPrefix(lc, "/use "):
			name := strings.TrimSpace(input[len("/use "):])
			if t, ok := rt.Lookup(name); ok {
				current = t.Name
				fmt.Printf("Switched to '%s' @ %s\n", t.Name, t.BaseURL)
			} else {
				fmt.Printf("Unknown agent '%s'. Try one of: critic, archivist, catalog\n", name)
			}

		case lc == "/list" || lc == "list":
			handleList(ctx, rt)

		case strings.HasPrefix(lc, "/meta "):
			handleMeta(ctx, rt, store, aliases, []string{strings.TrimSpace(input[len("/meta "):])})

		default:
			chatDispatch(ctx, rt, aliases, sc, current, input)
		}
	}
}

// chatDispatch sends one free-form line to the active agent. The archivist
// needs its structured payload, so unless the user already typed JSON we ask
// for the book key and build it for them.
func chatDispatch(ctx context.Context, rt *router.Router, aliases discovery.AliasTable, sc *bufio.Scanner, current, input string) {
	payload := input

	if t, ok := rt.Lookup(current); ok && t.Schema == models.SchemaSpecialist && !json.Valid([]byte(input)) {
		fmt.Print("Book key (e.g., mobydick, frankenstein): ")
		if !sc.Scan() {
			return
		}
		key := aliases.Resolve(strings.TrimSpace(sc.Text()))
		b, err := json.Marshal(models.SpecialistRequest{BookTitle: key, Query: input})
		if err != nil {
			fmt.Printf("build payload: %v\n", err)
			return
		}
		payload = string(b)
	}

	fmt.Printf("\n[Request] %s <= %s\n", current, payload)
	resp, err := rt.Dispatch(ctx, current, payload)
	if err != nil {
		fmt.Printf("[Error] %v\n", err)
		return
	}
	fmt.Printf("[Response] %s\n", resp)
}

func printBanner(rt *router.Router, current string) {
	fmt.Println("\nAI Librarian CLI")
	fmt.Println("----------------")
	fmt.Println("Commands:")
	fmt.Println("  /agents               List available agents")
	fmt.Println("  /use <agent>          Switch active agent (critic | archivist | catalog)")
	fmt.Println("  /list                 List available books")
	fmt.Println("  /meta <book_key>      Show metadata for a book")
	fmt.Println("  /help                 Show help")
	fmt.Println("  /exit                 Quit")
	if t, ok := rt.Lookup(current); ok {
		fmt.Printf("\nActive agent: %s @ %s\n", t.Name, t.BaseURL)
	}
}

func handleTrace(args []string) {
	fs := flag.NewFlagSet("trace", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:7070", "TCP trace feed address")
	pretty := fs.Bool("pretty", true, "pretty print JSON events")
	_ = fs.Parse(args)

	for {
		if err := followTrace(*addr, *pretty); err != nil {
			log.Printf("[trace] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func followTrace(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[trace] connected to %s", addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Bytes()

		if !pretty {
			fmt.Println(string(line))
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			fmt.Println(string(line))
			continue
		}

		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func printJSON(s string) {
	var obj any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		fmt.Println(s)
		return
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Println(string(b))
}
