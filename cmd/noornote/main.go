package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/htsula/noornote/internal/config"
	"github.com/htsula/noornote/internal/interactions"
	internalnostr "github.com/htsula/noornote/internal/nostr"
	"github.com/htsula/noornote/internal/ops"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Define subcommands
	if len(os.Args) > 1 && os.Args[1] == "init" {
		handleInit()
		return
	}

	var (
		showVersion = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("config", "", "Path to configuration file")
		live        = flag.Bool("live", false, "Keep polling for new reactions until interrupted")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("noornote %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	if *configPath == "" || flag.NArg() == 0 {
		fmt.Println("noornote - Nostr interaction stats aggregator")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  noornote init                            Generate example configuration")
		fmt.Println("  noornote --version                       Show version information")
		fmt.Println("  noornote --config <path> <item>          Fetch interaction stats once")
		fmt.Println("  noornote --config <path> --live <item>   Poll for new reactions")
		fmt.Println()
		fmt.Println("<item> is a hex event id, note1..., nevent1..., or naddr1... reference.")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	item, err := parseItemRef(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing item reference: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, item, *live); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, item interactions.ItemRef, live bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := ops.NewLogger(&cfg.Logging)
	ops.SetDefault(logger)

	client := internalnostr.New(ctx, &cfg.Relays, logger)
	defer client.Close()

	engine := interactions.NewEngine(client, client.GetSeedRelays(), &cfg.Interactions, logger)
	defer engine.Close()

	fmt.Printf("Querying %d relays...\n\n", len(cfg.Relays.Seeds))

	stats := engine.GetStats(ctx, item)
	printStats(stats)

	if !live {
		return nil
	}

	fmt.Println()
	fmt.Printf("Polling every %s, press Ctrl+C to stop...\n", cfg.Interactions.PollInterval())

	err := engine.StartLive(item, cfg.Interactions.PollInterval(), func(updated interactions.InteractionStats) {
		fmt.Println()
		printStats(updated)
	})
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	engine.StopLive(item)
	fmt.Println()
	fmt.Println("Stopped.")
	return nil
}

func printStats(stats interactions.InteractionStats) {
	fmt.Printf("Replies:       %d\n", stats.Replies)
	fmt.Printf("Reposts:       %d\n", stats.Reposts)
	fmt.Printf("Quote reposts: %d\n", stats.QuoteReposts)
	fmt.Printf("Reactions:     %d\n", stats.Likes)
	fmt.Printf("Zaps:          %d (%s)\n", stats.Zaps, interactions.FormatSats(stats.ZapSatsTotal))
	if stats.Status != interactions.FetchComplete {
		fmt.Printf("Note: fetch was %s, counts may be incomplete\n", stats.Status)
	}
}

// parseItemRef accepts a raw hex event id or a NIP-19 reference
func parseItemRef(arg string) (interactions.ItemRef, error) {
	arg = strings.TrimPrefix(strings.TrimSpace(arg), "nostr:")

	if !strings.HasPrefix(arg, "note1") && !strings.HasPrefix(arg, "nevent1") && !strings.HasPrefix(arg, "naddr1") {
		item := interactions.ItemRef{ID: strings.ToLower(arg)}
		if err := item.Validate(); err != nil {
			return interactions.ItemRef{}, err
		}
		return item, nil
	}

	prefix, value, err := nip19.Decode(arg)
	if err != nil {
		return interactions.ItemRef{}, fmt.Errorf("failed to decode reference: %w", err)
	}

	switch prefix {
	case "note":
		return interactions.ItemRef{ID: value.(string)}, nil
	case "nevent":
		pointer := value.(nostr.EventPointer)
		return interactions.ItemRef{ID: pointer.ID}, nil
	case "naddr":
		pointer := value.(nostr.EntityPointer)
		return interactions.ItemRef{
			Kind:       pointer.Kind,
			Pubkey:     pointer.PublicKey,
			Identifier: pointer.Identifier,
		}, nil
	default:
		return interactions.ItemRef{}, fmt.Errorf("unsupported reference type %q", prefix)
	}
}

func handleInit() {
	exampleConfig, err := config.GetExampleConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading example config: %v\n", err)
		os.Exit(1)
	}

	// Write to stdout
	fmt.Print(string(exampleConfig))
}
