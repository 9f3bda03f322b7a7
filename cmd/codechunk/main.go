package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"syscall"
	"time"

	"github.com/standardbeagle/codechunk/internal/chunker"
	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/debug"
	"github.com/standardbeagle/codechunk/internal/types"
	"github.com/standardbeagle/codechunk/internal/version"
	"github.com/standardbeagle/codechunk/internal/walker"

	"github.com/urfave/cli/v2"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	// If root is specified and config path is default, look for config in root directory
	if rootFlag := c.String("root"); rootFlag != "" && configPath == config.ConfigFileName {
		configPath = filepath.Join(rootFlag, config.ConfigFileName)
	}

	cfg, err := config.LoadWithRoot(configPath, c.String("root"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}

	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:                   "codechunk",
		Usage:                  "Semantic code chunking for embedding pipelines",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   config.ConfigFileName,
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include 'src/**/*.ts')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/testdata/**')",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory to chunk (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write debug log to a temp file",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				os.Setenv("DEBUG", "1")
				if logPath, err := debug.InitDebugLogFile(); err == nil {
					fmt.Fprintf(os.Stderr, "debug log: %s\n", logPath)
				}
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			{
				Name:      "chunk",
				Usage:     "Chunk files and emit JSON Lines, one chunk per line",
				ArgsUsage: "[files...]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Number of concurrent workers (0 = number of CPUs)",
					},
					&cli.IntFlag{
						Name:  "max-chunk-size",
						Usage: "Override max chunk size in characters for all languages",
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Override chunk overlap in characters (requires --max-chunk-size)",
					},
					&cli.BoolFlag{
						Name:  "no-content",
						Usage: "Omit chunk content from output, metadata only",
					},
				},
				Action: chunkCommand,
			},
			{
				Name:   "stats",
				Usage:  "Show supported languages and effective configuration",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Output as JSON"}},
				Action: statsCommand,
			},
			{
				Name:  "watch",
				Usage: "Watch the project root and re-chunk files as they change",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "debounce-ms",
						Usage: "Milliseconds to coalesce change events",
						Value: 500,
					},
					&cli.BoolFlag{
						Name:  "no-content",
						Usage: "Omit chunk content from output, metadata only",
					},
				},
				Action: watchCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// chunkRecord is one JSON Lines output row.
type chunkRecord struct {
	ID       string         `json:"id"`
	Content  string         `json:"content,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

func emitChunks(chunks []types.Chunk, includeContent bool) error {
	enc := json.NewEncoder(os.Stdout)
	for i := range chunks {
		rec := chunkRecord{
			ID:       chunks[i].ID,
			Metadata: chunks[i].MergedMetadata(),
		}
		if includeContent {
			rec.Content = chunks[i].Content
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func buildFactory(c *cli.Context, cfg *config.Config) (*chunker.ChunkingFactory, error) {
	factory := chunker.NewChunkingFactory(cfg)
	if maxSize := c.Int("max-chunk-size"); maxSize > 0 {
		overlap := c.Int("overlap")
		if err := factory.SetDefaultSizes(maxSize, overlap); err != nil {
			return nil, err
		}
	}
	return factory, nil
}

func chunkCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	factory, err := buildFactory(c, cfg)
	if err != nil {
		return err
	}

	var docs []types.Document
	if c.Args().Len() > 0 {
		for _, path := range c.Args().Slice() {
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			docs = append(docs, types.NewDocument(filepath.ToSlash(path), string(content)))
		}
	} else {
		docs, err = walker.New(cfg).Walk()
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", cfg.Project.Root, err)
		}
	}

	workers := c.Int("workers")
	var chunks []types.Chunk
	var warnings []string
	if workers == 1 || len(docs) == 1 {
		chunks, warnings = factory.ChunkDocuments(docs)
	} else {
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		chunks, warnings, err = factory.ChunkDocumentsConcurrent(ctx, docs, workers)
		if err != nil {
			return err
		}
	}

	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	return emitChunks(chunks, !c.Bool("no-content"))
}

func statsCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	factory := chunker.NewChunkingFactory(cfg)

	extMap := factory.ExtensionMap()
	sizing := make(map[string]config.Sizing, len(cfg.Languages))
	for lang, s := range cfg.Languages {
		sizing[lang] = s
	}

	if c.Bool("json") {
		out := map[string]any{
			"version":    version.Version,
			"root":       cfg.Project.Root,
			"extensions": extMap,
			"sizing":     sizing,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(version.FullInfo())
	fmt.Printf("Project root: %s\n\n", cfg.Project.Root)

	fmt.Println("Supported extensions:")
	for _, ext := range factory.SupportedExtensions() {
		fmt.Printf("  %-8s %s\n", ext, extMap[ext])
	}

	fmt.Println("\nChunk sizing:")
	langs := make([]string, 0, len(sizing))
	for lang := range sizing {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		s := sizing[lang]
		fmt.Printf("  %-12s max=%d overlap=%d\n", lang, s.MaxChunkSize, s.ChunkOverlap)
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	factory := chunker.NewChunkingFactory(cfg)
	w := walker.New(cfg)
	includeContent := !c.Bool("no-content")

	onChange := func(paths []string) {
		var docs []types.Document
		for _, rel := range paths {
			content, err := os.ReadFile(filepath.Join(cfg.Project.Root, filepath.FromSlash(rel)))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to read %s: %v\n", rel, err)
				continue
			}
			docs = append(docs, types.NewDocument(rel, string(content)))
		}
		chunks, warnings := factory.ChunkDocuments(docs)
		for _, warn := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warn)
		}
		if err := emitChunks(chunks, includeContent); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to emit chunks: %v\n", err)
		}
	}

	debounce := time.Duration(c.Int("debounce-ms")) * time.Millisecond
	watcher, err := walker.NewWatcher(w, debounce, onChange)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)\n", cfg.Project.Root)

	<-ctx.Done()
	return watcher.Stop()
}
