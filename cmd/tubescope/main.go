package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hpaavola/tubescope/internal/categorize"
	"github.com/hpaavola/tubescope/internal/config"
	"github.com/hpaavola/tubescope/internal/history"
	"github.com/hpaavola/tubescope/internal/ingest"
	"github.com/hpaavola/tubescope/internal/keywords"
	"github.com/hpaavola/tubescope/internal/llm"
	"github.com/hpaavola/tubescope/internal/logging"
	"github.com/hpaavola/tubescope/internal/report"
	"github.com/hpaavola/tubescope/internal/store"
	"github.com/hpaavola/tubescope/internal/sync"
	"github.com/hpaavola/tubescope/internal/youtube"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "convert":
		err = runConvert(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "cleanup":
		err = runCleanup(os.Args[2:])
	case "sync":
		err = runSync(os.Args[2:])
	case "keywords":
		err = runKeywords(os.Args[2:])
	case "categorize":
		err = runCategorize(os.Args[2:])
	case "report":
		err = runReport(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "run":
		err = runAll(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("tubescope %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds the flags shared across subcommands. Each subcommand parses
// the same surface; flags that do not apply are simply unused.
type cliFlags struct {
	config   string
	db       string
	history  string
	csv      string
	llmFlag  string
	logLevel string
	fallback string
	batch    int
	limit    int
	rest     []string
}

func parseFlags(args []string) (cliFlags, error) {
	f := cliFlags{}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		value := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("flag %s requires a value", arg)
			}
			i++
			return args[i], nil
		}

		var err error
		switch arg {
		case "--config":
			f.config, err = value()
		case "--db":
			f.db, err = value()
		case "--history":
			f.history, err = value()
		case "--csv":
			f.csv, err = value()
		case "--llm":
			f.llmFlag, err = value()
		case "--log-level":
			f.logLevel, err = value()
		case "--fallback":
			f.fallback, err = value()
		case "--batch":
			var raw string
			if raw, err = value(); err == nil {
				f.batch, err = strconv.Atoi(raw)
			}
		case "--limit":
			var raw string
			if raw, err = value(); err == nil {
				f.limit, err = strconv.Atoi(raw)
			}
		default:
			if strings.HasPrefix(arg, "-") {
				return f, fmt.Errorf("unknown flag: %s", arg)
			}
			f.rest = append(f.rest, arg)
		}
		if err != nil {
			return f, err
		}
	}
	return f, nil
}

func resolve(f cliFlags) (config.ResolvedConfig, error) {
	cfg, err := config.Resolve(config.ResolveOptions{
		ConfigPath:  f.config,
		CLIDBPath:   f.db,
		CLIHistory:  f.history,
		CLICSVPath:  f.csv,
		CLILLM:      f.llmFlag,
		CLILogLevel: f.logLevel,
	})
	if err != nil {
		return cfg, err
	}
	logging.Init(cfg.LogLevel.Value)
	return cfg, nil
}

func openStore(cfg config.ResolvedConfig) (store.Store, error) {
	s, err := store.NewStore(store.StoreConfig{DBPath: cfg.DBPath.Value})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

func runConvert(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}

	result, err := history.ConvertFile(context.Background(), cfg.HistoryPath.Value, cfg.CSVPath.Value)
	if err != nil {
		return err
	}
	fmt.Printf("Converted %d of %d entries (%d unavailable) to %s\n",
		result.Written, result.Total, result.Unavailable, cfg.CSVPath.Value)
	return nil
}

func runImport(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	csvPath := cfg.CSVPath.Value
	if len(f.rest) > 0 {
		csvPath = f.rest[0]
	}

	importer := ingest.NewImporter(s)
	result, err := importer.ImportFile(context.Background(), csvPath, ingest.Options{
		ExcludedChannels: cfg.Pipeline.ExcludedChannels,
	})
	if err != nil {
		return err
	}
	fmt.Print(result.Format())
	return nil
}

func runCleanup(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	maxSeconds := int64(cfg.Pipeline.MaxVideoHours) * 3600

	videos, err := s.DeleteLongVideos(ctx, maxSeconds, cfg.Pipeline.ProtectedChannels)
	if err != nil {
		return err
	}
	channels, err := s.DeleteEmptyChannels(ctx)
	if err != nil {
		return err
	}
	orphans, err := s.SweepOrphans(ctx)
	if err != nil {
		return err
	}
	if err := s.Vacuum(ctx); err != nil {
		return err
	}

	fmt.Printf("Cleanup: %d long videos, %d empty channels, %d orphan rows removed\n",
		videos, channels, orphans)
	return nil
}

func runSync(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}

	client, err := youtube.NewClient(cfg.YouTubeAPIKey.Value)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	batch := f.batch
	if batch <= 0 {
		batch = cfg.Pipeline.SyncBatchSize
	}
	engine := sync.NewEngine(s, client, batch)
	ctx := context.Background()

	channels, err := engine.SyncChannels(ctx)
	if err != nil {
		return err
	}
	videos, err := engine.SyncVideos(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Channels: %d enriched, %d deleted, %d failed, %d remaining\n",
		channels.Enriched, channels.Deleted, channels.Failed, channels.Remaining)
	fmt.Printf("Videos:   %d enriched, %d deleted, %d failed, %d remaining\n",
		videos.Enriched, videos.Deleted, videos.Failed, videos.Remaining)
	return nil
}

func runKeywords(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	engine := keywords.NewEngine(s, cfg.Pipeline.ChannelTopKeywords)
	ctx := context.Background()

	videos, err := engine.UpdateVideoKeywords(ctx)
	if err != nil {
		return err
	}
	channels, err := engine.UpdateChannelKeywords(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Keywords updated for %d videos and %d channels\n", videos, channels)
	return nil
}

func runCategorize(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := categorizeOnce(context.Background(), s, cfg, f.fallback)
	if err != nil {
		return err
	}
	printCategorizeResult(result)
	return nil
}

func categorizeOnce(ctx context.Context, s store.Store, cfg config.ResolvedConfig, fallbackFlag string) (*categorize.Result, error) {
	summarizer := newSummarizer(cfg)

	fallback := cfg.Pipeline.Fallback
	if fallbackFlag != "" {
		fallback = fallbackFlag
	}

	engine := categorize.NewEngine(s, categorize.DefaultTaxonomy(), summarizer, categorize.Options{
		MaxClusters:         cfg.Pipeline.MaxClusters,
		CategoryTopKeywords: cfg.Pipeline.CategoryTopKeywords,
		Fallback:            fallback,
	})
	return engine.Run(ctx)
}

// newSummarizer builds the LLM provider, or nil when no credentials are
// configured. Categorization proceeds either way.
func newSummarizer(cfg config.ResolvedConfig) llm.Provider {
	llmCfg, err := llm.ParseProviderFlag(cfg.LLMProvider.Value)
	if err != nil {
		logging.Logger.Warn().Err(err).Msg("bad LLM provider setting, continuing without summarizer")
		return nil
	}
	llmCfg.APIKey = cfg.LLMAPIKey.Value

	provider, err := llm.NewProvider(llmCfg)
	if err != nil {
		logging.Logger.Warn().Err(err).Msg("no summarizer available, cluster categories stay unnamed")
		return nil
	}
	return provider
}

func printCategorizeResult(result *categorize.Result) {
	if result.Fixed != nil {
		fmt.Printf("Fixed rules:   %d channels (%d by name, %d by keyword)\n",
			result.Fixed.ByName+result.Fixed.ByKeyword, result.Fixed.ByName, result.Fixed.ByKeyword)
	}
	if result.Cluster != nil {
		fmt.Printf("Clustering:    %d channels across %d clusters\n",
			result.Cluster.Assigned, result.Cluster.Clusters)
	}
	if result.Fallback != nil {
		fmt.Printf("Fallback (%s): %d channels, %d remaining\n",
			result.Fallback.Strategy, result.Fallback.Assigned, result.Fallback.Remaining)
	}
}

func runReport(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	runner, err := report.NewRunner(s, f.limit)
	if err != nil {
		return err
	}

	kind := "categories"
	if len(f.rest) > 0 {
		kind = f.rest[0]
	}

	ctx := context.Background()
	switch kind {
	case "categories":
		return runner.Categories(ctx, os.Stdout)
	case "channels":
		return runner.Channels(ctx, os.Stdout)
	default:
		return fmt.Errorf("unknown report: %q (supported: categories, channels)", kind)
	}
}

func runStats(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Database:   %s (%s: %s)\n", cfg.DBPath.Value, cfg.DBPath.Source, cfg.DBPath.From)
	fmt.Printf("Channels:   %d\n", stats.ChannelCount)
	fmt.Printf("Videos:     %d\n", stats.VideoCount)
	fmt.Printf("Activities: %d\n", stats.ActivityCount)
	fmt.Printf("Categories: %d\n", stats.CategoryCount)
	fmt.Printf("Stats:      %d video, %d channel snapshots\n", stats.VideoStatCount, stats.ChannelStatCount)
	fmt.Printf("Size:       %d bytes\n", stats.DBSizeBytes)
	return nil
}

// runAll executes the whole pipeline in order: convert the takeout export,
// import it, prune outliers, enrich from the YouTube API, derive keywords,
// categorize, and finish with the category report.
func runAll(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}

	ctx := context.Background()

	converted, err := history.ConvertFile(ctx, cfg.HistoryPath.Value, cfg.CSVPath.Value)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	fmt.Printf("Converted %d of %d entries\n", converted.Written, converted.Total)

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	importer := ingest.NewImporter(s)
	imported, err := importer.ImportFile(ctx, cfg.CSVPath.Value, ingest.Options{
		ExcludedChannels: cfg.Pipeline.ExcludedChannels,
	})
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Print(imported.Format())

	maxSeconds := int64(cfg.Pipeline.MaxVideoHours) * 3600
	if _, err := s.DeleteLongVideos(ctx, maxSeconds, cfg.Pipeline.ProtectedChannels); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	if _, err := s.DeleteEmptyChannels(ctx); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	if _, err := s.SweepOrphans(ctx); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	client, err := youtube.NewClient(cfg.YouTubeAPIKey.Value)
	if err != nil {
		return err
	}
	engine := sync.NewEngine(s, client, cfg.Pipeline.SyncBatchSize)
	if _, err := engine.SyncChannels(ctx); err != nil {
		return fmt.Errorf("sync channels: %w", err)
	}
	if _, err := engine.SyncVideos(ctx); err != nil {
		return fmt.Errorf("sync videos: %w", err)
	}

	kw := keywords.NewEngine(s, cfg.Pipeline.ChannelTopKeywords)
	if _, err := kw.UpdateVideoKeywords(ctx); err != nil {
		return fmt.Errorf("video keywords: %w", err)
	}
	if _, err := kw.UpdateChannelKeywords(ctx); err != nil {
		return fmt.Errorf("channel keywords: %w", err)
	}

	result, err := categorizeOnce(ctx, s, cfg, f.fallback)
	if err != nil {
		return fmt.Errorf("categorize: %w", err)
	}
	printCategorizeResult(result)

	runner, err := report.NewRunner(s, f.limit)
	if err != nil {
		return err
	}
	return runner.Categories(ctx, os.Stdout)
}

func printUsage() {
	fmt.Printf(`tubescope %s — YouTube watch-history enrichment and categorization

Usage:
  tubescope <command> [arguments]

Commands:
  convert             Convert a Takeout watch-history.json to CSV
  import <csv>        Import the CSV into the database
  sync                Enrich channels and videos via the YouTube Data API
  keywords            Derive keywords for videos and channels
  categorize          Assign every channel to a category
  cleanup             Remove outliers, empty channels and orphan rows
  report [kind]       Watch-time reports (categories, channels)
  stats               Show database statistics
  run                 Run the whole pipeline in order
  version             Print version

Flags:
  --config <path>     Config file (default ~/.tubescope/config.yaml)
  --db <path>         Database path
  --history <path>    Takeout watch-history.json path
  --csv <path>        CSV path (convert output, import input)
  --batch <n>         Sync batch size
  --llm <p/model>     Summarizer, e.g. openai/gpt-4o-mini
  --fallback <name>   Categorization fallback: forest or similarity
  --limit <n>         Report row limit
  --log-level <lvl>   trace, debug, info, warn, error
  -h, --help          Show this help message
  -v, --version       Print version
`, version)
}
