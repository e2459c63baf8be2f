package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/anthropic/worklog/internal/config"
	"github.com/anthropic/worklog/internal/ingest"
	"github.com/anthropic/worklog/internal/logging"
	"github.com/anthropic/worklog/internal/projectid"
	"github.com/anthropic/worklog/internal/session"
	"github.com/anthropic/worklog/internal/store"
	"github.com/anthropic/worklog/internal/summarize"
	"github.com/anthropic/worklog/internal/watch"
	"github.com/anthropic/worklog/internal/worktype"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "worklog",
		Short: "Ingest and normalize AI coding assistant sessions",
		Long:  "worklog scans Claude Code and Codex transcript files, normalizes them into a single session model, and stores them in a local SQLite database.",
	}

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func ingestCmd() *cobra.Command {
	var (
		claudeDir string
		codexDir  string
		dbPath    string
		workers   int
		summary   bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Scan session directories and ingest new transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(claudeDir, codexDir, dbPath)
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			if summary {
				cfg.Summarize = true
			}

			closer, err := logging.Setup(cfg.LogPath)
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			defer closer.Close()

			s, err := store.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			resolver := projectid.New()
			pipe := buildPipeline(cfg, s, resolver)

			files, err := discoverAll(cfg, resolver)
			if err != nil {
				return err
			}

			started := time.Now()
			rep, err := pipe.Run(ctx, files)
			if rep != nil {
				if rerr := s.RecordRun(cmd.Context(), rep, started); rerr != nil {
					log.Printf("record run: %v", rerr)
				}
				fmt.Printf("ingested %d sessions, skipped %d unchanged, %d failed\n",
					rep.Processed, rep.Skipped, rep.Failed)
				for _, e := range rep.Errors {
					fmt.Fprintf(os.Stderr, "  %v\n", e)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&claudeDir, "claude-dir", "", "Claude data directory (default: ~/.claude)")
	cmd.Flags().StringVar(&codexDir, "codex-dir", "", "Codex data directory (default: ~/.codex)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Override database path (default: from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel file workers (default: from config)")
	cmd.Flags().BoolVar(&summary, "summarize", false, "Generate LLM summaries (requires ANTHROPIC_API_KEY)")

	return cmd
}

func watchCmd() *cobra.Command {
	var (
		claudeDir string
		codexDir  string
		dbPath    string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Ingest continuously as new session activity appears",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(claudeDir, codexDir, dbPath)
			if err != nil {
				return err
			}

			closer, err := logging.Setup(cfg.LogPath)
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			defer closer.Close()

			s, err := store.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			resolver := projectid.New()
			pipe := buildPipeline(cfg, s, resolver)

			// Catch up on anything written while not watching.
			files, err := discoverAll(cfg, resolver)
			if err != nil {
				return err
			}
			rep, err := pipe.Run(ctx, files)
			if err != nil {
				return err
			}
			log.Printf("catch-up: %d ingested, %d skipped, %d failed",
				rep.Processed, rep.Skipped, rep.Failed)

			w := watch.New(cfg.ClaudeDir, cfg.CodexDir, resolver, func(sf session.SessionFile) {
				rep, err := pipe.Run(ctx, []session.SessionFile{sf})
				if err != nil {
					log.Printf("watch: ingest %s: %v", sf.Path, err)
					return
				}
				if rep.Processed > 0 {
					log.Printf("watch: ingested %s", sf.Path)
				}
			})
			defer w.Stop()

			fmt.Println("watching for session activity (ctrl-c to stop)")
			return w.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&claudeDir, "claude-dir", "", "Claude data directory (default: ~/.claude)")
	cmd.Flags().StringVar(&codexDir, "codex-dir", "", "Codex data directory (default: ~/.codex)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Override database path (default: from config)")

	return cmd
}

func sessionsCmd() *cobra.Command {
	var (
		dbPath  string
		project string
		source  string
		date    string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List ingested sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig("", "", dbPath)
			if err != nil {
				return err
			}

			s, err := store.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer s.Close()

			rows, err := s.ListSessions(cmd.Context(), store.ListFilter{
				Project: project,
				Source:  source,
				Date:    date,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("no sessions found")
				return nil
			}

			for _, r := range rows {
				fmt.Printf("%s  %-7s %-24s %s\n", r.Date, r.Source, r.ProjectName, shortID(r.SessionID))
				fmt.Printf("    %d user / %d assistant messages, %d tools, %s/%s\n",
					r.UserMessages, r.AssistantMessages, totalTools(r.ToolCalls), r.WorkType, r.Scope)
				if r.Summary != "" {
					fmt.Printf("    %s\n", r.Summary)
				} else if r.FirstPrompt != "" {
					fmt.Printf("    %s\n", firstLine(r.FirstPrompt))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Override database path (default: from config)")
	cmd.Flags().StringVar(&project, "project", "", "Filter by project name or path")
	cmd.Flags().StringVar(&source, "source", "", "Filter by source tool (claude, codex)")
	cmd.Flags().StringVar(&date, "date", "", "Filter by date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to show (0 for all)")

	return cmd
}

func statusCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database counts and the last ingest run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig("", "", dbPath)
			if err != nil {
				return err
			}

			s, err := store.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer s.Close()

			sessions, err := s.SessionsCount()
			if err != nil {
				return err
			}
			projects, err := s.ProjectsCount()
			if err != nil {
				return err
			}
			processed, err := s.ProcessedFilesCount()
			if err != nil {
				return err
			}
			size, err := s.DBSizeBytes()
			if err != nil {
				return err
			}

			fmt.Printf("database:        %s (%.1f MB)\n", cfg.DBPath, float64(size)/(1024*1024))
			fmt.Printf("sessions:        %d across %d projects\n", sessions, projects)
			fmt.Printf("processed files: %d\n", processed)

			rep, startedAt, err := s.LastRun(cmd.Context())
			if err != nil {
				return err
			}
			if rep == nil {
				fmt.Println("last run:        never")
			} else {
				fmt.Printf("last run:        %s (%d ingested, %d skipped, %d failed)\n",
					startedAt, rep.Processed, rep.Skipped, rep.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Override database path (default: from config)")

	return cmd
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(claudeDir, codexDir, dbPath string) (*config.Config, error) {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if claudeDir != "" {
		cfg.ClaudeDir = claudeDir
	}
	if codexDir != "" {
		cfg.CodexDir = codexDir
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return cfg, nil
}

// buildPipeline wires the pipeline against the store and config.
func buildPipeline(cfg *config.Config, s *store.Store, resolver *projectid.Resolver) *ingest.Pipeline {
	pipe := &ingest.Pipeline{
		Ledger:     s,
		Sink:       s,
		Resolver:   resolver,
		Classifier: worktype.NewClassifier(),
		Workers:    cfg.Workers,
	}
	if cfg.Summarize {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			log.Println("summarize enabled but ANTHROPIC_API_KEY is not set; skipping summaries")
		} else {
			pipe.Summarizer = summarize.NewAnthropic(apiKey, cfg.SummarizeModel)
		}
	}
	return pipe
}

// discoverAll scans both session roots.
func discoverAll(cfg *config.Config, resolver *projectid.Resolver) ([]session.SessionFile, error) {
	claude, err := ingest.DiscoverClaude(cfg.ClaudeDir, resolver)
	if err != nil {
		return nil, fmt.Errorf("discover claude sessions: %w", err)
	}
	codex, err := ingest.DiscoverCodex(cfg.CodexDir)
	if err != nil {
		return nil, fmt.Errorf("discover codex sessions: %w", err)
	}
	return append(claude, codex...), nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func totalTools(calls map[string]int) int {
	n := 0
	for _, c := range calls {
		n += c
	}
	return n
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 100 {
		s = s[:100] + "..."
	}
	return s
}
