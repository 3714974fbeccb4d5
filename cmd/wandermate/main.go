package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourorg/wandermate/internal/config"
	"github.com/yourorg/wandermate/internal/export"
	"github.com/yourorg/wandermate/internal/itinerary"
	"github.com/yourorg/wandermate/internal/server"
	"github.com/yourorg/wandermate/internal/store"
	"github.com/yourorg/wandermate/pkg/types"
)

const defaultConfigContent = `llm:
  provider: "gemini"        # gemini or openai
  api_key: ""               # or GEMINI_API_KEY / OPENAI_API_KEY
  model: "gemini-2.5-flash"
  max_tokens: 2048
  temperature: 0.7
  max_retries: 0

cache:
  backend: "memory"         # memory, sqlite or redis
  ttl_seconds: 604800
  redis_addr: "127.0.0.1:6379"
  redis_db: 0

upstream:
  timeout_seconds: 30
  amadeus:
    base_url: "https://test.api.amadeus.com"
    api_key: ""             # or AMADEUS_API_KEY
    api_secret: ""          # or AMADEUS_API_SECRET
    currency: "INR"
  opencage:
    api_key: ""             # or OPENCAGE_API_KEY
  places:
    api_key: ""             # or GOOGLE_PLACES_API_KEY
  weather:
    api_key: ""             # or OPENWEATHER_API_KEY

server:
  host: "127.0.0.1"
  port: 8000
  allowed_origins: []
  secure_cookie: false

log:
  level: "info"
  format: "text"
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	var debug bool

	root := &cobra.Command{
		Use:           "wandermate",
		Short:         "WanderMate trip planner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		if debug {
			cfg.Log.Level = "debug"
		}
		return cfg, nil
	}

	root.AddCommand(newInitCmd())
	root.AddCommand(newServeCmd(load))
	root.AddCommand(newPlanCmd(load))
	root.AddCommand(newParseCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newCacheCmd(load))

	return root
}

type loadFunc func() (*config.Config, error)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize ~/.wandermate directory and default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			baseDir := filepath.Join(home, ".wandermate")
			if err := os.MkdirAll(baseDir, 0o755); err != nil {
				return err
			}

			cfgFile := filepath.Join(baseDir, "config.yaml")
			if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
				if err := os.WriteFile(cfgFile, []byte(defaultConfigContent), 0o600); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "created", cfgFile)
			} else if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "exists", cfgFile)
			} else {
				return err
			}

			dbPath := filepath.Join(baseDir, "wandermate.db")
			s, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "database ready", dbPath)
			fmt.Fprintln(cmd.OutOrStdout(), "please set llm.api_key and the upstream keys in", cfgFile)
			return nil
		},
	}
}

func newServeCmd(load loadFunc) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{Use: "serve", Short: "Start the web app", RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = host
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = port
		}
		if err := cfg.ValidateServe(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		srv, err := server.New(cfg, a.store, a.planner(), a.assistant(), a.logger)
		if err != nil {
			return err
		}
		return srv.Run(ctx, cfg.Addr())
	}}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "server host")
	cmd.Flags().IntVar(&port, "port", 8000, "server port")
	return cmd
}

func newPlanCmd(load loadFunc) *cobra.Command {
	var req types.TripRequest
	var asJSON bool
	cmd := &cobra.Command{Use: "plan", Short: "Plan a trip and print the result", RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		pc := a.planner().Plan(cmd.Context(), "", req)
		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(pc)
		}
		printPlan(out, pc)
		return nil
	}}
	cmd.Flags().StringVar(&req.SourceCity, "from", "", "source city")
	cmd.Flags().StringVar(&req.DestinationCity, "to", "", "destination city")
	cmd.Flags().StringVar(&req.DepartureDate, "depart", "", "departure date (YYYY-MM-DD, default tomorrow)")
	cmd.Flags().StringVar(&req.ReturnDate, "return", "", "return date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full plan as JSON")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func printPlan(w io.Writer, pc *types.PlanContext) {
	fmt.Fprintf(w, "%s -> %s, %s", pc.Source, pc.Destination, pc.DepartureDate)
	if pc.ReturnDate != "" {
		fmt.Fprintf(w, " to %s", pc.ReturnDate)
	}
	fmt.Fprintf(w, " (%d days)\n", pc.NumDays)
	if pc.ErrorMessage != "" {
		fmt.Fprintln(w, "!", pc.ErrorMessage)
	}
	fmt.Fprintf(w, "flights: %d outbound, %d return\n", len(pc.OutboundFlights), len(pc.ReturnFlights))
	if pc.EstimatedCost != nil {
		fmt.Fprintf(w, "estimated flight cost: %.2f\n", *pc.EstimatedCost)
	}
	fmt.Fprintf(w, "attractions: %d, hotels: %d\n\n", len(pc.Attractions), len(pc.Hotels))
	meta := export.Meta{Destination: pc.Destination, NumDays: pc.NumDays, DepartureDate: pc.DepartureDate, ReturnDate: pc.ReturnDate}
	fmt.Fprint(w, export.RenderMarkdown(meta, itinerary.Parse(pc.Itinerary)))
}

func newParseCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse itinerary text into days and time blocks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			days := itinerary.Parse(text)
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(days)
			case "yaml":
				data, err := export.RenderYAML(export.Meta{NumDays: len(days)}, days)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			case "markdown", "md":
				fmt.Fprint(out, export.RenderMarkdown(export.Meta{NumDays: len(days)}, days))
				return nil
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json, yaml or markdown")
	return cmd
}

func newExportCmd() *cobra.Command {
	var meta export.Meta
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Render itinerary text as PDF, Markdown or YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			days := itinerary.Parse(text)
			if meta.NumDays == 0 {
				meta.NumDays = len(days)
			}

			var data []byte
			switch format {
			case "pdf":
				if outPath == "" {
					outPath = export.FileName(meta)
				}
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				if err := export.RenderPDF(f, meta, days); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "wrote", outPath)
				return nil
			case "markdown", "md":
				data = []byte(export.RenderMarkdown(meta, days))
			case "yaml":
				data, err = export.RenderYAML(meta, days)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(outPath, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&meta.Destination, "destination", "", "destination shown in the title")
	cmd.Flags().IntVar(&meta.NumDays, "days", 0, "trip length (default: number of parsed days)")
	cmd.Flags().StringVar(&meta.DepartureDate, "depart", "", "departure date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&meta.ReturnDate, "return", "", "return date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&format, "format", "pdf", "output format: pdf, markdown or yaml")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (pdf defaults to <destination>_<n>Day_Itinerary.pdf)")
	return cmd
}

func newCacheCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Manage the itinerary cache"}

	cmd.AddCommand(&cobra.Command{Use: "clear", Short: "Remove every cached itinerary", RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.cache.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "cache cleared", "("+cfg.Cache.Backend+")")
		return nil
	}})

	cmd.AddCommand(&cobra.Command{Use: "sweep", Short: "Delete expired entries from the sqlite cache", RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		n, err := a.store.Cache().Sweep(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "expired entries removed:", n)
		return nil
	}})
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	return string(data), err
}
