package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jcy998/SP-idear/config"
	"github.com/jcy998/SP-idear/generator"
	"github.com/jcy998/SP-idear/report"
	"github.com/jcy998/SP-idear/server"
	"github.com/jcy998/SP-idear/taxonomy"
)

var (
	configPath string
	verbose    bool
	useMock    bool
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "idear",
	Short:         "Lateral-thinking idea reports from an OpenAI-compatible model",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.json", "path to config.json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable info logs")
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "use the offline mock model")
	rootCmd.AddCommand(generateCmd(), serveCmd(), categoriesCmd(), configureCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger 默认只输出 warn 以上，-v 时切到开发模式输出 info/debug。
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func loadEndpoint() (config.Config, generator.Endpoint, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, generator.Endpoint{}, err
	}
	ep := cfg.LLM.Endpoint()
	if useMock {
		ep.Provider = "mock"
	}
	return cfg, ep, nil
}

func generateCmd() *cobra.Command {
	var category, subcategory, problem, format, out string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one idea report",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ep, err := loadEndpoint()
			if err != nil {
				return err
			}
			if ep.Provider != "mock" && ep.APIKey == "" {
				return fmt.Errorf("%w (run `idear configure --api-key ...`)", generator.ErrConfigMissing)
			}
			if c, s, err := taxonomy.Default().Resolve(category, subcategory); err == nil {
				category, subcategory = c.Label, s.Label
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			logger.Info("[cli] generating", zap.String("category", category), zap.String("subcategory", subcategory))
			result, err := generator.Generate(ctx, generator.Request{
				Category:    category,
				Subcategory: subcategory,
				Problem:     problem,
			}, ep, generator.WithLogger(logger))
			if err != nil {
				return err
			}

			doc := report.Document{
				Category:    category,
				Subcategory: subcategory,
				Problem:     problem,
				GeneratedAt: time.Now(),
				Report:      result,
			}
			text, err := render(doc, format)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
				return err
			}
			logger.Info("[cli] report written", zap.String("path", out))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "challenge category (id or label)")
	cmd.Flags().StringVar(&subcategory, "subcategory", "", "subcategory (id or label)")
	cmd.Flags().StringVar(&problem, "problem", "", "problem statement")
	cmd.Flags().StringVar(&format, "format", "markdown", "output format: json, markdown or html")
	cmd.Flags().StringVar(&out, "out", "", "write the report to this file instead of stdout")
	_ = cmd.MarkFlagRequired("problem")
	return cmd
}

func render(doc report.Document, format string) (string, error) {
	switch format {
	case "json":
		b, err := json.MarshalIndent(doc.Report, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	case "markdown", "md":
		return report.Markdown(doc), nil
	case "html":
		return report.HTML(doc)
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ep, err := loadEndpoint()
			if err != nil {
				return err
			}
			listen := cfg.ServerAddr
			if addr != "" {
				listen = addr
			}
			srv := &http.Server{
				Addr:    listen,
				Handler: server.New(server.Options{Endpoint: ep, Logger: logger}).Routes(),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logger.Info("starting web server", zap.String("addr", listen))
			fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "http listen address (overrides config.server_addr)")
	return cmd
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List challenge categories and subcategories",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, c := range taxonomy.Default().Categories {
				fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Label)
				for _, s := range c.Subcategories {
					fmt.Fprintf(w, "  %s\t%s\n", s.ID, s.Label)
					for _, p := range s.Prompts {
						fmt.Fprintf(w, "      \"%s\"\n", p)
					}
				}
			}
			return nil
		},
	}
}

func configureCmd() *cobra.Command {
	var llm config.LLMConfig
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Save endpoint credentials to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			merged := *cfg.LLM
			if llm.Provider != "" {
				merged.Provider = llm.Provider
			}
			if llm.APIKey != "" {
				merged.APIKey = llm.APIKey
			}
			if llm.APIKeyEnv != "" {
				merged.APIKeyEnv = llm.APIKeyEnv
			}
			if llm.BaseURL != "" {
				merged.BaseURL = llm.BaseURL
			}
			if llm.Model != "" {
				merged.Model = llm.Model
			}
			cfg.LLM = &merged
			if err := config.Save(configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", configPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&llm.Provider, "provider", "", "provider name (openai, deepseek, ...)")
	cmd.Flags().StringVar(&llm.APIKey, "api-key", "", "API key")
	cmd.Flags().StringVar(&llm.APIKeyEnv, "api-key-env", "", "environment variable holding the API key")
	cmd.Flags().StringVar(&llm.BaseURL, "base-url", "", "OpenAI-compatible base URL")
	cmd.Flags().StringVar(&llm.Model, "model", "", "model name")
	return cmd
}
