package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"loom/internal/config"
	"loom/internal/embedding"
	"loom/internal/llm"
	"loom/internal/logging"
	"loom/internal/prompt"
	"loom/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	provider   string
	model      string
	timeout    time.Duration

	// Loaded configuration, available to every subcommand after
	// PersistentPreRunE.
	cfg *config.UserConfig
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "loom - prompt templates, chat models, and semantic search from one CLI",
	Long: `loom is a small toolkit for working with large language models.

It wires prompt templates, chat model providers (Gemini, OpenAI-compatible,
Ollama), output parsers, and a local embedding store into composable
pipelines.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := logging.Init(verbose); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		path := configPath
		if path == "" {
			path = config.DefaultUserConfigPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if provider != "" {
			cfg.Provider = provider
		}
		if model != "" {
			cfg.Model = model
		}
		if timeout > 0 {
			cfg.TimeoutSeconds = int(timeout.Seconds())
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: .loom/config.json, then ~/.loom/config.json)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "Chat model provider: gemini, openai, ollama")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "Model name override")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Model call timeout")
	rootCmd.Flags().StringVar(&chatSystemPrompt, "system", "", "System prompt for the interactive chat session")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newModelClient builds a chat client from the merged configuration.
func newModelClient() (llm.Client, error) {
	pc, err := llm.DetectProvider(cfg)
	if err != nil {
		return nil, err
	}
	return llm.NewClientFromConfig(pc)
}

// newLibrary loads the template corpus: embedded defaults plus the
// configured templates directory.
func newLibrary() (*prompt.Library, error) {
	dir := cfg.TemplatesDir
	if dir == "" {
		dir = filepath.Join(".loom", "templates")
	}
	return prompt.NewLibrary(dir)
}

// openStore opens the document/session store, attaching the embedding
// engine when one can be configured. A missing engine degrades search
// to keyword matching rather than failing.
func openStore() (*store.Store, error) {
	path := cfg.StorePath
	if path == "" {
		path = filepath.Join(".loom", "loom.db")
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if engine, err := embedding.NewEngine(cfg.Embedding); err == nil {
		s.SetEngine(engine)
	} else {
		logging.L().Warn("embedding engine unavailable, search degrades to keywords")
	}
	return s, nil
}
