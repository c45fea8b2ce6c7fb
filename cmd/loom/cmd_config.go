package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"loom/internal/config"
)

// configCmd inspects and edits the persisted configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and edit loom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		if shown.GeminiAPIKey != "" {
			shown.GeminiAPIKey = redact(shown.GeminiAPIKey)
		}
		if shown.OpenAIAPIKey != "" {
			shown.OpenAIAPIKey = redact(shown.OpenAIAPIKey)
		}
		if shown.Embedding != nil && shown.Embedding.GenAIAPIKey != "" {
			emb := *shown.Embedding
			emb.GenAIAPIKey = redact(emb.GenAIAPIKey)
			shown.Embedding = &emb
		}

		data, err := json.MarshalIndent(&shown, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value and save it",
	Long: `Supported keys: provider, model, base_url, gemini_api_key,
openai_api_key, ollama_host, timeout_seconds, templates_dir, store_path.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		switch key {
		case "provider":
			cfg.Provider = value
		case "model":
			cfg.Model = value
		case "base_url":
			cfg.BaseURL = value
		case "gemini_api_key":
			cfg.GeminiAPIKey = value
		case "openai_api_key":
			cfg.OpenAIAPIKey = value
		case "ollama_host":
			cfg.OllamaHost = value
		case "timeout_seconds":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return fmt.Errorf("timeout_seconds wants a positive integer, got %q", value)
			}
			cfg.TimeoutSeconds = n
		case "templates_dir":
			cfg.TemplatesDir = value
		case "store_path":
			cfg.StorePath = value
		default:
			return fmt.Errorf("unknown config key %q", key)
		}

		path := configPath
		if path == "" {
			path = config.DefaultUserConfigPath()
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", key, path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultUserConfigPath()
		}
		if err := config.DefaultUserConfig().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
		return nil
	},
}

func redact(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
}
