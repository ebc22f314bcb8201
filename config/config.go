package config

import (
	"fmt"
	"os"

	"github.com/askrepo/askrepo/constants/lipgloss"
	"github.com/askrepo/askrepo/providers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// AgentConfig holds the tunables of the iterative search loop and the
// supporting caches.
type AgentConfig struct {
	MaxIterations    int  `mapstructure:"max_iterations"`
	HistoryLength    int  `mapstructure:"history_length"`
	MaxFileChars     int  `mapstructure:"max_file_chars"`
	HeadChars        int  `mapstructure:"head_chars"`
	TailChars        int  `mapstructure:"tail_chars"`
	PreviewChars     int  `mapstructure:"preview_chars"`
	IndexPrefixBytes int  `mapstructure:"index_prefix_bytes"`
	TopK             int  `mapstructure:"top_k"`
	EnableCache      bool `mapstructure:"enable_cache"`
}

// Config represents the structure of the configuration file.
type Config struct {
	Version          string                      `mapstructure:"version"`
	Theme            string                      `mapstructure:"theme"`
	BotName          string                      `mapstructure:"bot_name"`
	Agent            *AgentConfig                `mapstructure:"agent"`
	AIProviderConfig *providers.AIProviderConfig `mapstructure:"ai_provider_config"`
}

// DefaultConfig values. The chat model carries answer generation; the helper
// model carries the short classify/select/assess calls and gets a smaller
// context window.
var DefaultConfig = Config{
	Version: "1.0.0",
	Theme:   "dracula",
	BotName: "askrepo",
	Agent: &AgentConfig{
		MaxIterations:    3,
		HistoryLength:    4,
		MaxFileChars:     8000,
		HeadChars:        6000,
		TailChars:        2000,
		PreviewChars:     500,
		IndexPrefixBytes: 8192,
		TopK:             5,
		EnableCache:      true,
	},
	AIProviderConfig: &providers.AIProviderConfig{
		Provider:        "ollama",
		BaseURL:         "http://localhost:11434/api",
		ChatModel:       "llama3.1",
		HelperModel:     "mistral",
		EmbeddingModel:  "nomic-embed-text",
		ChatCtxWindow:   16000,
		HelperCtxWindow: 4096,
		Temperature:     nil,
	},
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment
// variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	setDefaults()

	viper.AutomaticEnv()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	} else {
		viper.SetConfigName("askrepo-config")
		viper.AddConfigPath(cwd)

		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigType("json")
			if err := viper.ReadInConfig(); err != nil {
				// Defaults still make a working local-Ollama setup.
				fmt.Println(lipgloss.Yellow.Render("No configuration file found, using defaults"))
			}
		}
	}

	bindFlags(rootCmd)

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("bot_name", DefaultConfig.BotName)
	viper.SetDefault("agent.max_iterations", DefaultConfig.Agent.MaxIterations)
	viper.SetDefault("agent.history_length", DefaultConfig.Agent.HistoryLength)
	viper.SetDefault("agent.max_file_chars", DefaultConfig.Agent.MaxFileChars)
	viper.SetDefault("agent.head_chars", DefaultConfig.Agent.HeadChars)
	viper.SetDefault("agent.tail_chars", DefaultConfig.Agent.TailChars)
	viper.SetDefault("agent.preview_chars", DefaultConfig.Agent.PreviewChars)
	viper.SetDefault("agent.index_prefix_bytes", DefaultConfig.Agent.IndexPrefixBytes)
	viper.SetDefault("agent.top_k", DefaultConfig.Agent.TopK)
	viper.SetDefault("agent.enable_cache", DefaultConfig.Agent.EnableCache)
	viper.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	viper.SetDefault("ai_provider_config.base_url", DefaultConfig.AIProviderConfig.BaseURL)
	viper.SetDefault("ai_provider_config.chat_model", DefaultConfig.AIProviderConfig.ChatModel)
	viper.SetDefault("ai_provider_config.helper_model", DefaultConfig.AIProviderConfig.HelperModel)
	viper.SetDefault("ai_provider_config.embedding_model", DefaultConfig.AIProviderConfig.EmbeddingModel)
	viper.SetDefault("ai_provider_config.chat_ctx_window", DefaultConfig.AIProviderConfig.ChatCtxWindow)
	viper.SetDefault("ai_provider_config.helper_ctx_window", DefaultConfig.AIProviderConfig.HelperCtxWindow)
	viper.SetDefault("ai_provider_config.temperature", DefaultConfig.AIProviderConfig.Temperature)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("theme", "THEME")
	_ = viper.BindEnv("bot_name", "BOT_NAME")
	_ = viper.BindEnv("agent.max_iterations", "MAX_ITERATIONS")
	_ = viper.BindEnv("agent.enable_cache", "ENABLE_CACHE")
	_ = viper.BindEnv("ai_provider_config.provider", "PROVIDER")
	_ = viper.BindEnv("ai_provider_config.base_url", "BASE_URL")
	_ = viper.BindEnv("ai_provider_config.chat_model", "CHAT_MODEL")
	_ = viper.BindEnv("ai_provider_config.helper_model", "HELPER_MODEL")
	_ = viper.BindEnv("ai_provider_config.embedding_model", "EMBEDDING_MODEL")
	_ = viper.BindEnv("ai_provider_config.temperature", "TEMPERATURE")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("agent.max_iterations", rootCmd.PersistentFlags().Lookup("max_iterations"))
	_ = viper.BindPFlag("agent.enable_cache", rootCmd.PersistentFlags().Lookup("enable_cache"))
	_ = viper.BindPFlag("ai_provider_config.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("ai_provider_config.base_url", rootCmd.PersistentFlags().Lookup("base_url"))
	_ = viper.BindPFlag("ai_provider_config.chat_model", rootCmd.PersistentFlags().Lookup("chat_model"))
	_ = viper.BindPFlag("ai_provider_config.helper_model", rootCmd.PersistentFlags().Lookup("helper_model"))
	_ = viper.BindPFlag("ai_provider_config.embedding_model", rootCmd.PersistentFlags().Lookup("embedding_model"))
	_ = viper.BindPFlag("ai_provider_config.temperature", rootCmd.PersistentFlags().Lookup("temperature"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set customize theme for buffering response from ai. (e.g., 'dracula', 'light', 'dark')")
	rootCmd.PersistentFlags().Int("max_iterations", DefaultConfig.Agent.MaxIterations, "Maximum select/load/assess rounds per query.")
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.Agent.EnableCache, "Enable or disable the on-disk index snapshot cache.")

	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")

	rootCmd.PersistentFlags().String("provider", DefaultConfig.AIProviderConfig.Provider, "The name of the AI provider (currently 'ollama').")
	rootCmd.PersistentFlags().String("base_url", DefaultConfig.AIProviderConfig.BaseURL, "The base URL of the AI provider API.")
	rootCmd.PersistentFlags().String("chat_model", DefaultConfig.AIProviderConfig.ChatModel, "The model used for answer generation, such as 'llama3.1'.")
	rootCmd.PersistentFlags().String("helper_model", DefaultConfig.AIProviderConfig.HelperModel, "The model used for classification, file selection, and confidence assessment.")
	rootCmd.PersistentFlags().String("embedding_model", DefaultConfig.AIProviderConfig.EmbeddingModel, "The model used for documentation chunk retrieval embeddings.")
	rootCmd.PersistentFlags().Float32("temperature", 0, "Adjusts the AI model's creativity (0-1).")
}
