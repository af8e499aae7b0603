package cmd

import (
	"context"
	"log"

	"github.com/augusta-labs/incentive-matcher/internal/ai/gemini"
	"github.com/augusta-labs/incentive-matcher/internal/logger"
	"github.com/augusta-labs/incentive-matcher/internal/secrets"
	"github.com/augusta-labs/incentive-matcher/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	app = "incentive-matcher"
)

type Config struct {
	Database *store.Config   `mapstructure:"database"`
	AI       *AIConfig       `mapstructure:"ai"`
	Matching *MatchingConfig `mapstructure:"matching"`
	Chat     *ChatConfig     `mapstructure:"chat"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	MinimumScore float64       `mapstructure:"minimum-score"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type MatchingConfig struct {
	CompanyLimit int    `mapstructure:"company-limit"`
	ResultsFile  string `mapstructure:"results-file"`
}

type ChatConfig struct {
	ContextLimit int `mapstructure:"context-limit"`
	HistoryLimit int `mapstructure:"history-limit"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "incentive-matcher matches companies against public incentives with an AI judge and answers questions about the results",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("ai.minimum-score", 0.5)
	viper.SetDefault("matching.company-limit", 25)
	viper.SetDefault("chat.context-limit", 8)
	viper.SetDefault("chat.history-limit", 10)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is incentive-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Builtin commands like help and completion run without configuration.
	if !configRequired() {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

// configRequired reports whether the invoked command reads the configuration
// file. Commands that touch the database or the AI service do.
func configRequired() bool {
	for _, cmd := range []*cobra.Command{setupCmd, matchCmd, exportCmd, chatCmd} {
		if cmd.CalledAs() != "" {
			return true
		}
	}
	return false
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

// newLogger builds the process logger from the global logging flags.
func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// mustConfig loads and validates the configuration, aborting with an
// actionable message when it is unusable.
func mustConfig(l *zap.Logger) *Config {
	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		l.Fatal("config is required")
	}

	if config.Database == nil {
		l.Fatal("database configuration is required",
			zap.String("hint", "add a 'database' section with host, port, name, user and password"),
		)
	}

	if config.AI == nil {
		config.AI = &AIConfig{MinimumScore: viper.GetFloat64("ai.minimum-score")}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Matching == nil {
		config.Matching = &MatchingConfig{CompanyLimit: viper.GetInt("matching.company-limit")}
	}
	if config.Chat == nil {
		config.Chat = &ChatConfig{
			ContextLimit: viper.GetInt("chat.context-limit"),
			HistoryLimit: viper.GetInt("chat.history-limit"),
		}
	}

	return config
}

// openStore connects to the configured database or aborts.
func openStore(l *zap.Logger, config *Config) *store.Store {
	st, err := store.Open(config.Database)
	if err != nil {
		l.Fatal("connecting to the database",
			zap.Error(err),
			zap.String("hint", "check the 'database' section of the configuration file"),
		)
	}
	return st
}

// newGenerator builds the Gemini generator from the ai section of the config.
func newGenerator(ctx context.Context, cfg *AIConfig, l *zap.Logger) (*gemini.Generator, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, err
	}

	genLogger := logger.WithFields(l, logger.StringFields(
		logger.StringField{Key: logger.FieldProvider, Value: "gemini"},
		logger.StringField{Key: logger.FieldModel, Value: cfg.Gemini.Model},
	)...)

	return gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
}
