package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai/gemini"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/secrets"
	"github.com/spigell/resume-screener/internal/screener"
)

// env is what every command needs: a logger, the loaded config and a ready
// screener service.
type env struct {
	logger  *zap.Logger
	config  *Config
	service *screener.Service
}

func setup(ctx context.Context) *env {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	service, err := newService(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating the screener",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY, GEMINI_API_KEY_FILE or ai.gemini.api-key-file in the configuration file"),
		)
	}

	return &env{logger: logger, config: config, service: service}
}

func newService(ctx context.Context, cfg *Config, logger *zap.Logger) (*screener.Service, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.AI.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.AI.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.AI.Gemini.APIKeyFile,
		Value: cfg.AI.Gemini.APIKey,
	})
	if err != nil {
		return nil, err
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:          apiKey,
		Model:           cfg.AI.Gemini.Model,
		Temperature:     cfg.AI.Gemini.Temperature,
		MaxOutputTokens: cfg.AI.Gemini.MaxOutputTokens,
	}, logger)
	if err != nil {
		return nil, err
	}

	serviceLogger := logger.With(zap.Int("ai_retry_attempts", cfg.Screener.MaxRetries))

	return screener.New(generator, cfg.Screener, screener.WithLogger(serviceLogger))
}

func redacted(cfg *Config) *Config {
	out := *cfg
	if cfg.AI != nil && cfg.AI.Gemini != nil {
		ai := *cfg.AI
		g := *cfg.AI.Gemini
		if g.APIKey != "" {
			g.APIKey = "***"
		}
		ai.Gemini = &g
		out.AI = &ai
	}
	return &out
}

// readInput returns the content of path, or stdin when path is "-".
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	return string(data), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
