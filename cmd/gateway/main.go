package main

import (
	"flag"
	"os"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/mydocta/docta/pkg/logger"
	"github.com/mydocta/docta/pkg/prompt"
	"github.com/mydocta/docta/server"
)

// fileConfig is the optional TOML configuration file. Flags override file
// values when set explicitly.
type fileConfig struct {
	Listen     string              `toml:"listen"`
	DB         string              `toml:"db"`
	Model      string              `toml:"model"`
	Generation *generationConfig   `toml:"generation"`
	Safety     []prompt.SafetyRule `toml:"safety"`
}

type generationConfig struct {
	Temperature     float32 `toml:"temperature"`
	TopP            float32 `toml:"top_p"`
	TopK            int32   `toml:"top_k"`
	MaxOutputTokens int32   `toml:"max_output_tokens"`
}

func main() {
	// Parse command line flags
	listenAddr := flag.String("listen", ":8080", "Address to listen on")
	model := flag.String("model", "gemini-1.5-flash", "Hosted model identifier")
	dbPath := flag.String("db", "", "Path to SQLite database (default: in-memory)")
	configPath := flag.String("config", "", "Path to TOML configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Set up logger
	logger := logger.New(*debug)
	defer logger.Sync()

	cfg := server.Config{
		ListenAddr: *listenAddr,
		Model:      *model,
		DBPath:     *dbPath,
		Params:     prompt.DefaultGenerationParams(),
		Safety:     prompt.DefaultSafetyRules(),
	}

	if *configPath != "" {
		applyFileConfig(&cfg, *configPath, logger)

		// Flags given explicitly win over the config file.
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "listen":
				cfg.ListenAddr = *listenAddr
			case "model":
				cfg.Model = *model
			case "db":
				cfg.DBPath = *dbPath
			}
		})
	}

	cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GOOGLE_API_KEY")
	}

	logger.Info("mydocta chat gateway starting",
		zap.String("listen", cfg.ListenAddr),
		zap.String("model", cfg.Model),
		zap.Bool("debug", *debug),
	)

	s, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create gateway", zap.Error(err))
	}
	defer s.Close()

	if err := s.Run(); err != nil {
		logger.Fatal("gateway server failed", zap.Error(err))
	}
}

func applyFileConfig(cfg *server.Config, path string, logger *zap.Logger) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		logger.Fatal("failed to load config file", zap.String("path", path), zap.Error(err))
	}

	if fc.Listen != "" {
		cfg.ListenAddr = fc.Listen
	}
	if fc.DB != "" {
		cfg.DBPath = fc.DB
	}
	if fc.Model != "" {
		cfg.Model = fc.Model
	}
	if fc.Generation != nil {
		cfg.Params = prompt.GenerationParams{
			Temperature:     fc.Generation.Temperature,
			TopP:            fc.Generation.TopP,
			TopK:            fc.Generation.TopK,
			MaxOutputTokens: fc.Generation.MaxOutputTokens,
		}
	}
	if len(fc.Safety) > 0 {
		cfg.Safety = fc.Safety
	}
}
