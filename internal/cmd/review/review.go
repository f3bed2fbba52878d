// Package review wires configuration and startup for the review service.
package review

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/Angad-23/paper-checker/internal/platform/config"
	"github.com/Angad-23/paper-checker/internal/platform/otel"
	server "github.com/Angad-23/paper-checker/internal/services/review/app"
)

// Config holds review command configuration.
type Config struct {
	GRPCPort          int    `env:"PAPER_CHECKER_GRPC_PORT" envDefault:"8090"`
	HTTPAddr          string `env:"PAPER_CHECKER_HTTP_ADDR" envDefault:"localhost:8091"`
	DBPath            string `env:"PAPER_CHECKER_DB_PATH"`
	ArtifactDir       string `env:"PAPER_CHECKER_ARTIFACT_DIR"`
	GradingConfigPath string `env:"PAPER_CHECKER_GRADING_CONFIG"`
	TokenSecret       string `env:"PAPER_CHECKER_TOKEN_SECRET"`
}

// ParseConfig reads configuration from the environment, then lets flags
// override it.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}

	fs.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "The review gRPC server port")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The review HTTP server address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the review SQLite database")
	fs.StringVar(&cfg.ArtifactDir, "artifact-dir", cfg.ArtifactDir, "Directory for stored submission artifacts")
	fs.StringVar(&cfg.GradingConfigPath, "grading-config", cfg.GradingConfigPath, "Path to the grading scale YAML file")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "HMAC secret for API bearer tokens")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the review server.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "review")
	if err != nil {
		log.Printf("otel setup: %v", err)
	} else if shutdown != nil {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Printf("otel shutdown: %v", err)
			}
		}()
	}

	return server.Run(ctx, server.Options{
		GRPCPort:          cfg.GRPCPort,
		HTTPAddr:          cfg.HTTPAddr,
		DBPath:            cfg.DBPath,
		ArtifactDir:       cfg.ArtifactDir,
		GradingConfigPath: cfg.GradingConfigPath,
		TokenSecret:       cfg.TokenSecret,
	})
}
