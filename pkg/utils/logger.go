// Package utils holds small helpers shared by the commands.
package utils

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// NewLogger returns a zap logger writing to stderr, and also to logFile when
// it is set. Debug selects the development config (console, debug level);
// otherwise the production config (JSON, info level) is used.
// Stdout is never used: the MCP stdio transport owns it.
func NewLogger(debug bool, logFile string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return nil, err
		}
		cfg.OutputPaths = append(cfg.OutputPaths, logFile)
	}
	return cfg.Build()
}
