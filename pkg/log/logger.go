package log

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// L is the global structured logger.
	L *zap.Logger
	// S is the sugared variant of L, for printf-style call sites such as the CLI.
	S *zap.SugaredLogger
)

// Init (re)builds the global loggers.
// logLevel is any level zapcore understands ("debug", "info", "warn", ...).
// env "development" selects the console encoder; anything else gets the JSON production config.
func Init(logLevel string, env string) {
	var cfg zap.Config
	if strings.EqualFold(env, "development") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build zap logger: %v", err))
	}

	L = logger
	S = logger.Sugar()
	zap.ReplaceGlobals(L)

	if level == zapcore.InfoLevel && !strings.EqualFold(logLevel, "info") && logLevel != "" {
		L.Warn("Invalid log level, using info", zap.String("invalid_level", logLevel))
	}
}

// Nop swaps the global loggers for no-op ones. Tests use it to keep output quiet.
func Nop() {
	L = zap.NewNop()
	S = L.Sugar()
}

func init() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}
	Init(logLevel, appEnv)
}
