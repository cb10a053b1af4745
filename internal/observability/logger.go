package observability

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/namelens/dentalnames/internal/config"
)

var (
	// CLILogger writes human-readable lines for commands.
	CLILogger *logging.Logger

	// ServerLogger is the `serve` logger. Its shape follows logging.profile.
	ServerLogger *logging.Logger
)

// InitCLILogger sets CLILogger. verbose lowers the level to DEBUG.
func InitCLILogger(serviceName string, verbose bool) error {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		return fmt.Errorf("cli logger: %w", err)
	}
	if verbose {
		logger.SetLevel(logging.DEBUG)
	}
	CLILogger = logger
	return nil
}

// InitServerLogger replaces ServerLogger with one built from cfg.
func InitServerLogger(serviceName string, cfg config.LoggingConfig, namespace string) error {
	logger, err := logging.New(serverLoggerConfig(serviceName, cfg, namespace))
	if err != nil {
		return fmt.Errorf("server logger: %w", err)
	}
	ServerLogger = logger
	return nil
}

// serverLoggerConfig maps the SIMPLE profile to colourless console lines and
// everything else to JSON with correlation ids.
func serverLoggerConfig(serviceName string, cfg config.LoggingConfig, namespace string) *logging.LoggerConfig {
	static := map[string]any{}
	if namespace != "" {
		static["namespace"] = namespace
	}

	sink := logging.SinkConfig{
		Type:    "console",
		Format:  "json",
		Console: &logging.ConsoleSinkConfig{Stream: "stderr"},
	}
	lc := &logging.LoggerConfig{
		Profile:          logging.ProfileStructured,
		DefaultLevel:     severity(cfg.Level),
		Service:          serviceName,
		Environment:      "production",
		StaticFields:     static,
		EnableCaller:     true,
		EnableStacktrace: true,
		Middleware: []logging.MiddlewareConfig{
			{Name: "correlation", Enabled: true, Order: 100, Config: map[string]any{}},
		},
	}

	if strings.EqualFold(strings.TrimSpace(cfg.Profile), "SIMPLE") {
		lc.Profile = logging.ProfileSimple
		lc.Middleware = nil
		lc.EnableStacktrace = false
		sink.Format = "console"
	}
	lc.Sinks = []logging.SinkConfig{sink}
	return lc
}

// severity normalises a config level to the names gofulmen expects.
func severity(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return "TRACE"
	case "debug":
		return "DEBUG"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	default:
		return "INFO"
	}
}
