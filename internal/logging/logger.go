package logging

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/xarlytos/fitplanner/internal/config"
	"github.com/xarlytos/fitplanner/pkg"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const cliServerName = "fitplan-cli"

type SetupParams struct {
	Environment   string
	LogLevel      string
	LogsPath      string
	LogToStdout   bool
	LogFormatJSON bool
	Sentry        SentryParams
}

type SentryParams struct {
	Enabled    bool
	DSN        string
	ServerName string
	// Tags are set on the sentry scope, so every reported event carries them.
	Tags map[string]string
	// Transport replaces the HTTP transport; nil uses sentry's default.
	Transport sentry.Transport
}

// ParamsFromConfig maps the loaded config to logger params. Sentry events get tagged with
// the backend host and the session policy, the two settings that change what a user sees.
func ParamsFromConfig(cfg *config.Config, sentryDSN string) SetupParams {
	backendHost := cfg.BackendURL
	if u, err := url.Parse(cfg.BackendURL); err == nil && u.Host != "" {
		backendHost = u.Host
	}

	return SetupParams{
		Environment:   cfg.Environment,
		LogLevel:      cfg.LogLevel,
		LogsPath:      cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		LogFormatJSON: cfg.LogFormatJSON,
		Sentry: SentryParams{
			Enabled:    cfg.SentryEnabled,
			DSN:        sentryDSN,
			ServerName: cliServerName,
			Tags: map[string]string{
				"backend_host":   backendHost,
				"session_policy": cfg.SessionPolicy,
			},
		},
	}
}

// Setup configures the standard logrus logger. The returned flush func waits for pending sentry
// events and must run before the process exits.
func Setup(params SetupParams) (flush func(), err error) {
	flush = func() {}

	if params.LogFormatJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.SetLevel(ParseLevel(params.LogLevel))
	log.SetOutput(newOutput(params.LogsPath, params.LogToStdout))

	if !params.Sentry.Enabled {
		return flush, nil
	}
	if params.Sentry.DSN == "" && params.Sentry.Transport == nil {
		log.Warnln("sentry enabled but SENTRY_DSN not set, errors will not be reported")
		return flush, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         params.Sentry.DSN,
		Environment: params.Environment,
		ServerName:  params.Sentry.ServerName,
		Transport:   params.Sentry.Transport,
	}); err != nil {
		return flush, fmt.Errorf("sentry init: %w", err)
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(params.Sentry.Tags)
	})

	log.AddHook(NewSentryHook([]log.Level{
		log.PanicLevel,
		log.FatalLevel,
		log.ErrorLevel,
	}))
	log.Debugf("sentry reporting errors for [%s] as %s", params.Environment, params.Sentry.ServerName)

	return func() { sentry.Flush(sentryFlushTimeout) }, nil
}

// newOutput writes to stdout when no logs path is set, otherwise to a rotated file,
// teed to stdout if asked.
func newOutput(logsPath string, toStdout bool) io.Writer {
	if logsPath == "" {
		return os.Stdout
	}
	if !strings.HasSuffix(logsPath, ".log") {
		logsPath += ".log"
	}

	rotated := &lumberjack.Logger{
		Filename:   logsPath,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	if toStdout {
		return pkg.NewCombinedWriter(os.Stdout, rotated)
	}
	return rotated
}

// ParseLevel parses a config log level; empty or unknown levels fall back to info.
func ParseLevel(level string) log.Level {
	if level == "" {
		return log.InfoLevel
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unknown log level %q, using info\n", level)
		return log.InfoLevel
	}
	return parsed
}
