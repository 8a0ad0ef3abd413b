package utils

import (
	"log/slog"
	"os"

	"github.com/rollbar/rollbar-go"

	"pharmacoach/config"
)

// ErrorReporter forwards server errors to Rollbar when a token is configured.
type ErrorReporter struct {
	enabled bool
}

func NewErrorReporter(cfg *config.Config) *ErrorReporter {
	enabled := cfg.RollbarToken != ""
	if enabled {
		rollbar.SetToken(cfg.RollbarToken)
		rollbar.SetEnvironment(cfg.AppEnv)
		rollbar.SetCodeVersion(cfg.AppName)
		if host, err := os.Hostname(); err == nil {
			rollbar.SetServerHost(host)
		}
	}
	rollbar.SetEnabled(enabled)
	return &ErrorReporter{enabled: enabled}
}

// Report logs err and sends it to Rollbar.
func (r *ErrorReporter) Report(err error, attrs ...any) {
	slog.Error(err.Error(), attrs...)
	if r == nil || !r.enabled {
		return
	}
	extras := make(map[string]interface{}, len(attrs)/2)
	for i := 0; i+1 < len(attrs); i += 2 {
		if key, ok := attrs[i].(string); ok {
			extras[key] = attrs[i+1]
		}
	}
	rollbar.Error(err, extras)
}

// Close flushes pending reports.
func (r *ErrorReporter) Close() {
	if r != nil && r.enabled {
		rollbar.Wait()
	}
}
