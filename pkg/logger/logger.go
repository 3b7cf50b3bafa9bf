package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	logger *logrus.Logger
	fields logrus.Fields
}

type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
	PanicLevel LogLevel = "panic"
)

type Config struct {
	Level      LogLevel `json:"level"`
	Format     string   `json:"format"` // json, text
	Output     string   `json:"output"` // stdout, stderr, file path
	TimeFormat string   `json:"time_format"`
	Caller     bool     `json:"caller"`
	Colors     bool     `json:"colors"`
	AppName    string   `json:"app_name"`
	Version    string   `json:"version"`
}

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
)

func NewLogger(config *Config) (*Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(string(config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.Format == "json" {
		logger.SetFormatter(&CustomJSONFormatter{
			TimestampFormat: config.TimeFormat,
			AppName:         config.AppName,
			Version:         config.Version,
		})
	} else {
		logger.SetFormatter(&CustomTextFormatter{
			TimestampFormat: config.TimeFormat,
			ForceColors:     config.Colors,
			DisableColors:   !config.Colors,
			AppName:         config.AppName,
		})
	}

	switch config.Output {
	case "stderr":
		logger.SetOutput(os.Stderr)
	case "stdout", "":
		logger.SetOutput(os.Stdout)
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, err
		}
		logger.SetOutput(file)
	}

	logger.SetReportCaller(config.Caller)

	return &Logger{
		logger: logger,
		fields: make(logrus.Fields),
	}, nil
}

// NewNop returns a logger that discards everything. Used by tests and optional collaborators.
func NewNop() *Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Logger{
		logger: logger,
		fields: make(logrus.Fields),
	}
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	newFields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		newFields[k] = v
	}
	newFields[key] = value

	return &Logger{
		logger: l.logger,
		fields: newFields,
	}
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	newFields := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &Logger{
		logger: l.logger,
		fields: newFields,
	}
}

func (l *Logger) WithContext(ctx context.Context) *Logger {
	return l.WithFields(extractContextFields(ctx))
}

func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *Logger) WithUserID(userID string) *Logger {
	return l.WithField("user_id", userID)
}

func (l *Logger) WithReportID(reportID string) *Logger {
	return l.WithField("report_id", reportID)
}

func (l *Logger) WithMatchID(matchID string) *Logger {
	return l.WithField("match_id", matchID)
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.WithField("request_id", requestID)
}

func (l *Logger) Debug(msg string) {
	l.logger.WithFields(l.fields).Debug(msg)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Debugf(format, args...)
}

func (l *Logger) Info(msg string) {
	l.logger.WithFields(l.fields).Info(msg)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Infof(format, args...)
}

func (l *Logger) Warn(msg string) {
	l.logger.WithFields(l.fields).Warn(msg)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Warnf(format, args...)
}

func (l *Logger) Error(msg string) {
	l.logger.WithFields(l.fields).Error(msg)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Errorf(format, args...)
}

func (l *Logger) Fatal(msg string) {
	l.logger.WithFields(l.fields).Fatal(msg)
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Fatalf(format, args...)
}

// Structured logging methods
func (l *Logger) LogReportEvent(reportID string, event string, details map[string]interface{}) {
	fields := map[string]interface{}{
		"report_id": reportID,
		"event":     event,
		"type":      "report_event",
	}

	for k, v := range details {
		fields[k] = v
	}

	l.WithFields(fields).Info("Report event occurred")
}

func (l *Logger) LogMatchEvent(matchID string, event string, details map[string]interface{}) {
	fields := map[string]interface{}{
		"match_id": matchID,
		"event":    event,
		"type":     "match_event",
	}

	for k, v := range details {
		fields[k] = v
	}

	l.WithFields(fields).Info("Match event occurred")
}

// LogAudit records a user-initiated state change that must stay traceable.
func (l *Logger) LogAudit(action, resource, resourceID, userID string, details map[string]interface{}) {
	fields := map[string]interface{}{
		"action":      action,
		"resource":    resource,
		"resource_id": resourceID,
		"user_id":     userID,
		"type":        "audit",
	}

	for k, v := range details {
		fields[k] = v
	}

	l.WithFields(fields).Info("Audit log entry")
}

func (l *Logger) LogAPIRequest(method, endpoint string, statusCode int, duration time.Duration, userID string) {
	fields := map[string]interface{}{
		"method":      method,
		"endpoint":    endpoint,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
		"type":        "api_request",
	}

	if userID != "" {
		fields["user_id"] = userID
	}

	entry := l.WithFields(fields)
	switch {
	case statusCode >= 500:
		entry.Error("API request processed")
	case statusCode >= 400:
		entry.Warn("API request processed")
	default:
		entry.Info("API request processed")
	}
}

func (l *Logger) LogPerformanceMetric(metric string, value float64, unit string, tags map[string]string) {
	fields := map[string]interface{}{
		"metric": metric,
		"value":  value,
		"unit":   unit,
		"type":   "performance_metric",
	}

	for k, v := range tags {
		fields[k] = v
	}

	l.WithFields(fields).Debug("Performance metric recorded")
}

func (l *Logger) SetOutput(output io.Writer) {
	l.logger.SetOutput(output)
}

func (l *Logger) SetLevel(level LogLevel) {
	logrusLevel, err := logrus.ParseLevel(string(level))
	if err != nil {
		logrusLevel = logrus.InfoLevel
	}
	l.logger.SetLevel(logrusLevel)
}

// extractContextFields reads typed keys first and then the plain string keys
// gin stores on its context.
func extractContextFields(ctx context.Context) map[string]interface{} {
	fields := make(map[string]interface{})
	if ctx == nil {
		return fields
	}

	for _, key := range []contextKey{RequestIDKey, UserIDKey} {
		if value, ok := ctx.Value(key).(string); ok && value != "" {
			fields[string(key)] = value
			continue
		}
		if value, ok := ctx.Value(string(key)).(string); ok && value != "" {
			fields[string(key)] = value
		}
	}

	return fields
}
