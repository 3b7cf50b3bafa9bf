package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type CustomJSONFormatter struct {
	TimestampFormat string
	PrettyPrint     bool
	AppName         string
	Version         string
}

type CustomTextFormatter struct {
	TimestampFormat string
	ForceColors     bool
	DisableColors   bool
	AppName         string
}

func (f *CustomJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Data)+6)

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = time.RFC3339
	}
	data["timestamp"] = entry.Time.Format(timestampFormat)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message

	if f.AppName != "" {
		data["app"] = f.AppName
	}
	if f.Version != "" {
		data["version"] = f.Version
	}

	if entry.HasCaller() {
		data["caller"] = fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line)
		data["function"] = entry.Caller.Function
	}

	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			data[k] = err.Error()
			continue
		}
		data[k] = v
	}

	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	encoder := json.NewEncoder(b)
	if f.PrettyPrint {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(data); err != nil {
		return nil, fmt.Errorf("failed to marshal fields to JSON: %w", err)
	}

	return b.Bytes(), nil
}

func (f *CustomTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = "2006-01-02 15:04:05"
	}

	levelColor, reset := "", ""
	if f.ForceColors && !f.DisableColors {
		reset = "\033[0m"
		switch entry.Level {
		case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
			levelColor = "\033[31m" // Red
		case logrus.WarnLevel:
			levelColor = "\033[33m" // Yellow
		case logrus.InfoLevel:
			levelColor = "\033[36m" // Cyan
		default:
			levelColor = "\033[37m"
		}
	}

	fmt.Fprintf(b, "%s [%s%s%s] ",
		entry.Time.Format(timestampFormat),
		levelColor,
		strings.ToUpper(entry.Level.String()),
		reset,
	)

	if f.AppName != "" {
		fmt.Fprintf(b, "[%s] ", f.AppName)
	}

	if entry.HasCaller() {
		fmt.Fprintf(b, "[%s:%d] ", entry.Caller.File, entry.Caller.Line)
	}

	b.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		fields := make([]string, 0, len(entry.Data))
		for k, v := range entry.Data {
			fields = append(fields, fmt.Sprintf("%s=%v", k, v))
		}
		sort.Strings(fields)
		fmt.Fprintf(b, " %s", strings.Join(fields, " "))
	}

	b.WriteByte('\n')

	return b.Bytes(), nil
}
