package internal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Importance string

const (
	Info    Importance = " "
	Warning Importance = "?"
	Error   Importance = "!"
	Raw     Importance = "-"
)

type Logger struct {
	database  Database
	location  *time.Location
	debugMode bool
	writer    chan *LogEvent
	console   zerolog.Logger
}

type LogEvent struct {
	Importance Importance
	Message    *FeatureLogMessage
}

// NewLogger creates a logger writing to stdout; APP_ENV=dev switches to
// human readable console output. Every line carries the component field.
func NewLogger(component string, location *time.Location) *Logger {
	var out io.Writer = os.Stdout
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return newLogger(zerolog.New(out).With().Timestamp().Str("component", component).Logger(), location)
}

func newLogger(console zerolog.Logger, location *time.Location) *Logger {
	if location == nil {
		location = time.UTC
	}
	logger := &Logger{
		debugMode: false,
		location:  location,
		writer:    make(chan *LogEvent, 100),
		console:   console.Level(zerolog.InfoLevel),
	}
	go logger.startWriter()
	return logger
}

func (l *Logger) startWriter() {
	for {
		event := <-l.writer

		l.logLine(event.Importance, event.Message)

		if l.database != nil && event.Importance != Raw {
			if err := l.database.WriteLogMessage(event.Message); err != nil {
				l.console.Error().Err(err).Msg("write log to database failed")
			}
		}
	}
}

func (l *Logger) SetDebugMode(debugMode bool) {
	l.debugMode = debugMode
	if debugMode {
		l.console = l.console.Level(zerolog.DebugLevel)
	} else {
		l.console = l.console.Level(zerolog.InfoLevel)
	}
}

func (l *Logger) SetDatabase(database Database) {
	l.database = database
}

func logTime(t time.Time) string {
	timeString := fmt.Sprintf("%d-%02d-%02d %02d:%02d:%02d", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	return timeString
}

func (l *Logger) FeatureEvent(feature, id, text string) {
	l.logEvent(Info, l.newFeatureLogMessage(feature, id, text))
}

func (l *Logger) logEvent(importance Importance, message *FeatureLogMessage) {
	if message.StationId == "" {
		message.StationId = "*"
	}
	message.Importance = string(importance)
	event := &LogEvent{
		Importance: importance,
		Message:    message,
	}
	l.writer <- event
}

func (l *Logger) Debug(text string) {
	l.logEvent(Info, l.newFeatureLogMessage("info", "", text))
}

func (l *Logger) Warn(text string) {
	l.logEvent(Warning, l.newFeatureLogMessage("warning", "", text))
}

func (l *Logger) Error(text string, err error) {
	l.logEvent(Error, l.newFeatureLogMessage("error", "", fmt.Sprintf("%s: %s", text, err)))
}

func (l *Logger) RawDataEvent(direction, data string) {
	if l.debugMode {
		l.logEvent(Raw, l.newFeatureLogMessage("raw", "", fmt.Sprintf("%s: %s", direction, data)))
	}
}

func (l *Logger) logLine(importance Importance, message *FeatureLogMessage) {
	var event *zerolog.Event
	switch importance {
	case Warning:
		event = l.console.Warn()
	case Error:
		event = l.console.Error()
	case Raw:
		event = l.console.Debug()
	default:
		event = l.console.Info()
	}
	event.Str("feature", message.Feature).Str("id", message.StationId).Msg(message.Text)
}

func (l *Logger) newFeatureLogMessage(feature, id, text string) *FeatureLogMessage {
	return &FeatureLogMessage{
		Time:      logTime(time.Now().In(l.location)),
		TimeStamp: time.Now().UTC(),
		Text:      text,
		Feature:   feature,
		StationId: id,
	}
}
