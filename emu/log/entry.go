package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Fields logrus.Fields

type Level uint32

// Levels are ordered like logrus levels, so they convert directly.
const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

func (lvl Level) String() string {
	return logrus.Level(lvl).String()
}

func setBackendLevel(lvl Level) {
	logrus.SetLevel(logrus.Level(lvl))
}

// SetOutput sets the destination of all log modules.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// Like a logrus.Entry, but is nullable. This allows us to selectively disable
// logging while also removing all code overhead associated with it
type Entry struct {
	mod    Module
	fields Fields
}

func (entry Entry) log() *logrus.Entry {
	final := logrus.StandardLogger().WithField("_mod", entry.mod.String())
	if len(entry.fields) != 0 {
		final = final.WithFields(logrus.Fields(entry.fields))
	}
	return final
}

func (entry Entry) WithFields(fields Fields) Entry {
	merged := make(Fields, len(entry.fields)+len(fields))
	for k, v := range entry.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	entry.fields = merged
	return entry
}

func (entry Entry) WithField(key string, value any) Entry {
	return entry.WithFields(Fields{key: value})
}

func (entry Entry) Debugf(format string, args ...any) {
	if entry.mod.Enabled(DebugLevel) {
		entry.log().Debugf(format, args...)
	}
}

func (entry Entry) Infof(format string, args ...any) {
	if entry.mod.Enabled(InfoLevel) {
		entry.log().Infof(format, args...)
	}
}

func (entry Entry) Warnf(format string, args ...any) {
	if entry.mod.Enabled(WarnLevel) {
		entry.log().Warnf(format, args...)
	}
}

func (entry Entry) Errorf(format string, args ...any) {
	if entry.mod.Enabled(ErrorLevel) {
		entry.log().Errorf(format, args...)
	}
}

func (entry Entry) Fatalf(format string, args ...any) {
	if entry.mod.Enabled(FatalLevel) {
		entry.log().Fatalf(format, args...)
	}
}
