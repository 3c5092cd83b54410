/*
Copyright 2026 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package logger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-logr/logr"
	"k8s.io/klog/v2/textlogger"
)

const (
	ErrorLevel   Verbosity = "0"
	WarningLevel Verbosity = "1"
	InfoLevel    Verbosity = "2"
	DebugLevel   Verbosity = "3"
	TraceLevel   Verbosity = "4"
)

const (
	warnLvl = iota + 1
	infoLvl
	debugLvl
	traceLvl
)

type (
	Verbosity string
	// struct just to be unique in context
	loggerKey struct{}
)

// Logger is a thin leveled facade over logr. The zero value discards everything.
type Logger struct {
	log logr.Logger
}

func NewLogger(level Verbosity) (*Logger, error) {
	v, err := strconv.Atoi(string(level))
	if err != nil {
		return nil, fmt.Errorf("parsing verbosity %q: %w", level, err)
	}
	if v < 0 {
		return nil, fmt.Errorf("verbosity must not be negative, got %d", v)
	}

	log := textlogger.NewLogger(textlogger.NewConfig(textlogger.Verbosity(v))).WithCallDepth(1)

	return &Logger{log: log}, nil
}

// FromLogr wraps an existing logr.Logger, mostly for tests.
func FromLogr(log logr.Logger) *Logger {
	return &Logger{log: log}
}

func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or a discarding one.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{}
}

func (l Logger) GetLogger() logr.Logger {
	return l.log
}

func (l Logger) WithName(name string) *Logger {
	return &Logger{log: l.log.WithName(name)}
}

func (l Logger) WithValues(keysAndValues ...interface{}) *Logger {
	return &Logger{log: l.log.WithValues(keysAndValues...)}
}

func (l Logger) Error(err error, message string, keysAndValues ...interface{}) {
	l.log.Error(err, fmt.Sprintf("ERROR %s", message), keysAndValues...)
}

func (l Logger) Warning(message string, keysAndValues ...interface{}) {
	l.log.V(warnLvl).Info(fmt.Sprintf("WARNING %s", message), keysAndValues...)
}

func (l Logger) Info(message string, keysAndValues ...interface{}) {
	l.log.V(infoLvl).Info(fmt.Sprintf("INFO %s", message), keysAndValues...)
}

func (l Logger) Debug(message string, keysAndValues ...interface{}) {
	l.log.V(debugLvl).Info(fmt.Sprintf("DEBUG %s", message), keysAndValues...)
}

func (l Logger) Trace(message string, keysAndValues ...interface{}) {
	l.log.V(traceLvl).Info(fmt.Sprintf("TRACE %s", message), keysAndValues...)
}
