package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

const logLevelEnv = "BLUEPRINT_LOG_LEVEL"

// newLogger builds the CLI logger. An explicit level wins over the
// environment, and the default is info.
func newLogger(level string, out io.Writer) hclog.Logger {
	if level == "" {
		level = os.Getenv(logLevelEnv)
	}
	l := hclog.LevelFromString(level)
	if l == hclog.NoLevel {
		l = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "blueprint",
		Level:  l,
		Output: out,
	})
}

// badgerLogger routes manifest database logs through hclog.
type badgerLogger struct {
	log hclog.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.log.Error(msg(format, args))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.log.Warn(msg(format, args))
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.log.Debug(msg(format, args))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.log.Trace(msg(format, args))
}

func msg(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
