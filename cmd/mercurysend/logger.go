package main

import (
	"fmt"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
)

var colors = map[string]string{
	"text":  "\x1b[38;5;6m%s\x1b[0m",
	"gray":  "\x1b[38;5;8m%s\x1b[0m",
	"trace": "\x1b[38;5;8mTRACE\x1b[0m",
	"debug": "\x1b[32mDEBUG\x1b[0m",
	"info":  "\x1b[38;5;111mINFO\x1b[0m",
	"warn":  "\x1b[38;5;214mWARN\x1b[0m",
	"error": "\x1b[38;5;204mERROR\x1b[0m",
	"fatal": "\x1b[38;5;52mFATAL\x1b[0m",
}

// newLogger writes colored logs to stderr so that stdout only carries the
// send result.
func newLogger(level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        colorable.NewColorableStderr(),
		TimeFormat: time.Stamp,
		FormatLevel: func(i any) string {
			name := fmt.Sprintf("%s", i)
			if colored, ok := colors[name]; ok {
				return colored
			}
			return name
		},
		FormatMessage: func(i any) string {
			return fmt.Sprintf(colors["text"], i)
		},
		FormatFieldName: func(i any) string {
			return fmt.Sprintf(colors["gray"], fmt.Sprintf("%s=", i))
		},
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}
