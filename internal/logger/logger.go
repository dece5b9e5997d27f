package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rohmanhakim/test-redirection/pkg/fileutil"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// ParseFormat maps a flag value to a Format. Unknown values fall back to console.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatConsole
	}
}

// ParseLevel maps a flag value to a zerolog level.
func ParseLevel(s string) (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.WarnLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	if level == zerolog.NoLevel {
		return zerolog.WarnLevel, nil
	}
	return level, nil
}

// Builder assembles the run logger: a console or JSON writer on stderr and an
// optional rotating file.
type Builder struct {
	level      zerolog.Level
	format     Format
	noColor    bool
	filePath   string
	maxSizeMB  int
	maxBackups int
	out        io.Writer
	fields     map[string]string
}

func NewBuilder() *Builder {
	return &Builder{
		level:      zerolog.WarnLevel,
		format:     FormatConsole,
		maxSizeMB:  10,
		maxBackups: 3,
		out:        os.Stderr,
		fields:     map[string]string{},
	}
}

func (b *Builder) WithLevel(level zerolog.Level) *Builder {
	b.level = level
	return b
}

func (b *Builder) WithFormat(format Format) *Builder {
	b.format = format
	return b
}

func (b *Builder) WithNoColor(noColor bool) *Builder {
	b.noColor = noColor
	return b
}

func (b *Builder) WithFile(path string) *Builder {
	b.filePath = path
	return b
}

// WithOutput replaces stderr as the console destination.
func (b *Builder) WithOutput(w io.Writer) *Builder {
	b.out = w
	return b
}

// WithField attaches a string field to every event.
func (b *Builder) WithField(key, value string) *Builder {
	b.fields[key] = value
	return b
}

func (b *Builder) Build() (zerolog.Logger, error) {
	if b.out == nil {
		return zerolog.Nop(), fmt.Errorf("logger: no output writer configured")
	}

	writers := []io.Writer{b.consoleWriter(b.out)}

	if b.filePath != "" {
		if err := fileutil.EnsureParentDir(b.filePath); err != nil {
			return zerolog.Nop(), fmt.Errorf("logger: %w", err)
		}
		// file output is always JSON so it stays machine readable
		writers = append(writers, &lumberjack.Logger{
			Filename:   b.filePath,
			MaxSize:    b.maxSizeMB,
			MaxBackups: b.maxBackups,
			LocalTime:  true,
		})
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(b.level).
		With().
		Timestamp()
	for k, v := range b.fields {
		ctx = ctx.Str(k, v)
	}
	return ctx.Logger(), nil
}

func (b *Builder) consoleWriter(w io.Writer) io.Writer {
	if b.format == FormatJSON {
		return w
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    b.noColor,
		TimeFormat: time.TimeOnly,
	}
}
