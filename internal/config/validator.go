package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rohmanhakim/test-redirection/pkg/urlutil"
)

// constraints is the validation view of Config.
type constraints struct {
	Concurrency       int     `validate:"min=1"`
	DelayMs           int64   `validate:"min=0"`
	JitterMs          int64   `validate:"min=0"`
	ReplaceHost       string  `validate:"omitempty,rewritehost"`
	ReplaceFromHost   string  `validate:"omitempty,rewritehost"`
	ReplaceToHost     string  `validate:"omitempty,rewritehost"`
	User              string  `validate:"omitempty,userpass"`
	Method            string  `validate:"required,alpha"`
	ResolverKind      string  `validate:"oneof=http curl"`
	TimeoutMs         int64   `validate:"gt=0"`
	MaxRedirects      int     `validate:"min=1"`
	MaxAttempt        int     `validate:"min=1"`
	BackoffInitialMs  int64   `validate:"min=0"`
	BackoffMultiplier float64 `validate:"gte=1"`
	BackoffMaxMs      int64   `validate:"min=0"`
	CSVDelimiter      string  `validate:"required"`
	LogLevel          string  `validate:"oneof=trace debug info warn error"`
	LogFormat         string  `validate:"oneof=console json"`
}

func newValidator() *validator.Validate {
	v := validator.New()

	// accepts exactly the hosts urlutil.ReplaceHost can splice into a URL
	_ = v.RegisterValidation("rewritehost", func(fl validator.FieldLevel) bool {
		_, err := urlutil.NormalizeHost(fl.Field().String())
		return err == nil
	})

	_ = v.RegisterValidation("userpass", func(fl validator.FieldLevel) bool {
		name, _, ok := strings.Cut(fl.Field().String(), ":")
		return ok && name != ""
	})

	return v
}

func validate(c Config) error {
	view := constraints{
		Concurrency:       c.concurrency,
		DelayMs:           c.delay.Milliseconds(),
		JitterMs:          c.jitter.Milliseconds(),
		ReplaceHost:       c.replaceHost,
		ReplaceFromHost:   c.replaceFromHost,
		ReplaceToHost:     c.replaceToHost,
		User:              c.user,
		Method:            c.method,
		ResolverKind:      string(c.resolverKind),
		TimeoutMs:         c.timeout.Milliseconds(),
		MaxRedirects:      c.maxRedirects,
		MaxAttempt:        c.maxAttempt,
		BackoffInitialMs:  c.backoffInitialDuration.Milliseconds(),
		BackoffMultiplier: c.backoffMultiplier,
		BackoffMaxMs:      c.backoffMaxDuration.Milliseconds(),
		CSVDelimiter:      c.csvDelimiter,
		LogLevel:          c.logLevel,
		LogFormat:         c.logFormat,
	}

	err := newValidator().Struct(view)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := fmt.Sprintf("'%s' failed rule '%s'", e.Field(), e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (expected: %s)", e.Param())
		}
		if e.Value() != nil && e.Value() != "" {
			msg += fmt.Sprintf(", actual: '%v'", e.Value())
		}
		messages = append(messages, msg)
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(messages, "; "))
}
