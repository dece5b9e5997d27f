package redirect

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rohmanhakim/test-redirection/pkg/failure"
	"github.com/rohmanhakim/test-redirection/pkg/fileutil"
	"github.com/rohmanhakim/test-redirection/pkg/hashutil"
	"gopkg.in/yaml.v3"
)

const digestLength = 16

// Load reads the redirect file at path. The format follows the extension;
// delimiter separates the columns of CSV files.
func Load(path string, delimiter string) (Source, failure.ClassifiedError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Source{}, &LoadError{
			Message: fmt.Sprintf("could not resolve the config from %q: %v", path, err),
			Cause:   ErrCauseUnreadable,
		}
	}

	redirects, loadErr := Parse(content, FormatFromPath(fileutil.GetFileExtension(path)), path, delimiter)
	if loadErr != nil {
		return Source{}, loadErr
	}

	return Source{
		Path:      path,
		Redirects: redirects,
		Digest:    hashutil.Fingerprint(content, digestLength),
	}, nil
}

// Parse decodes content in the given format. name is used in error locations.
func Parse(content []byte, format Format, name string, delimiter string) ([]RedirectionConfig, failure.ClassifiedError) {
	var (
		redirects []RedirectionConfig
		err       error
	)

	switch format {
	case FormatCSV:
		return parseCSV(string(content), name, delimiter)
	case FormatYAML:
		err = yaml.Unmarshal(content, &redirects)
	default:
		err = json.Unmarshal(content, &redirects)
	}
	if err != nil {
		return nil, &LoadError{
			Message: fmt.Sprintf("%s: %v", name, err),
			Cause:   ErrCauseParse,
		}
	}

	if err := validateEntries(redirects, name); err != nil {
		return nil, err
	}
	return redirects, nil
}

// parseCSV reads one `from<delimiter>to` pair per line. Empty lines are
// skipped; columns past the second are ignored. Every malformed line is
// collected before failing.
func parseCSV(content string, name string, delimiter string) ([]RedirectionConfig, failure.ClassifiedError) {
	if delimiter == "" {
		delimiter = " "
	}

	var (
		redirects []RedirectionConfig
		problems  []string
		rows      []string
	)
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		columns := strings.Split(line, delimiter)
		from := columns[0]
		to := ""
		if len(columns) > 1 {
			to = columns[1]
		}

		location := fmt.Sprintf("%s:%d", name, i+1)
		if to == "" {
			problems = append(problems, fmt.Sprintf("failed parsing the `to` column while reading line %q in %s", line, location))
		}
		if from == "" {
			problems = append(problems, fmt.Sprintf("failed parsing the `from` column while reading line %q in %s", line, location))
		}
		if to == "" || from == "" {
			rows = append(rows, location)
			continue
		}

		redirects = append(redirects, RedirectionConfig{From: from, To: to})
	}

	if len(problems) > 0 {
		return nil, &LoadError{
			Message: strings.Join(problems, "; "),
			Cause:   ErrCauseMissingField,
			Rows:    rows,
		}
	}
	return redirects, nil
}

func validateEntries(redirects []RedirectionConfig, name string) failure.ClassifiedError {
	validate := validator.New()

	var problems []string
	for i, r := range redirects {
		err := validate.Struct(r)
		if err == nil {
			continue
		}
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			problems = append(problems, fmt.Sprintf("%s[%d]: %v", name, i, err))
			continue
		}
		for _, e := range errs {
			problems = append(problems, fmt.Sprintf("%s[%d]: '%s' failed rule '%s'", name, i, strings.ToLower(e.Field()), e.Tag()))
		}
	}

	if len(problems) > 0 {
		return &LoadError{
			Message: strings.Join(problems, "; "),
			Cause:   ErrCauseMissingField,
		}
	}
	return nil
}
