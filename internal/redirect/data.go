package redirect

// RedirectionConfig is one expected redirect. To is the canonical final URL.
type RedirectionConfig struct {
	From string `json:"from" yaml:"from" validate:"required"`
	To   string `json:"to" yaml:"to" validate:"required"`
	// IgnoreQueryParameters overrides the global option when set.
	IgnoreQueryParameters *bool `json:"ignoreQueryParameters,omitempty" yaml:"ignoreQueryParameters,omitempty"`
	// Method overrides the global method when non-empty.
	Method string `json:"method,omitempty" yaml:"method,omitempty" validate:"omitempty,alpha"`
}

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// FormatFromPath picks the decoder by file extension. Unknown extensions are
// read as JSON.
func FormatFromPath(ext string) Format {
	switch ext {
	case "csv", "txt":
		return FormatCSV
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Source is a loaded redirect file.
type Source struct {
	Path      string
	Redirects []RedirectionConfig
	// Digest fingerprints the raw file content.
	Digest string
}
