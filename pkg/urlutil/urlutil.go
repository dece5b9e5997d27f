package urlutil

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

var ErrNotAbsolute = errors.New("url is not absolute")
var ErrInvalidHost = errors.New("invalid replacement host")

// hostProfile is the lookup profile without STD3 rules, so service names
// such as "web_app" survive the conversion.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.BidiRule(),
	idna.StrictDomainName(false),
)

// ReplaceHost swaps the host of rawURL for host and leaves everything else
// (scheme, userinfo, path, query, fragment) untouched, byte for byte.
//
// host may be "name" or "name:port". When it carries no port the URL keeps
// its own port. The name is converted to its ASCII (punycode) form.
func ReplaceHost(rawURL string, host string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrNotAbsolute, rawURL)
	}

	name, port, err := normalizeHost(host)
	if err != nil {
		return "", err
	}
	if port == "" {
		port = parsed.Port()
	}

	authStart := len(parsed.Scheme) + len("://")
	if len(rawURL) < authStart || rawURL[authStart-3:authStart] != "://" {
		return "", fmt.Errorf("%w: %q", ErrNotAbsolute, rawURL)
	}
	authEnd := len(rawURL)
	if i := strings.IndexAny(rawURL[authStart:], "/?#"); i >= 0 {
		authEnd = authStart + i
	}

	userinfo := ""
	if at := strings.LastIndexByte(rawURL[authStart:authEnd], '@'); at >= 0 {
		userinfo = rawURL[authStart : authStart+at+1]
	}

	return rawURL[:authStart] + userinfo + joinHostPort(name, port) + rawURL[authEnd:], nil
}

// NormalizeHost validates a rewrite host ("name" or "name:port") and returns
// it in the form ReplaceHost writes into URLs.
func NormalizeHost(host string) (string, error) {
	name, port, err := normalizeHost(host)
	if err != nil {
		return "", err
	}
	return joinHostPort(name, port), nil
}

func normalizeHost(host string) (string, string, error) {
	name, port, hasPort := splitHostPort(host)
	if name == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidHost, host)
	}
	if hasPort {
		if n, err := strconv.ParseUint(port, 10, 16); err != nil || n == 0 {
			return "", "", fmt.Errorf("%w: %q: bad port", ErrInvalidHost, host)
		}
	}

	asciiName, err := toASCII(name)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q: %v", ErrInvalidHost, host, err)
	}
	return asciiName, port, nil
}

// StripQuery removes the query component ("?..." up to an optional fragment)
// from rawURL. It works on the raw string so nothing else is re-encoded.
func StripQuery(rawURL string) string {
	q := strings.IndexByte(rawURL, '?')
	if q < 0 {
		return rawURL
	}
	// a '?' inside the fragment is not a query
	if f := strings.IndexByte(rawURL, '#'); f >= 0 && f < q {
		return rawURL
	}

	rest := rawURL[q:]
	if f := strings.IndexByte(rest, '#'); f >= 0 {
		return rawURL[:q] + rest[f:]
	}
	return rawURL[:q]
}

func splitHostPort(host string) (string, string, bool) {
	host = strings.TrimSpace(host)
	if h, p, err := net.SplitHostPort(host); err == nil {
		return h, p, true
	}
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]"), "", false
}

func toASCII(name string) (string, error) {
	if net.ParseIP(name) != nil {
		return name, nil
	}
	ascii, err := hostProfile.ToASCII(name)
	if err != nil {
		return "", err
	}
	for _, r := range ascii {
		if !isHostRune(r) {
			return "", fmt.Errorf("disallowed rune %q", r)
		}
	}
	return ascii, nil
}

func isHostRune(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= '0' && r <= '9' ||
		r == '-' || r == '_' || r == '.'
}

func joinHostPort(name string, port string) string {
	if port != "" {
		return net.JoinHostPort(name, port)
	}
	if strings.Contains(name, ":") {
		return "[" + name + "]"
	}
	return name
}
