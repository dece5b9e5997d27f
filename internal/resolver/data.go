package resolver

import "strings"

// Resolution boundary

type ResolveParam struct {
	target      string
	method      string
	credentials string
}

// NewResolveParam describes one resolution. credentials is "user:password"
// or empty; method defaults to GET.
func NewResolveParam(target string, method string, credentials string) ResolveParam {
	if method == "" {
		method = "GET"
	}
	return ResolveParam{
		target:      target,
		method:      strings.ToUpper(method),
		credentials: credentials,
	}
}

func (p ResolveParam) Target() string {
	return p.target
}

func (p ResolveParam) Method() string {
	return p.method
}

func (p ResolveParam) Credentials() string {
	return p.credentials
}

// basicAuth splits credentials into user and password.
func (p ResolveParam) basicAuth() (string, string, bool) {
	if p.credentials == "" {
		return "", "", false
	}
	user, password, _ := strings.Cut(p.credentials, ":")
	return user, password, true
}
