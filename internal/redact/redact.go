package redact

import (
	"net/url"
	"regexp"
	"strings"
)

// Replacement is written in place of every secret value.
const Replacement = "***REDACTED***"

// DefaultParams are query/form parameter names treated as secrets.
var DefaultParams = []string{"key", "appid", "api_key", "client_id", "client_secret", "access_token", "token", "password"}

var (
	bearerRe = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9\-._~+/]+=*`)
	urlRe    = regexp.MustCompile(`https?://[^\s"']+`)
)

// Redactor scrubs secrets out of URLs and free text.
type Redactor struct {
	params map[string]struct{}
}

func New(params []string) *Redactor {
	return &Redactor{params: toLowerSet(params)}
}

// Default redacts DefaultParams.
var Default = New(DefaultParams)

// Error returns err's text with secrets removed, or "" for nil.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return Default.Text(err.Error())
}

// Text redacts bearer tokens and secret query parameters inside any URLs
// found in s.
func (r *Redactor) Text(s string) string {
	s = bearerRe.ReplaceAllString(s, "${1}"+Replacement)
	return urlRe.ReplaceAllStringFunc(s, r.URL)
}

// URL redacts secret query parameters of a single URL. Unparseable input
// is returned unchanged.
func (r *Redactor) URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := r.Values(u.Query())
	u.RawQuery = q.Encode()
	return u.String()
}

// Values returns a copy of v with secret keys replaced.
func (r *Redactor) Values(v url.Values) url.Values {
	if len(v) == 0 {
		return v
	}
	out := make(url.Values, len(v))
	for k, vs := range v {
		if _, ok := r.params[strings.ToLower(k)]; ok {
			repl := make([]string, len(vs))
			for i := range repl {
				repl[i] = Replacement
			}
			out[k] = repl
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func toLowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, v := range items {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
