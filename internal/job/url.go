package job

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

const userAgent = "urlwatch/" + Version + " (+https://thp.io/2008/urlwatch/)"

const fileScheme = "file://"

var urlKind = Kind{
	Tag:      "url",
	Doc:      "Retrieve an URL from a web server",
	Required: []string{"url"},
	Optional: append([]string{
		"cookies", "data", "method", "ssl_no_verify", "ignore_cached",
		"http_proxy", "https_proxy", "headers", "ignore_connection_errors",
	}, metaFields...),
}

func init() { urlKind.New = newURLJob }

// URLJob retrieves an URL over HTTP, with conditional-fetch support and
// charset-fallback body decoding.
type URLJob struct {
	meta
	URL                    string
	Cookies                map[string]string
	Data                   string
	Method                 string
	SSLNoVerify            bool
	IgnoreCached           bool
	HTTPProxy              string
	HTTPSProxy             string
	Headers                map[string]string
	IgnoreConnectionErrors bool
}

func newURLJob(rec Record) (Job, error) {
	if err := checkRequired("url", rec, urlKind.Required); err != nil {
		return nil, err
	}
	j := &URLJob{
		URL:                    stringField(rec, "url"),
		Cookies:                stringMapField(rec, "cookies"),
		Data:                   stringField(rec, "data"),
		Method:                 stringField(rec, "method"),
		SSLNoVerify:            boolField(rec, "ssl_no_verify"),
		IgnoreCached:           boolField(rec, "ignore_cached"),
		HTTPProxy:              stringField(rec, "http_proxy"),
		HTTPSProxy:             stringField(rec, "https_proxy"),
		Headers:                stringMapField(rec, "headers"),
		IgnoreConnectionErrors: boolField(rec, "ignore_connection_errors"),
	}
	j.fill(rec)
	j.extra = extraFields(rec, append(urlKind.Required, urlKind.Optional...))
	return j, nil
}

func (j *URLJob) Kind() string { return urlKind.Tag }

func (j *URLJob) Location() string { return j.URL }

func (j *URLJob) PrettyName() string { return j.pretty(j.URL) }

func (j *URLJob) Serialize() Record {
	rec := Record{"kind": urlKind.Tag, "url": j.URL}
	if len(j.Cookies) > 0 {
		rec["cookies"] = stringMapValue(j.Cookies)
	}
	if j.Data != "" {
		rec["data"] = j.Data
	}
	if j.Method != "" {
		rec["method"] = j.Method
	}
	if j.SSLNoVerify {
		rec["ssl_no_verify"] = true
	}
	if j.IgnoreCached {
		rec["ignore_cached"] = true
	}
	if j.HTTPProxy != "" {
		rec["http_proxy"] = j.HTTPProxy
	}
	if j.HTTPSProxy != "" {
		rec["https_proxy"] = j.HTTPSProxy
	}
	if len(j.Headers) > 0 {
		rec["headers"] = stringMapValue(j.Headers)
	}
	if j.IgnoreConnectionErrors {
		rec["ignore_connection_errors"] = true
	}
	j.serializeInto(rec)
	return rec
}

// Retrieve fetches the URL. A prior etag or timestamp in state turns the
// request into a conditional fetch; a 304 response fails with
// ErrNotModified. On success the response's ETag is written back to state.
func (j *URLJob) Retrieve(ctx context.Context, state *State) (string, error) {
	// file:// locations bypass the network stack entirely.
	if strings.HasPrefix(j.URL, fileScheme) {
		data, err := os.ReadFile(strings.TrimPrefix(j.URL, fileScheme))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	headers := http.Header{}
	headers.Set("User-Agent", userAgent)

	if state.ETag != "" {
		headers.Set("If-None-Match", state.ETag)
	}
	if !state.Timestamp.IsZero() {
		headers.Set("If-Modified-Since", state.Timestamp.UTC().Format(http.TimeFormat))
	}
	if j.IgnoreCached {
		// Force a fresh fetch, bypassing conditional-GET semantics.
		headers.Del("If-None-Match")
		headers.Set("If-Modified-Since", time.Unix(0, 0).UTC().Format(http.TimeFormat))
		headers.Set("Cache-Control", "max-age=172800")
		headers.Set("Expires", time.Now().UTC().Format(http.TimeFormat))
	}

	method := j.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if j.Data != "" {
		method = http.MethodPost
		headers.Set("Content-Type", "application/x-www-form-urlencoded")
		body = strings.NewReader(j.Data)
	}

	applyCustomHeaders(headers, j.Headers)

	req, err := http.NewRequestWithContext(ctx, method, j.URL, body)
	if err != nil {
		return "", err
	}
	req.Header = headers
	for name, value := range j.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := j.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return "", ErrNotModified
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: j.URL}
	}

	// Save the new ETag into state for the next cycle's conditional fetch.
	state.ETag = resp.Header.Get("ETag")

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return decodeBody(raw, resp.Header.Get("Content-Type")), nil
}

func (j *URLJob) client() *http.Client {
	transport := &http.Transport{Proxy: j.proxy}
	if j.SSLNoVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Transport: transport}
}

// proxy selects the per-job proxy override when set, falling back to the
// HTTP_PROXY/HTTPS_PROXY environment variables.
func (j *URLJob) proxy(req *http.Request) (*url.URL, error) {
	switch req.URL.Scheme {
	case "http":
		if j.HTTPProxy != "" {
			return url.Parse(j.HTTPProxy)
		}
	case "https":
		if j.HTTPSProxy != "" {
			return url.Parse(j.HTTPSProxy)
		}
	}
	return http.ProxyFromEnvironment(req)
}

// applyCustomHeaders merges custom headers into the base headers. Matching
// is case-insensitive and the custom value always wins.
func applyCustomHeaders(h http.Header, custom map[string]string) {
	for name, value := range custom {
		h.Del(name)
		h.Set(name, value)
	}
}

var charsetRE = regexp.MustCompile(`^text/(html|plain);\s*charset=([^;]*)`)

// decodeBody decodes a response body to text. Recognized text content types
// decode with their declared charset; anything else tries UTF-8 first and
// falls back to Latin-1. An unsupported declared charset falls back to
// ASCII with invalid bytes substituted.
func decodeBody(raw []byte, contentType string) string {
	m := charsetRE.FindStringSubmatch(contentType)
	if m == nil {
		if utf8.Valid(raw) {
			return string(raw)
		}
		// Latin-1 maps every byte to a rune, so this cannot fail.
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return asciiSubstitute(raw)
		}
		return string(decoded)
	}

	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(m[2]))
	if err != nil || enc == nil {
		return asciiSubstitute(raw)
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return asciiSubstitute(raw)
	}
	return string(decoded)
}

// asciiSubstitute replaces every non-ASCII byte with the replacement rune.
func asciiSubstitute(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		if c < utf8.RuneSelf {
			b.WriteByte(c)
		} else {
			b.WriteRune(utf8.RuneError)
		}
	}
	return b.String()
}

// stringMapValue widens a string map for storage in a Record, mirroring
// what the YAML decoder produces on load.
func stringMapValue(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
