package util

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
)

// DefaultUserAgent is the desktop Edge build the site is known to serve
// without an extra challenge.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/102.0.5005.124 Safari/537.36 Edg/102.0.1245.44"

type HTTPClientOptions struct {
	// SiteURL scopes the configured cookies and the Referer header. Requests
	// to any other host go out without them.
	SiteURL string

	Timeout    time.Duration
	UserAgent  string
	Cookie     string
	CookieFile string
	Transport  http.RoundTripper
	// Cloudflare wraps the transport with cloudflare-bp-go, which pins a
	// browser-like TLS fingerprint and header order.
	Cloudflare  bool
	DebugLogger interface {
		Debugf(string, ...any)
	}
}

// NewHTTPClient builds the client every site request goes through.
func NewHTTPClient(opts HTTPClientOptions) (*http.Client, error) {
	site, err := url.Parse(strings.TrimSpace(opts.SiteURL))
	if err != nil {
		return nil, fmt.Errorf("site url: %w", err)
	}

	cookie := joinCookies(opts.Cookie, opts.CookieFile)
	if cookie != "" && site.Host == "" {
		return nil, errors.New("cookies are configured but the site url has no host")
	}

	jar, _ := cookiejar.New(nil)

	baseTransport := opts.Transport
	if baseTransport == nil {
		baseTransport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        16,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		}
	}

	if opts.Cloudflare {
		baseTransport = cloudflarebp.AddCloudFlareByPass(baseTransport)
	}

	client := &http.Client{
		Timeout: opts.Timeout,
		Transport: siteTransport{
			base:   baseTransport,
			site:   site,
			ua:     opts.UserAgent,
			cookie: cookie,
			log:    opts.DebugLogger,
		},
		Jar: jar,
	}

	if opts.DebugLogger != nil {
		opts.DebugLogger.Debugf("HTTP client for %s (timeout=%s, ua=%q, cookies=%t, cloudflare=%t)\n",
			site.Host, opts.Timeout, opts.UserAgent, cookie != "", opts.Cloudflare)
	}

	return client, nil
}

// siteTransport sets the user agent on every request and keeps the site's
// credentials on the site.
type siteTransport struct {
	base   http.RoundTripper
	site   *url.URL
	ua     string
	cookie string
	log    interface{ Debugf(string, ...any) }
}

func (t siteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	if t.ua != "" {
		req.Header.Set("User-Agent", t.ua)
	}

	onSite := SameHost(req.URL, t.site)
	if onSite {
		if t.cookie != "" {
			// Cookies the jar collected from the site come first.
			if have := req.Header.Get("Cookie"); have != "" {
				req.Header.Set("Cookie", have+"; "+t.cookie)
			} else {
				req.Header.Set("Cookie", t.cookie)
			}
		}
	} else {
		req.Header.Del("Referer")
	}

	if t.log != nil {
		t.log.Debugf("HTTP %s %s (site=%t)\n", req.Method, req.URL.String(), onSite)
	}

	return t.base.RoundTrip(req)
}

// SameHost reports whether a and b name the same host and port, treating an
// omitted port as the scheme's default.
func SameHost(a, b *url.URL) bool {
	if a == nil || b == nil || a.Host == "" {
		return false
	}

	return strings.EqualFold(a.Hostname(), b.Hostname()) && portOf(a) == portOf(b)
}

func portOf(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}

	switch strings.ToLower(u.Scheme) {
	case "http":
		return "80"
	case "https":
		return "443"
	default:
		return ""
	}
}

// joinCookies merges the inline cookie string with the first non-empty line
// of file, which is where a browser export of cf_clearance usually lands.
func joinCookies(inline, file string) string {
	parts := []string{}
	if s := strings.TrimSpace(inline); s != "" {
		parts = append(parts, s)
	}

	if file != "" {
		if f, err := os.Open(file); err == nil {
			sc := bufio.NewScanner(f)
			for sc.Scan() {
				if line := strings.TrimSpace(sc.Text()); line != "" {
					parts = append(parts, line)
					break
				}
			}
			_ = f.Close()
		}
	}

	return strings.Join(parts, "; ")
}

func PickUserAgent(override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}

	return DefaultUserAgent
}

// Human formats a byte count for debug output.
func Human(n int64) string {
	if n < 1<<10 {
		return fmt.Sprintf("%d B", n)
	}

	v := float64(n)
	unit := "B"
	for _, u := range []string{"KB", "MB", "GB"} {
		if v < 1<<10 {
			break
		}
		v /= 1 << 10
		unit = u
	}

	return fmt.Sprintf("%.2f %s", v, unit)
}
