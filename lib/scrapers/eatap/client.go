package eatap

import (
	"context"
	"net/url"
	"strings"
	"time"

	"eatap-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// the portal answers an expired session with a 200 login page instead
// of a 401, the redirect path is the only reliable signal
const loginPathMarker = "/login"

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
}

type ClientOptions struct {
	BaseUrl     string
	CookiesPath string
	// defaults to DefaultUserAgent when empty
	UserAgent string
}

// NewClient loads the persisted session cookies once and builds the
// long-lived http client all portal calls go through. The session is
// never refreshed afterwards, expiry is detected and surfaced as
// ErrSessionExpired.
func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	cookies := loadSessionCookies(ctx, opts.CookiesPath, baseUrl.Hostname())
	if len(cookies) > 0 {
		client.SetCookies(cookies)
	}

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}
	return c, nil
}

func (c *Client) defaultRedirectPolicy() resty.RedirectPolicy {
	return resty.DomainCheckRedirectPolicy(c.BaseUrl.Hostname())
}

// absoluteUrl resolves a portal path against the base url. The portal
// requires absolute Referer headers on form submissions.
func (c *Client) absoluteUrl(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return c.BaseUrl.ResolveReference(ref).String()
}

// validateResponse must run before any body is interpreted. Check
// order matters: the login redirect signal wins over the status code
// since the portal serves its login page with a 200.
func validateResponse(res *resty.Response) error {
	finalUrl := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalUrl = res.RawResponse.Request.URL.String()
	}
	if parsed, err := url.Parse(finalUrl); err == nil {
		if strings.Contains(parsed.Path, loginPathMarker) {
			return ErrSessionExpired
		}
	}

	// a redirect we did not follow still reveals an expired session
	// through its target
	if loc := res.Header().Get("Location"); loc != "" {
		if parsed, err := url.Parse(loc); err == nil && strings.Contains(parsed.Path, loginPathMarker) {
			return ErrSessionExpired
		}
	}

	if res.StatusCode() >= 400 {
		return StatusError{Code: res.StatusCode(), Url: finalUrl}
	}
	return nil
}
