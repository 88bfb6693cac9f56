package eatap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// WriteOutcome is the classified result of a form submission. A "the
// portal said no" outcome is a Failure value, not an error; only an
// expired session escapes as an error since the caller has to fix that
// precondition before retrying anything.
type WriteOutcome struct {
	OK             bool   `json:"success"`
	ResourceId     string `json:"profile_id,omitempty"`
	RedirectTarget string `json:"redirect_url,omitempty"`
	Reason         string `json:"error,omitempty"`
}

var profileCreatedRedirectRegex = regexp.MustCompile(`/profiles/individuals/(\d+)/edit`)

const profileCollectionPath = "/profiles/individuals"

// CreateProfile submits a new individual profile. The returned outcome
// carries the new profile's id when the portal reveals it through its
// redirect, otherwise the id has to be discovered via a follow-up
// ListProfiles.
func (c *Client) CreateProfile(ctx context.Context, fields FormFields) (WriteOutcome, error) {
	ctx, span := tracer.Start(ctx, "client:CreateProfile")
	defer span.End()

	return c.submitProfileForm(ctx, profileCollectionPath, "", fields)
}

// UpdateProfile submits changed fields for an existing individual
// profile. The portal expects a spoofed PUT through its method override
// convention.
func (c *Client) UpdateProfile(ctx context.Context, profileId string, fields FormFields) (WriteOutcome, error) {
	ctx, span := tracer.Start(ctx, "client:UpdateProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile_id", profileId))

	formPath := fmt.Sprintf("/profiles/individuals/%s/edit", profileId)
	return c.submitProfileForm(ctx, formPath, "PUT", fields)
}

// buildWritePayload lays out the ordered submission the portal expects:
// the anti-forgery token duplicated, the method override when present,
// then the caller's fields. The duplicated token is a reverse-engineered
// portal requirement, submissions with a single token get rejected.
// Caller-supplied token or method fields are dropped, those are always
// adapter-controlled.
func buildWritePayload(token, methodOverride string, fields FormFields) []Field {
	payload := []Field{
		{Name: tokenField, Value: token},
		{Name: tokenField, Value: token},
	}
	if methodOverride != "" {
		payload = append(payload, Field{Name: methodField, Value: methodOverride})
	}
	for _, f := range fields.Entries() {
		if f.Name == tokenField || f.Name == methodField {
			continue
		}
		payload = append(payload, f)
	}
	return payload
}

// encodeForm is an order- and duplicate-preserving replacement for
// url.Values.Encode, which sorts keys and would break the token pair.
func encodeForm(payload []Field) string {
	var out strings.Builder
	for i, f := range payload {
		if i > 0 {
			out.WriteByte('&')
		}
		out.WriteString(url.QueryEscape(f.Name))
		out.WriteByte('=')
		out.WriteString(url.QueryEscape(f.Value))
	}
	return out.String()
}

func (c *Client) submitProfileForm(ctx context.Context, formPath, methodOverride string, fields FormFields) (WriteOutcome, error) {
	ctx, span := tracer.Start(ctx, "client:submitProfileForm")
	defer span.End()
	span.SetAttributes(attribute.String("form_path", formPath))

	formUrl := c.absoluteUrl(formPath)

	token, err := c.FetchFormToken(ctx, formUrl)
	if errors.Is(err, ErrSessionExpired) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session expired while fetching token")
		return WriteOutcome{}, err
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch token")
		return WriteOutcome{OK: false, Reason: err.Error()}, nil
	}

	// the submission response has to be inspected before the redirect
	// is taken, the redirect target is the only success signal
	c.Http.SetRedirectPolicy(resty.RedirectPolicyFunc(
		func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	))
	defer c.Http.SetRedirectPolicy(c.defaultRedirectPolicy())

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/x-www-form-urlencoded").
		SetHeader("referer", formUrl).
		SetBody(encodeForm(buildWritePayload(token, methodOverride, fields))).
		Post(formUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make submission request")
		return WriteOutcome{OK: false, Reason: err.Error()}, nil
	}

	err = validateResponse(res)
	if errors.Is(err, ErrSessionExpired) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session expired on submission")
		return WriteOutcome{}, err
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission failed validation")
		return WriteOutcome{OK: false, Reason: err.Error()}, nil
	}

	outcome := classifyWriteResponse(res)
	if !outcome.OK {
		span.SetStatus(codes.Error, outcome.Reason)
	}
	return outcome, nil
}

func classifyWriteResponse(res *resty.Response) WriteOutcome {
	switch res.StatusCode() {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		return WriteOutcome{
			OK:     false,
			Reason: fmt.Sprintf("unexpected response: %d", res.StatusCode()),
		}
	}

	location := res.Header().Get("Location")
	if groups := profileCreatedRedirectRegex.FindStringSubmatch(location); groups != nil {
		return WriteOutcome{
			OK:             true,
			ResourceId:     groups[1],
			RedirectTarget: location,
		}
	}
	if strings.Contains(location, profileCollectionPath) {
		// accepted, but the portal bounced to the listing without
		// revealing the id; callers discover it via ListProfiles
		return WriteOutcome{
			OK:             true,
			RedirectTarget: location,
		}
	}
	return WriteOutcome{
		OK:     false,
		Reason: fmt.Sprintf("unexpected redirect target: %s", location),
	}
}
