package eatap

import (
	"bytes"
	"context"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tokenAttrRegex = regexp.MustCompile(`name="_token"\s+value="([^"]+)"`)

// FetchFormToken pulls the hidden anti-forgery token out of the given
// page. Tokens rotate server-side so they are never cached, every write
// fetches a fresh one right before submitting.
func (c *Client) FetchFormToken(ctx context.Context, pageUrl string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchFormToken")
	defer span.End()
	span.SetAttributes(attribute.String("url", pageUrl))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(pageUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch token page")
		return "", err
	}
	err = validateResponse(res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token page failed validation")
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse token page html")
		return "", err
	}

	token := doc.Find("input[name=_token]").AttrOr("value", "")
	if token == "" {
		// the edit pages occasionally ship markup goquery trips over,
		// the raw attribute pair is still greppable
		groups := tokenAttrRegex.FindSubmatch(res.Body())
		if len(groups) == 2 {
			token = string(groups[1])
		}
	}
	if token == "" {
		err := ParseError{Url: pageUrl, Missing: "_token hidden field"}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return token, nil
}
