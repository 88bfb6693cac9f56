package eatap

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"eatap-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Profile is a row out of the portal's client profile listing. Identity
// is Id + Kind, the portal reuses numeric ids across the two kinds.
type Profile struct {
	Id                 string `json:"id"`
	Kind               string `json:"type"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	Category           string `json:"category"`
	Url                string `json:"url"`
}

// edit links are the stable part of the listing markup, e.g.
// /profiles/individuals/123/edit
var profileEditPathRegex = regexp.MustCompile(`/profiles/(individuals|companies)/([^/]+)/edit`)

// ListProfiles scrapes the client profile listing in document order.
// The strict table-row walk runs first; if the portal's table markup
// drifted and nothing matches, a looser pass over bare edit links
// produces partially populated records instead of an empty result.
func (c *Client) ListProfiles(ctx context.Context) ([]Profile, error) {
	ctx, span := tracer.Start(ctx, "client:ListProfiles")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get("/profiles")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch profile listing")
		return nil, err
	}
	err = validateResponse(res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile listing failed validation")
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse profile listing html")
		return nil, err
	}

	profiles := profilesFromTable(doc)
	if len(profiles) == 0 {
		profiles = profilesFromAnchors(ctx, doc)
		if len(profiles) > 0 {
			span.AddEvent("primary pattern found nothing, used link fallback")
		}
	}

	slog.DebugContext(ctx, "extracted profiles", "count", len(profiles))
	span.SetAttributes(attribute.Int("count", len(profiles)))
	return profiles, nil
}

func profilesFromTable(doc *goquery.Document) []Profile {
	var profiles []Profile
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		anchor := cells.Eq(1).Find("a[href]").First()
		href := anchor.AttrOr("href", "")
		groups := profileEditPathRegex.FindStringSubmatch(href)
		if groups == nil {
			return
		}

		profiles = append(profiles, Profile{
			Id:                 groups[2],
			Kind:               groups[1],
			Name:               htmlutil.Text(anchor),
			RegistrationNumber: htmlutil.Text(cells.Eq(2)),
			Category:           htmlutil.Text(cells.Eq(3)),
			Url:                href,
		})
	})
	return profiles
}

func profilesFromAnchors(ctx context.Context, doc *goquery.Document) []Profile {
	var profiles []Profile
	for _, a := range htmlutil.GetAnchors(ctx, doc.Find("a[href]")) {
		groups := profileEditPathRegex.FindStringSubmatch(a.Href)
		if groups == nil {
			continue
		}
		profiles = append(profiles, Profile{
			Id:   groups[2],
			Kind: groups[1],
			Name: a.Name,
			Url:  a.Href,
		})
	}
	return profiles
}

// ProfileDetail fetches every form control value off an individual
// profile's edit page. The portal enforces no schema here, the result
// is whatever name/value pairs the page happens to contain.
func (c *Client) ProfileDetail(ctx context.Context, profileId string) (FormFields, error) {
	ctx, span := tracer.Start(ctx, "client:ProfileDetail")
	defer span.End()
	span.SetAttributes(attribute.String("profile_id", profileId))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/profiles/individuals/%s/edit", profileId))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch profile edit page")
		return FormFields{}, err
	}
	err = validateResponse(res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile edit page failed validation")
		return FormFields{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse profile edit page html")
		return FormFields{}, err
	}

	fields := extractFormFields(doc)
	span.SetAttributes(attribute.Int("field_count", fields.Len()))
	return fields, nil
}
