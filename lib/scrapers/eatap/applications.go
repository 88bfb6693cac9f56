package eatap

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"eatap-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Application is a row out of the portal's application listing. Status
// is whatever label the portal renders, not a closed set, unknown
// labels pass through untouched.
type Application struct {
	Id                 string `json:"id"`
	Applicant          string `json:"applicant"`
	ApplicationNumber  string `json:"application_number,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	Category           string `json:"category,omitempty"`
	Status             string `json:"status,omitempty"`
	RowNumber          int    `json:"row_number,omitempty"`
	Url                string `json:"url"`
}

type ApplicationQuery struct {
	Keyword string
	CA      string
	Status  string
}

type Equipment struct {
	Type       string `json:"type,omitempty"`
	Technology string `json:"technology,omitempty"`
	Model      string `json:"model,omitempty"`
	Capacity   string `json:"capacity,omitempty"`
	Quantity   string `json:"quantity,omitempty"`
}

type ApplicationDetail struct {
	ApplicationNumber string            `json:"application_number,omitempty"`
	Consumer          map[string]string `json:"consumer"`
	FormData          FormFields        `json:"form_data"`
	Equipment         []Equipment       `json:"equipment"`
	StatusBadges      []string          `json:"status_badges"`
}

// applicant links are the stable part of the listing markup, matching
// both absolute and relative hrefs, e.g. /applications/482/applicant
var applicantPathRegex = regexp.MustCompile(`/applications/(\d+)/applicant`)

var atpNumberRegex = regexp.MustCompile(`ATP\d+`)
var regNoCellRegex = regexp.MustCompile(`Reg\. No: ([^<]+)`)
var categoryCellRegex = regexp.MustCompile(`Category: ([^<]+)`)
var consumerRegex = regexp.MustCompile(`(?is)consumer[^>]*>\s*([^<]+)`)

// ListApplications scrapes the application listing, optionally
// filtered. Filters are passed straight through to the portal's own
// query parameters, the scrape itself is filter-agnostic.
func (c *Client) ListApplications(ctx context.Context, query ApplicationQuery) ([]Application, error) {
	ctx, span := tracer.Start(ctx, "client:ListApplications")
	defer span.End()

	req := c.Http.R().SetContext(ctx)
	if query.CA != "" {
		req.SetQueryParam("ca", query.CA)
	}
	if query.Keyword != "" {
		req.SetQueryParam("keyword", query.Keyword)
	}
	if query.Status != "" {
		req.SetQueryParam("status", query.Status)
	}

	res, err := req.Get("/applications")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch application listing")
		return nil, err
	}
	err = validateResponse(res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "application listing failed validation")
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse application listing html")
		return nil, err
	}

	applications := applicationsFromTable(doc)
	if len(applications) == 0 {
		applications = applicationsFromAnchors(ctx, doc)
		if len(applications) > 0 {
			span.AddEvent("primary pattern found nothing, used link fallback")
		}
	}

	slog.DebugContext(ctx, "extracted applications", "count", len(applications))
	span.SetAttributes(attribute.Int("count", len(applications)))
	return applications, nil
}

func applicationsFromTable(doc *goquery.Document) []Application {
	var applications []Application
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}

		// the first cell of a listing row is a plain row number
		rowNumber, err := strconv.Atoi(htmlutil.Text(cells.Eq(0)))
		if err != nil {
			return
		}

		nameCell := cells.Eq(1)
		anchor := nameCell.Find("a[href]").First()
		groups := applicantPathRegex.FindStringSubmatch(anchor.AttrOr("href", ""))
		if groups == nil {
			return
		}
		id := groups[1]

		app := Application{
			Id:        id,
			Applicant: htmlutil.Text(anchor),
			RowNumber: rowNumber,
			Url:       fmt.Sprintf("/applications/%s/applicant", id),
		}

		// the secondary labels share the name cell with the anchor
		nameHtml, err := nameCell.Html()
		if err == nil {
			if m := regNoCellRegex.FindStringSubmatch(nameHtml); m != nil {
				app.RegistrationNumber = htmlutil.CleanText(m[1])
			}
			if m := categoryCellRegex.FindStringSubmatch(nameHtml); m != nil {
				app.Category = htmlutil.CleanText(m[1])
			}
		}
		app.ApplicationNumber = atpNumberRegex.FindString(nameCell.Find("strong").Text())

		app.Status = htmlutil.Text(cells.Eq(2).Find("span").First())
		if app.Status == "" {
			app.Status = "Unknown"
		}

		applications = append(applications, app)
	})
	return applications
}

func applicationsFromAnchors(ctx context.Context, doc *goquery.Document) []Application {
	var applications []Application
	for _, a := range htmlutil.GetAnchors(ctx, doc.Find("a[href]")) {
		groups := applicantPathRegex.FindStringSubmatch(a.Href)
		if groups == nil {
			continue
		}
		applications = append(applications, Application{
			Id:        groups[1],
			Applicant: a.Name,
			Url:       fmt.Sprintf("/applications/%s/applicant", groups[1]),
		})
	}
	return applications
}

// GetApplicationDetail scrapes everything recognizable off an
// application's applicant page. Missing pieces come back empty, only a
// failed fetch or an expired session is an error.
func (c *Client) GetApplicationDetail(ctx context.Context, applicationId string) (ApplicationDetail, error) {
	ctx, span := tracer.Start(ctx, "client:GetApplicationDetail")
	defer span.End()
	span.SetAttributes(attribute.String("application_id", applicationId))

	html, err := c.GetApplicationRaw(ctx, applicationId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch application page")
		return ApplicationDetail{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse application page html")
		return ApplicationDetail{}, err
	}

	detail := ApplicationDetail{
		ApplicationNumber: atpNumberRegex.FindString(html),
		Consumer:          map[string]string{},
		FormData:          extractFormFields(doc),
		Equipment:         []Equipment{},
		StatusBadges:      []string{},
	}

	if m := consumerRegex.FindStringSubmatch(html); m != nil {
		detail.Consumer["name"] = htmlutil.CleanText(m[1])
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		var cleaned []string
		cells.Each(func(_ int, cell *goquery.Selection) {
			cleaned = append(cleaned, htmlutil.Text(cell))
		})
		if equipment, ok := equipmentFromCells(cleaned); ok {
			detail.Equipment = append(detail.Equipment, equipment)
		}
	})

	doc.Find(`span[class*="badge"]`).Each(func(_ int, badge *goquery.Selection) {
		detail.StatusBadges = append(detail.StatusBadges, htmlutil.Text(badge))
	})

	return detail, nil
}

// the portal has no dedicated equipment table, rows are recognized by
// their vocabulary. Deliberately fuzzy, markup drift produces false
// negatives rather than junk records.
var equipmentKeywords = []string{"SOLAR", "PANEL", "INVERTER", "WP", "KW"}

func equipmentFromCells(cells []string) (Equipment, bool) {
	if len(cells) < 4 {
		return Equipment{}, false
	}

	joined := strings.ToUpper(strings.Join(cells, " "))
	matched := false
	for _, keyword := range equipmentKeywords {
		if strings.Contains(joined, keyword) {
			matched = true
			break
		}
	}
	if !matched {
		return Equipment{}, false
	}

	equipment := Equipment{
		Type:       cells[0],
		Technology: cells[1],
		Model:      cells[2],
		Capacity:   cells[3],
	}
	if len(cells) > 4 {
		equipment.Quantity = cells[4]
	}
	return equipment, true
}

// GetApplicationRaw returns the application page html as-is, mostly
// useful for debugging extraction against the live portal.
func (c *Client) GetApplicationRaw(ctx context.Context, applicationId string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:GetApplicationRaw")
	defer span.End()
	span.SetAttributes(attribute.String("application_id", applicationId))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/applications/%s/applicant", applicationId))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch application page")
		return "", err
	}
	err = validateResponse(res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "application page failed validation")
		return "", err
	}

	return res.String(), nil
}
