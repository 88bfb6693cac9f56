package eatap

import (
	"eatap-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// adapter-controlled fields, never read from pages and never passed
// through from callers
const tokenField = "_token"
const methodField = "_method"

// extractFormFields collects the value of every named input and select
// control in document order. Selects contribute the text of their
// selected option, or an empty string when nothing is selected, which
// mirrors what a browser would submit.
func extractFormFields(doc *goquery.Document) FormFields {
	fields := FormFields{}

	doc.Find("input[name]").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name == "" || name == tokenField || name == methodField {
			return
		}
		value, exists := input.Attr("value")
		if !exists {
			return
		}
		fields.Set(name, value)
	})

	doc.Find("select[name]").Each(func(_ int, sel *goquery.Selection) {
		name := sel.AttrOr("name", "")
		if name == "" || name == tokenField || name == methodField {
			return
		}
		selected := sel.Find("option[selected]").First()
		fields.Set(name, htmlutil.Text(selected))
	})

	return fields
}
