package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll follows the cursor until every page matching req is read.
func QueryAll(ctx context.Context, c Client, dbID string, req *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	q := notionapi.DatabaseQueryRequest{}
	if req != nil {
		q.Filter, q.Sorts, q.PageSize = req.Filter, req.Sorts, req.PageSize
	}

	var all []notionapi.Page
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}
		page := q
		resp, err := c.QueryDatabase(ctx, dbID, &page)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}
		all = append(all, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		q.StartCursor = resp.NextCursor
	}
}

// Text returns the plain text of a title, rich text, select, email, phone
// or number property. Missing properties are empty.
func Text(p notionapi.Page, name string) string {
	prop, ok := p.Properties[name]
	if !ok {
		return ""
	}
	switch v := prop.(type) {
	case *notionapi.TitleProperty:
		return plain(v.Title)
	case *notionapi.RichTextProperty:
		return plain(v.RichText)
	case *notionapi.SelectProperty:
		return v.Select.Name
	case *notionapi.EmailProperty:
		return v.Email
	case *notionapi.PhoneNumberProperty:
		return v.PhoneNumber
	}
	return ""
}

// List returns the option names of a multi-select property. A rich text
// property is split on commas.
func List(p notionapi.Page, name string) []string {
	prop, ok := p.Properties[name]
	if !ok {
		return nil
	}
	var out []string
	switch v := prop.(type) {
	case *notionapi.MultiSelectProperty:
		for _, o := range v.MultiSelect {
			out = append(out, o.Name)
		}
	case *notionapi.RichTextProperty:
		for _, s := range strings.Split(plain(v.RichText), ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Number returns a number property, or def when absent.
func Number(p notionapi.Page, name string, def float64) float64 {
	if v, ok := p.Properties[name].(*notionapi.NumberProperty); ok {
		return v.Number
	}
	return def
}

// Checkbox returns a checkbox property, or def when absent.
func Checkbox(p notionapi.Page, name string, def bool) bool {
	if v, ok := p.Properties[name].(*notionapi.CheckboxProperty); ok {
		return v.Checkbox
	}
	return def
}

func plain(rt []notionapi.RichText) string {
	var b strings.Builder
	for _, r := range rt {
		b.WriteString(r.PlainText)
	}
	return strings.TrimSpace(b.String())
}
