package mentors

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/ideaflow/internal/model"
)

// XLSXSource reads mentors from a spreadsheet whose first row holds the
// column headers. Header matching ignores case and surrounding spaces.
type XLSXSource struct {
	Path      string
	SheetName string // if set, overrides the first sheet
}

func (s *XLSXSource) Name() string { return "xlsx" }

func (s *XLSXSource) Load(ctx context.Context) ([]model.Mentor, error) {
	f, err := xlsx.OpenFile(s.Path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	sheet, err := s.sheet(f)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	cols := headerIndex(rowToStrings(sheet.Rows[0]))
	if _, ok := cols["name"]; !ok {
		return nil, eris.Errorf("xlsx: sheet %q has no name column", sheet.Name)
	}

	var out []model.Mentor
	for _, row := range sheet.Rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "xlsx: context cancelled")
		}
		cells := rowToStrings(row)
		get := func(keys ...string) string {
			for _, k := range keys {
				if idx, ok := cols[k]; ok && idx < len(cells) {
					if v := strings.TrimSpace(cells[idx]); v != "" {
						return v
					}
				}
			}
			return ""
		}

		name := get("name")
		if name == "" {
			continue
		}
		id := get("id", "external_id")
		if id == "" {
			id = strings.ToLower(name + "|" + get("contact", "email", "phone"))
		}
		out = append(out, model.Mentor{
			ExternalID: "xlsx:" + id,
			Name:       name,
			Contact:    get("contact", "email", "phone"),
			Expertise:  splitList(get("expertise", "skills")),
			Categories: splitList(get("categories", "category", "sectors")),
			Location:   get("location", "city"),
			Languages:  splitList(get("languages", "language")),
			Bio:        get("bio", "notes"),
			Active:     parseBool(get("active"), true),
			Capacity:   parseInt(get("capacity"), 1),
		})
	}
	return out, nil
}

func (s *XLSXSource) sheet(f *xlsx.File) (*xlsx.Sheet, error) {
	if s.SheetName != "" {
		sheet, ok := f.Sheet[s.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", s.SheetName)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		if _, dup := cols[key]; !dup && key != "" {
			cols[key] = i
		}
	}
	return cols
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = c.String()
	}
	return cells
}

func parseBool(s string, def bool) bool {
	switch strings.ToLower(s) {
	case "":
		return def
	case "yes", "y", "true", "1", "x":
		return true
	default:
		return false
	}
}

// parseInt tolerates "3" and "3.0"; anything else falls back to def.
func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return def
}
