package mentors

import (
	"context"

	"github.com/jomei/notionapi"

	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/pkg/notion"
)

// Notion property names read from the mentor database.
const (
	propName       = "Name"
	propContact    = "Contact"
	propExpertise  = "Expertise"
	propCategories = "Categories"
	propLocation   = "Location"
	propLanguages  = "Languages"
	propBio        = "Bio"
	propActive     = "Active"
	propCapacity   = "Capacity"
)

// NotionSource reads mentors from a Notion database, one page per mentor.
type NotionSource struct {
	client notion.Client
	dbID   string
}

// NewNotionSource creates a source for the database dbID.
func NewNotionSource(client notion.Client, dbID string) *NotionSource {
	return &NotionSource{client: client, dbID: dbID}
}

func (s *NotionSource) Name() string { return "notion" }

func (s *NotionSource) Load(ctx context.Context) ([]model.Mentor, error) {
	pages, err := notion.QueryAll(ctx, s.client, s.dbID, &notionapi.DatabaseQueryRequest{PageSize: 100})
	if err != nil {
		return nil, err
	}
	out := make([]model.Mentor, 0, len(pages))
	for _, p := range pages {
		if p.Archived {
			continue
		}
		out = append(out, pageToMentor(p))
	}
	return out, nil
}

func pageToMentor(p notionapi.Page) model.Mentor {
	contact := notion.Text(p, propContact)
	if contact == "" {
		contact = notion.Text(p, "Email")
	}
	return model.Mentor{
		ExternalID: "notion:" + string(p.ID),
		Name:       notion.Text(p, propName),
		Contact:    contact,
		Expertise:  notion.List(p, propExpertise),
		Categories: notion.List(p, propCategories),
		Location:   notion.Text(p, propLocation),
		Languages:  notion.List(p, propLanguages),
		Bio:        notion.Text(p, propBio),
		Active:     notion.Checkbox(p, propActive, true),
		Capacity:   int(notion.Number(p, propCapacity, 1)),
	}
}
