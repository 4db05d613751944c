package mentors

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pagedNotion struct {
	pages [][]notionapi.Page
	calls int
}

func (p *pagedNotion) QueryDatabase(_ context.Context, _ string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	i := p.calls
	p.calls++
	resp := &notionapi.DatabaseQueryResponse{Results: p.pages[i]}
	if i+1 < len(p.pages) {
		resp.HasMore = true
		resp.NextCursor = notionapi.Cursor("next")
	}
	return resp, nil
}

func mentorPage(id, name string, archived bool) notionapi.Page {
	return notionapi.Page{
		ID:       notionapi.ObjectID(id),
		Archived: archived,
		Properties: notionapi.Properties{
			propName:      &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: name}}},
			"Email":       &notionapi.EmailProperty{Email: "m@example.org"},
			propExpertise: &notionapi.MultiSelectProperty{MultiSelect: []notionapi.Option{{Name: "Retail"}}},
			propLocation:  &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "Rabat"}}},
			propCapacity:  &notionapi.NumberProperty{Number: 2},
		},
	}
}

func TestNotionSource_Load(t *testing.T) {
	client := &pagedNotion{pages: [][]notionapi.Page{
		{mentorPage("p1", "Karim", false), mentorPage("p2", "Old", true)},
		{mentorPage("p3", "Sara", false)},
	}}

	ms, err := NewNotionSource(client, "db").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, 2, client.calls)

	k := ms[0]
	assert.Equal(t, "notion:p1", k.ExternalID)
	assert.Equal(t, "Karim", k.Name)
	assert.Equal(t, "m@example.org", k.Contact)
	assert.Equal(t, []string{"Retail"}, k.Expertise)
	assert.Equal(t, "Rabat", k.Location)
	assert.True(t, k.Active)
	assert.Equal(t, 2, k.Capacity)
	assert.Equal(t, "notion:p3", ms[1].ExternalID)
}
