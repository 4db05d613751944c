package mentors

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	s, err := f.AddSheet(sheet)
	require.NoError(t, err)
	for _, data := range rows {
		row := s.AddRow()
		for _, v := range data {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "mentors.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestXLSXSource_Load(t *testing.T) {
	path := writeWorkbook(t, "Mentors", [][]string{
		{"Name", "Email", "Expertise", "Category", "City", "Languages", "Active", "Capacity"},
		{"Amina Haddad", "amina@example.org", "solar; irrigation", "energy,agriculture", "Agadir", "ar, fr", "yes", "3"},
		{"", "nobody@example.org"},
		{"Youssef", "", "payments", "fintech", "Casablanca", "fr", "no", "2.0"},
	})

	src := &XLSXSource{Path: path, SheetName: "Mentors"}
	ms, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ms, 2)

	a := ms[0]
	assert.Equal(t, "xlsx:amina haddad|amina@example.org", a.ExternalID)
	assert.Equal(t, "amina@example.org", a.Contact)
	assert.Equal(t, []string{"solar", "irrigation"}, a.Expertise)
	assert.Equal(t, []string{"energy", "agriculture"}, a.Categories)
	assert.Equal(t, "Agadir", a.Location)
	assert.True(t, a.Active)
	assert.Equal(t, 3, a.Capacity)

	y := ms[1]
	assert.False(t, y.Active)
	assert.Equal(t, 2, y.Capacity)
}

func TestXLSXSource_IDColumnAndDefaults(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]string{
		{" External ID ", "name"},
		{"m-7", "Leila"},
	})

	ms, err := (&XLSXSource{Path: path}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "xlsx:m-7", ms[0].ExternalID)
	assert.True(t, ms[0].Active)
	assert.Equal(t, 1, ms[0].Capacity)
}

func TestXLSXSource_Errors(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]string{{"Email"}, {"a@example.org"}})

	_, err := (&XLSXSource{Path: path}).Load(context.Background())
	assert.ErrorContains(t, err, "no name column")

	_, err = (&XLSXSource{Path: path, SheetName: "Other"}).Load(context.Background())
	assert.ErrorContains(t, err, "not found")

	_, err = (&XLSXSource{Path: filepath.Join(t.TempDir(), "missing.xlsx")}).Load(context.Background())
	assert.ErrorContains(t, err, "open file")
}

func TestParseHelpers(t *testing.T) {
	assert.True(t, parseBool("", true))
	assert.True(t, parseBool("X", false))
	assert.False(t, parseBool("inactive", true))
	assert.Equal(t, 5, parseInt("5", 1))
	assert.Equal(t, 1, parseInt("many", 1))
}
