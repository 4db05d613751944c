package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsArabic(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"فكرة تطبيق توصيل للمدارس بالرباط", true},
		{"تطبيق delivery للمدارس", true},
		{"a delivery app for schools in Rabat", false},
		{"123 456", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsArabic(tt.text), tt.text)
	}
}

func TestLanguage(t *testing.T) {
	assert.Equal(t, "ar", Language("فكرة لتطبيق زراعي", "en"))
	assert.Equal(t, "fr", Language("une application", "fr"))
	assert.Equal(t, DefaultLanguage, Language("an app", ""))
}
