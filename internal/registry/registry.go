// Package registry holds the clarification prompts asked for each idea field.
// A built-in catalogue covers English, Arabic and French; a YAML file can
// override or extend it.
package registry

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/ideaflow/internal/model"
)

// DefaultLanguage is used when a prompt is missing for the requested language.
const DefaultLanguage = "en"

// Prompt is the clarification question for one field.
type Prompt struct {
	FieldKey string            `yaml:"field_key"`
	Priority int               `yaml:"priority"`
	Text     map[string]string `yaml:"text"`
}

// Registry indexes prompts by field key.
type Registry struct {
	prompts map[string]Prompt
}

var builtin = []Prompt{
	{FieldKey: model.FieldTitle, Priority: 1, Text: map[string]string{
		"en": "What would you call your idea in a few words?",
		"ar": "ما هو الاسم المختصر لفكرتك؟",
		"fr": "Comment appelleriez-vous votre idée en quelques mots ?",
	}},
	{FieldKey: model.FieldProblemStatement, Priority: 2, Text: map[string]string{
		"en": "What problem does your idea solve, and who has this problem today?",
		"ar": "ما المشكلة التي تحلها فكرتك، ومن يعاني منها اليوم؟",
		"fr": "Quel problème votre idée résout-elle, et qui le rencontre aujourd'hui ?",
	}},
	{FieldKey: model.FieldCategory, Priority: 3, Text: map[string]string{
		"en": "Which sector fits your idea best (for example education, health, agriculture, fintech)?",
		"ar": "ما القطاع الأنسب لفكرتك (مثل التعليم، الصحة، الزراعة، التقنية المالية)؟",
		"fr": "Quel secteur correspond le mieux à votre idée (par exemple éducation, santé, agriculture, fintech) ?",
	}},
	{FieldKey: model.FieldProposedSolution, Priority: 4, Text: map[string]string{
		"en": "How does your solution work in practice?",
		"ar": "كيف يعمل الحل الذي تقترحه على أرض الواقع؟",
		"fr": "Comment votre solution fonctionne-t-elle concrètement ?",
	}},
	{FieldKey: model.FieldTargetAudience, Priority: 5, Text: map[string]string{
		"en": "Who are your first customers or beneficiaries?",
		"ar": "من هم أول عملائك أو المستفيدين من فكرتك؟",
		"fr": "Qui sont vos premiers clients ou bénéficiaires ?",
	}},
	{FieldKey: model.FieldBusinessModel, Priority: 6, Text: map[string]string{
		"en": "How will the idea earn money or sustain itself?",
		"ar": "كيف ستحقق الفكرة دخلاً أو تستمر مالياً؟",
		"fr": "Comment l'idée va-t-elle générer des revenus ou se financer ?",
	}},
	{FieldKey: model.FieldLocation, Priority: 7, Text: map[string]string{
		"en": "Where will the idea be launched first (city or region)?",
		"ar": "أين سيتم إطلاق الفكرة أولاً (المدينة أو المنطقة)؟",
		"fr": "Où l'idée sera-t-elle lancée en premier (ville ou région) ?",
	}},
}

// Default returns the built-in catalogue.
func Default() *Registry {
	return New(builtin)
}

// New builds a registry from prompts. Later entries for the same field
// replace earlier ones.
func New(prompts []Prompt) *Registry {
	r := &Registry{prompts: make(map[string]Prompt, len(prompts))}
	for _, p := range prompts {
		r.prompts[p.FieldKey] = p
	}
	return r
}

type fileFormat struct {
	Prompts []Prompt `yaml:"prompts"`
}

// LoadFile returns the built-in catalogue merged with the prompts in a YAML
// file. An empty path returns the built-in catalogue.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read questions file")
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "registry: parse questions file")
	}

	r := Default()
	for _, p := range f.Prompts {
		if !isField(p.FieldKey) {
			return nil, eris.Errorf("registry: unknown field %q", p.FieldKey)
		}
		base, ok := r.prompts[p.FieldKey]
		if !ok {
			base = Prompt{FieldKey: p.FieldKey, Text: map[string]string{}}
		}
		merged := Prompt{FieldKey: p.FieldKey, Priority: base.Priority, Text: map[string]string{}}
		for lang, txt := range base.Text {
			merged.Text[lang] = txt
		}
		for lang, txt := range p.Text {
			merged.Text[strings.ToLower(lang)] = txt
		}
		if p.Priority > 0 {
			merged.Priority = p.Priority
		}
		r.prompts[p.FieldKey] = merged
	}
	return r, nil
}

// Question returns the prompt for field in lang, falling back to English.
func (r *Registry) Question(field, lang string) string {
	p, ok := r.prompts[field]
	if !ok {
		return ""
	}
	if txt, ok := p.Text[strings.ToLower(lang)]; ok && txt != "" {
		return txt
	}
	return p.Text[DefaultLanguage]
}

// Ordered sorts keys by prompt priority. Keys without a prompt go last, in
// their original order.
func (r *Registry) Ordered(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.SliceStable(out, func(i, j int) bool {
		return r.priority(out[i]) < r.priority(out[j])
	})
	return out
}

func (r *Registry) priority(key string) int {
	if p, ok := r.prompts[key]; ok && p.Priority > 0 {
		return p.Priority
	}
	return 1 << 30
}

func isField(key string) bool {
	for _, k := range model.FieldKeys {
		if k == key {
			return true
		}
	}
	return false
}
