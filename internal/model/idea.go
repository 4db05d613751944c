package model

import (
	"strings"
	"time"
)

// IdeaStatus is the lifecycle state of a canonical idea.
type IdeaStatus string

const (
	IdeaStatusSubmitted  IdeaStatus = "submitted"
	IdeaStatusAnalyzing  IdeaStatus = "analyzing"
	IdeaStatusAnalyzed   IdeaStatus = "analyzed"
	IdeaStatusMatched    IdeaStatus = "matched"
	IdeaStatusFunded     IdeaStatus = "funded"
	IdeaStatusInProgress IdeaStatus = "in_progress"
	IdeaStatusCompleted  IdeaStatus = "completed"
	IdeaStatusRejected   IdeaStatus = "rejected"
)

// ParseIdeaStatus converts a label into an IdeaStatus. Unknown labels return false.
func ParseIdeaStatus(s string) (IdeaStatus, bool) {
	switch st := IdeaStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case IdeaStatusSubmitted, IdeaStatusAnalyzing, IdeaStatusAnalyzed, IdeaStatusMatched,
		IdeaStatusFunded, IdeaStatusInProgress, IdeaStatusCompleted, IdeaStatusRejected:
		return st, true
	default:
		return "", false
	}
}

// Terminal reports whether no further transition can leave this status.
func (s IdeaStatus) Terminal() bool {
	return s == IdeaStatusCompleted || s == IdeaStatusRejected
}

// Field keys for IdeaFields. They double as the clarification question keys.
const (
	FieldTitle            = "title"
	FieldProblemStatement = "problem_statement"
	FieldProposedSolution = "proposed_solution"
	FieldCategory         = "category"
	FieldLocation         = "location"
	FieldTargetAudience   = "target_audience"
	FieldBusinessModel    = "business_model"
)

// RequiredFields must be present before a candidate can exist.
var RequiredFields = []string{FieldTitle, FieldProblemStatement, FieldCategory}

// FieldKeys lists every structured field in canonical order.
var FieldKeys = []string{
	FieldTitle,
	FieldProblemStatement,
	FieldProposedSolution,
	FieldCategory,
	FieldLocation,
	FieldTargetAudience,
	FieldBusinessModel,
}

// Categories is the fixed category vocabulary the extractor maps into.
var Categories = []string{
	"education",
	"health",
	"agriculture",
	"fintech",
	"logistics",
	"ecommerce",
	"tourism",
	"energy",
	"environment",
	"social",
	"culture",
	"technology",
	"other",
}

// IsKnownCategory reports whether c is part of the fixed vocabulary.
func IsKnownCategory(c string) bool {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// IdeaFields is the structured content of an idea.
type IdeaFields struct {
	Title            string `json:"title"`
	ProblemStatement string `json:"problem_statement"`
	ProposedSolution string `json:"proposed_solution,omitempty"`
	Category         string `json:"category,omitempty"`
	Location         string `json:"location,omitempty"`
	TargetAudience   string `json:"target_audience,omitempty"`
	BusinessModel    string `json:"business_model,omitempty"`
}

// Get returns the value of a field by key.
func (f IdeaFields) Get(key string) string {
	switch key {
	case FieldTitle:
		return f.Title
	case FieldProblemStatement:
		return f.ProblemStatement
	case FieldProposedSolution:
		return f.ProposedSolution
	case FieldCategory:
		return f.Category
	case FieldLocation:
		return f.Location
	case FieldTargetAudience:
		return f.TargetAudience
	case FieldBusinessModel:
		return f.BusinessModel
	default:
		return ""
	}
}

// Set assigns a field by key. Unknown keys are ignored and return false.
func (f *IdeaFields) Set(key, value string) bool {
	switch key {
	case FieldTitle:
		f.Title = value
	case FieldProblemStatement:
		f.ProblemStatement = value
	case FieldProposedSolution:
		f.ProposedSolution = value
	case FieldCategory:
		f.Category = value
	case FieldLocation:
		f.Location = value
	case FieldTargetAudience:
		f.TargetAudience = value
	case FieldBusinessModel:
		f.BusinessModel = value
	default:
		return false
	}
	return true
}

// Missing returns the keys from keys whose value is blank.
func (f IdeaFields) Missing(keys []string) []string {
	var out []string
	for _, k := range keys {
		if strings.TrimSpace(f.Get(k)) == "" {
			out = append(out, k)
		}
	}
	return out
}

// Text concatenates the descriptive fields, used for similarity matching.
func (f IdeaFields) Text() string {
	parts := make([]string, 0, len(FieldKeys))
	for _, k := range FieldKeys {
		if v := strings.TrimSpace(f.Get(k)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Scores holds the rubric outcome. Stage totals are nil when the stage has
// not been scored. The qualification tier is derived from TotalScore on read
// and is intentionally absent here.
type Scores struct {
	Stage1Total *int `json:"stage1_total,omitempty"`
	Stage2Total *int `json:"stage2_total,omitempty"`
	TotalScore  int  `json:"total_score"`
}

// Idea is the canonical idea record.
type Idea struct {
	ID          string         `json:"id"`
	CandidateID string         `json:"candidate_id,omitempty"`
	Contact     string         `json:"contact,omitempty"`
	Fields      IdeaFields     `json:"fields"`
	Status      IdeaStatus     `json:"status"`
	Scores      Scores         `json:"scores"`
	Assessment  map[string]int `json:"assessment,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Transition is one audited status change of an idea.
type Transition struct {
	ID     string     `json:"id"`
	IdeaID string     `json:"idea_id"`
	From   IdeaStatus `json:"from"`
	To     IdeaStatus `json:"to"`
	Reason string     `json:"reason,omitempty"`
	At     time.Time  `json:"at"`
}
