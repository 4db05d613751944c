// Package matching ranks mentors for an analyzed idea and manages the
// approval of proposed matches.
package matching

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ideaflow/internal/model"
)

// ErrNotAnalyzed is returned when matching an idea that has not been scored.
var ErrNotAnalyzed = eris.New("matching: idea is not analyzed")

// Score weights.
const (
	SemanticWeight  = 0.6
	AttributeWeight = 0.4

	categoryWeight = 0.5
	locationWeight = 0.3
	languageWeight = 0.2
)

// Matchable reports whether an idea in status s can be matched.
func Matchable(s model.IdeaStatus) bool {
	switch s {
	case model.IdeaStatusAnalyzed, model.IdeaStatusMatched, model.IdeaStatusFunded,
		model.IdeaStatusInProgress, model.IdeaStatusCompleted:
		return true
	}
	return false
}

// FindMatches ranks pool against idea and returns at most limit pending
// matches. It does not touch the idea.
func FindMatches(idea *model.Idea, pool []model.Mentor, limit int) ([]model.MentorMatch, error) {
	if !Matchable(idea.Status) {
		return nil, eris.Wrapf(ErrNotAnalyzed, "idea %s is %s", idea.ID, idea.Status)
	}
	if limit <= 0 {
		limit = 5
	}

	ideaText := strings.Join([]string{
		idea.Fields.Title, idea.Fields.ProblemStatement, idea.Fields.ProposedSolution,
		idea.Fields.TargetAudience, idea.Fields.BusinessModel,
	}, " ")
	ideaWords := keywords(ideaText)
	lang := language(idea.Fields.Text())
	now := time.Now().UTC()

	var out []model.MentorMatch
	for _, m := range pool {
		if !m.Active || m.Capacity <= 0 {
			continue
		}
		total, reasons := rank(idea, ideaWords, lang, m)
		if total <= 0 {
			continue
		}
		out = append(out, model.MentorMatch{
			ID:         uuid.NewString(),
			IdeaID:     idea.ID,
			MentorID:   m.ID,
			MentorName: m.Name,
			MatchScore: total,
			Reasons:    reasons,
			Status:     model.MatchStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchScore != out[j].MatchScore {
			return out[i].MatchScore > out[j].MatchScore
		}
		if out[i].MentorName != out[j].MentorName {
			return out[i].MentorName < out[j].MentorName
		}
		return out[i].MentorID < out[j].MentorID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func rank(idea *model.Idea, ideaWords map[string]bool, lang string, m model.Mentor) (float64, []string) {
	var reasons []string

	semantic, shared := jaccard(ideaWords, keywords(strings.Join(m.Expertise, " ")+" "+m.Bio))
	if len(shared) > 0 {
		sort.Strings(shared)
		if len(shared) > 5 {
			shared = shared[:5]
		}
		reasons = append(reasons, "shared keywords: "+strings.Join(shared, ", "))
	}

	attr := 0.0
	if cat := normalize(idea.Fields.Category); cat != "" && cat != "other" {
		for _, c := range m.Categories {
			if normalize(c) == cat {
				attr += categoryWeight
				reasons = append(reasons, "category: "+cat)
				break
			}
		}
	}
	if sameLocation(idea.Fields.Location, m.Location) {
		attr += locationWeight
		reasons = append(reasons, "location: "+strings.TrimSpace(m.Location))
	}
	for _, l := range m.Languages {
		if normalize(l) == lang {
			attr += languageWeight
			reasons = append(reasons, "language: "+lang)
			break
		}
	}

	return SemanticWeight*semantic + AttributeWeight*attr, reasons
}

func sameLocation(a, b string) bool {
	a, b = normalize(a), normalize(b)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
