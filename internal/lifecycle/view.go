package lifecycle

import (
	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/score"
)

// View is an idea with its qualification tier. The tier is recomputed from
// the stored total on every read.
type View struct {
	*model.Idea
	Tier score.Tier `json:"tier"`
}

// NewView wraps idea with its current tier.
func NewView(idea *model.Idea) View {
	return View{Idea: idea, Tier: score.Qualify(idea.Scores.TotalScore)}
}
