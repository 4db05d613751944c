package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/ideaflow/internal/lifecycle"
	"github.com/sells-group/ideaflow/internal/model"
)

var jsonOutput bool

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printIdea writes an idea as JSON or as a short summary.
func printIdea(w io.Writer, idea *model.Idea) error {
	v := lifecycle.NewView(idea)
	if jsonOutput {
		return printJSON(w, v)
	}
	fmt.Fprintf(w, "ID:       %s\n", idea.ID)
	fmt.Fprintf(w, "Title:    %s\n", idea.Fields.Title)
	fmt.Fprintf(w, "Category: %s\n", idea.Fields.Category)
	fmt.Fprintf(w, "Status:   %s\n", idea.Status)
	fmt.Fprintf(w, "Score:    %d (%s)\n", idea.Scores.TotalScore, v.Tier)
	if idea.Scores.Stage1Total != nil {
		fmt.Fprintf(w, "Stage 1:  %d\n", *idea.Scores.Stage1Total)
	}
	if idea.Scores.Stage2Total != nil {
		fmt.Fprintf(w, "Stage 2:  %d\n", *idea.Scores.Stage2Total)
	}
	return nil
}

func formatIdeaList(w io.Writer, ideas []model.Idea) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSCORE\tTIER\tTITLE")
	for i := range ideas {
		v := lifecycle.NewView(&ideas[i])
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", v.ID, v.Status, v.Scores.TotalScore, v.Tier, truncate(v.Fields.Title, 48))
	}
	_ = tw.Flush()
}

func formatTransitions(w io.Writer, ts []model.Transition) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AT\tFROM\tTO\tREASON")
	for _, t := range ts {
		from := string(t.From)
		if from == "" {
			from = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.At.Format("2006-01-02 15:04:05"), from, t.To, t.Reason)
	}
	_ = tw.Flush()
}

func formatMatches(w io.Writer, ms []model.MentorMatch) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMENTOR\tSCORE\tSTATUS\tREASONS")
	for _, m := range ms {
		name := m.MentorName
		if name == "" {
			name = m.MentorID
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\n", m.ID, name, m.MatchScore, m.Status, strings.Join(m.Reasons, "; "))
	}
	_ = tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
