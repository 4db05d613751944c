package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/ideaflow/internal/config"
	"github.com/sells-group/ideaflow/internal/model"
	"github.com/sells-group/ideaflow/internal/score"
	"github.com/sells-group/ideaflow/internal/store"
)

var ideaCmd = &cobra.Command{
	Use:   "idea",
	Short: "Inspect and drive canonical ideas",
}

// -- idea show --

var ideaShowCmd = &cobra.Command{
	Use:   "show <idea-id>",
	Short: "Show an idea with its scores and tier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		idea, err := env.Lifecycle.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printIdea(os.Stdout, idea)
	},
}

// -- idea list --

var ideaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ideas",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		statuses, _ := cmd.Flags().GetStringSlice("status")
		contact, _ := cmd.Flags().GetString("contact")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.IdeaFilter{Contact: contact, Limit: limit}
		for _, s := range statuses {
			st, ok := model.ParseIdeaStatus(s)
			if !ok {
				return eris.Errorf("unknown status %q", s)
			}
			filter.Statuses = append(filter.Statuses, st)
		}

		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		ideas, err := env.Store.ListIdeas(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "idea list")
		}
		if len(ideas) == 0 {
			fmt.Fprintln(os.Stderr, "No ideas found.")
			return nil
		}
		if jsonOutput {
			return printJSON(os.Stdout, ideas)
		}
		formatIdeaList(os.Stdout, ideas)
		return nil
	},
}

// -- idea submit --

var ideaSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Create an idea directly from structured fields",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		var fields model.IdeaFields
		for _, key := range model.FieldKeys {
			v, _ := cmd.Flags().GetString(strings.ReplaceAll(key, "_", "-"))
			fields.Set(key, v)
		}
		contact, _ := cmd.Flags().GetString("contact")

		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		idea, err := env.Lifecycle.Submit(ctx, fields, contact)
		if err != nil {
			return explainExtractError(err)
		}
		return printIdea(os.Stdout, idea)
	},
}

// -- idea promote --

var ideaPromoteCmd = &cobra.Command{
	Use:   "promote <candidate-id>",
	Short: "Promote a candidate to an idea (idempotent)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		idea, err := env.Intake.Promote(ctx, args[0])
		if err != nil {
			return err
		}
		return printIdea(os.Stdout, idea)
	},
}

// -- idea analyze --

var ideaAnalyzeCmd = &cobra.Command{
	Use:   "analyze <idea-id>",
	Short: "Score an idea and move it to analyzed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		idea, err := env.Lifecycle.Analyze(ctx, args[0])
		if err != nil {
			return err
		}
		return printIdea(os.Stdout, idea)
	},
}

// -- idea advance --

var ideaAdvanceCmd = &cobra.Command{
	Use:   "advance <idea-id> <status>",
	Short: "Move an idea to its next status or to rejected",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		target, ok := model.ParseIdeaStatus(args[1])
		if !ok {
			return eris.Errorf("unknown status %q", args[1])
		}
		reason, _ := cmd.Flags().GetString("reason")

		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		idea, err := env.Lifecycle.Advance(ctx, args[0], target, reason)
		if err != nil {
			return err
		}
		return printIdea(os.Stdout, idea)
	},
}

// -- idea assess --

var ideaAssessCmd = &cobra.Command{
	Use:   "assess <idea-id> <criterion=score>...",
	Short: "Record stage-2 sub-scores, e.g. innovation=4 impact=5",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sub, err := parseAssessment(args[1:])
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		idea, err := env.Lifecycle.RecordAssessment(ctx, args[0], sub)
		if err != nil {
			return err
		}
		return printIdea(os.Stdout, idea)
	},
}

func parseAssessment(pairs []string) (map[string]int, error) {
	sub := make(map[string]int, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, eris.Errorf("expected criterion=score, got %q", p)
		}
		k = strings.TrimSpace(k)
		if !score.IsAssessmentKey(k) {
			return nil, eris.Errorf("unknown criterion %q (known: %s)", k, strings.Join(score.AssessmentKeys(), ", "))
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, eris.Errorf("score for %s must be an integer", k)
		}
		sub[k] = n
	}
	return sub, nil
}

// -- idea history --

var ideaHistoryCmd = &cobra.Command{
	Use:   "history <idea-id>",
	Short: "Show the audited status transitions of an idea",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		ts, err := env.Lifecycle.History(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(os.Stdout, ts)
		}
		formatTransitions(os.Stdout, ts)
		return nil
	},
}

func init() {
	ideaCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON")

	ideaListCmd.Flags().StringSlice("status", nil, "filter by status (repeatable)")
	ideaListCmd.Flags().String("contact", "", "filter by contact")
	ideaListCmd.Flags().Int("limit", 50, "maximum ideas to list")

	for _, key := range model.FieldKeys {
		ideaSubmitCmd.Flags().String(strings.ReplaceAll(key, "_", "-"), "", strings.ReplaceAll(key, "_", " "))
	}
	ideaSubmitCmd.Flags().String("contact", "", "messaging address of the proposer")

	ideaAdvanceCmd.Flags().String("reason", "", "reason recorded in the audit trail")

	ideaCmd.AddCommand(ideaShowCmd, ideaListCmd, ideaSubmitCmd, ideaPromoteCmd,
		ideaAnalyzeCmd, ideaAdvanceCmd, ideaAssessCmd, ideaHistoryCmd)
	rootCmd.AddCommand(ideaCmd)
}
