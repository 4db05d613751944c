package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/ideaflow/internal/config"
	"github.com/sells-group/ideaflow/internal/extract"
	"github.com/sells-group/ideaflow/internal/intake"
	"github.com/sells-group/ideaflow/internal/model"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text...]",
	Short: "Extract a candidate idea from text (stdin when no text is given)",
	Long: "Runs extraction on the text. With --submit the candidate is promoted when extraction is " +
		"confident, otherwise a clarification chain is started.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		text, err := inputText(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		contact, _ := cmd.Flags().GetString("contact")
		submit, _ := cmd.Flags().GetBool("submit")

		env, err := initEnv(ctx, config.ModeExtract)
		if err != nil {
			return err
		}
		defer env.Close()

		raw := model.RawSubmission{Text: text, Contact: contact}
		if !submit {
			cand, err := env.Extractor.Extract(ctx, raw)
			if err != nil {
				return explainExtractError(err)
			}
			return printJSON(os.Stdout, cand)
		}

		out, err := env.Intake.Submit(ctx, raw)
		if err != nil {
			return explainExtractError(err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, out)
		}
		switch out.Kind {
		case intake.KindPromoted:
			fmt.Printf("Promoted candidate %s to idea %s.\n", out.Candidate.ID, out.Idea.ID)
		case intake.KindClarifying:
			fmt.Printf("Candidate %s needs clarification.\nQ%d: %s\n", out.Candidate.ID, out.Question.Ordinal, out.Question.Text)
		}
		return nil
	},
}

func inputText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", eris.Wrap(err, "read stdin")
	}
	return strings.TrimSpace(string(b)), nil
}

// explainExtractError turns extraction failures into actionable messages.
func explainExtractError(err error) error {
	var verr *extract.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Errorf("submission is missing required fields: %s", strings.Join(verr.Missing, ", "))
	case errors.Is(err, extract.ErrCouldNotExtract):
		return fmt.Errorf("could not extract an idea, try again or rephrase: %w", err)
	}
	return err
}

func init() {
	extractCmd.Flags().String("contact", "", "messaging address of the speaker")
	extractCmd.Flags().Bool("submit", false, "promote or start a clarification chain after extraction")
	extractCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	rootCmd.AddCommand(extractCmd)
}
