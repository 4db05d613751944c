package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/ideaflow/internal/clarify"
	"github.com/sells-group/ideaflow/internal/config"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Drive clarification chains",
}

var chainStartCmd = &cobra.Command{
	Use:   "start <candidate-id>",
	Short: "Start a candidate's chain and print the active question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		cand, err := env.Store.GetCandidate(ctx, args[0])
		if err != nil {
			return err
		}
		q, err := env.Chain.StartChain(ctx, cand.ID, cand.Raw.Contact)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(os.Stdout, q)
		}
		fmt.Printf("Q%d [%s]: %s\n", q.Ordinal, q.FieldKey, q.Text)
		return nil
	},
}

var chainAnswerCmd = &cobra.Command{
	Use:   "answer <candidate-id> <text...>",
	Short: "Answer the active question (\"skip\" skips it)",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.Chain.ProcessResponse(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		return printProgress(p)
	},
}

var chainProgressCmd = &cobra.Command{
	Use:   "progress <candidate-id>",
	Short: "Show chain progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.Chain.Progress(ctx, args[0])
		if err != nil {
			return err
		}
		return printProgress(p)
	},
}

func printProgress(p *clarify.Progress) error {
	if jsonOutput {
		return printJSON(os.Stdout, p)
	}
	fmt.Printf("Answered %d of %d (%.0f%%)\n", p.Answered, p.Total, p.Ratio*100)
	switch {
	case p.Next != nil:
		fmt.Printf("Next Q%d [%s]: %s\n", p.Next.Ordinal, p.Next.FieldKey, p.Next.Text)
	case p.IdeaID != "":
		fmt.Printf("Chain complete; idea %s\n", p.IdeaID)
	case p.Complete:
		fmt.Println("Chain complete")
	}
	return nil
}

func init() {
	chainCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON")
	chainCmd.AddCommand(chainStartCmd, chainAnswerCmd, chainProgressCmd)
	rootCmd.AddCommand(chainCmd)
}
