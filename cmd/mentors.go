package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/ideaflow/internal/config"
	"github.com/sells-group/ideaflow/internal/mentors"
	"github.com/sells-group/ideaflow/pkg/notion"
)

var mentorsCmd = &cobra.Command{
	Use:   "mentors",
	Short: "Manage the mentor pool and mentor matches",
}

func notionSource() mentors.Source {
	return mentors.NewNotionSource(notion.NewClient(cfg.Notion.Token), cfg.Notion.MentorDB)
}

// -- mentors import --

var mentorsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load mentors from a Notion database and/or XLSX sheets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		fromNotion, _ := cmd.Flags().GetBool("notion")
		files, _ := cmd.Flags().GetStringSlice("xlsx")
		sheet, _ := cmd.Flags().GetString("sheet")

		var sources []mentors.Source
		if fromNotion {
			if err := cfg.Validate(config.ModeNotion); err != nil {
				return err
			}
			sources = append(sources, notionSource())
		}
		for _, f := range files {
			sources = append(sources, &mentors.XLSXSource{Path: f, SheetName: sheet})
		}
		if len(sources) == 0 {
			return eris.New("nothing to import: pass --notion and/or --xlsx")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := mentors.Import(ctx, st, sources...)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d mentors, skipped %d, wrote %d.\n", res.Loaded, res.Skipped, res.Written)
		return nil
	},
}

// -- mentors match --

var mentorsMatchCmd = &cobra.Command{
	Use:   "match <idea-id>",
	Short: "Propose ranked mentor matches for an analyzed idea",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")
		list, _ := cmd.Flags().GetBool("list")

		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		if list {
			ms, err := env.Matcher.List(ctx, args[0])
			if err != nil {
				return err
			}
			formatMatches(os.Stdout, ms)
			return nil
		}
		ms, err := env.Matcher.Propose(ctx, args[0], limit)
		if err != nil {
			return err
		}
		if len(ms) == 0 {
			fmt.Fprintln(os.Stderr, "No suitable mentors.")
			return nil
		}
		formatMatches(os.Stdout, ms)
		return nil
	},
}

// -- mentors approve / reject --

var mentorsApproveCmd = &cobra.Command{
	Use:   "approve <match-id>",
	Short: "Approve a pending match; the idea moves to matched",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		m, err := env.Matcher.Approve(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Match %s is %s.\n", m.ID, m.Status)
		return nil
	},
}

var mentorsRejectCmd = &cobra.Command{
	Use:   "reject <match-id>",
	Short: "Reject a pending match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer env.Close()

		m, err := env.Matcher.Reject(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Match %s is %s.\n", m.ID, m.Status)
		return nil
	},
}

func init() {
	mentorsImportCmd.Flags().Bool("notion", false, "import from the configured Notion mentor database")
	mentorsImportCmd.Flags().StringSlice("xlsx", nil, "XLSX files to import (repeatable)")
	mentorsImportCmd.Flags().String("sheet", "", "sheet name in the XLSX files (default first sheet)")

	mentorsMatchCmd.Flags().Int("limit", 0, "maximum proposals (default from config)")
	mentorsMatchCmd.Flags().Bool("list", false, "list stored matches instead of proposing")

	mentorsCmd.AddCommand(mentorsImportCmd, mentorsMatchCmd, mentorsApproveCmd, mentorsRejectCmd)
	rootCmd.AddCommand(mentorsCmd)
}
