package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"imecompose/internal/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "read the commit journal",
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "list recent commits, newest first, or one session in order",
	Args:  cobra.NoArgs,
	RunE:  runJournalListCmd,
}

var journalCountCmd = &cobra.Command{
	Use:   "count",
	Short: "print the number of journaled commits",
	Args:  cobra.NoArgs,
	RunE:  runJournalCountCmd,
}

var (
	journalPathArg string
	journalLimit   int
	journalSession string
)

func init() {
	journalCmd.PersistentFlags().StringVar(&journalPathArg, "path", "", "journal database (default: from config)")
	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of commits to show (0 for all)")
	journalListCmd.Flags().StringVar(&journalSession, "session", "", "only list commits of this session")

	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalCountCmd)
	rootCmd.AddCommand(journalCmd)
}

// openJournal opens an existing journal for reading.
func openJournal() (*journal.Journal, error) {
	path := journalPathArg
	if path == "" {
		cfg, _, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Journal.Path
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no journal at %s", path)
	}
	return journal.OpenReadOnly(path)
}

func runJournalListCmd(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	var entries []journal.Entry
	if journalSession != "" {
		entries, err = j.SessionEntries(journalSession)
		if n := len(entries); journalLimit > 0 && n > journalLimit {
			entries = entries[n-journalLimit:]
		}
	} else {
		entries, err = j.Recent(journalLimit)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tFIELD\tVALUE\tCURSOR\tSESSION")
	for _, e := range entries {
		session := e.SessionID
		if len(session) > 8 {
			session = session[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			e.Time.Format(time.DateTime), e.Identity, e.Value, e.Cursor, session)
	}
	return tw.Flush()
}

func runJournalCountCmd(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	n, err := j.Count()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}
