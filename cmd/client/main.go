package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "surf-client",
	Short:         "Command line client of the surf contacts service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var uploadCmd = &cobra.Command{
	Use:   "upload FILE...",
	Short: "Import CSV and ZIP files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		response, err := client().upload(args)
		if err != nil {
			return err
		}
		s := response.Summary
		fmt.Fprintf(cmd.OutOrStdout(), "processed %d, new %d, updated %d\n",
			s.TotalProcessed, s.NewContacts, s.UpdatedContacts)
		return nil
	},
}

var listFlags listParams

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show one page of contacts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		response, err := client().list(listFlags)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, c := range response.Contacts {
			status := " "
			if c.Contacted {
				status = "x"
			}
			code := ""
			if c.InviteCode != nil {
				code = *c.InviteCode
			}
			fmt.Fprintf(out, "%6d [%s] %-30s %-18s %s\n", c.Id, status, c.Name, c.Phone, code)
		}
		p := response.Pagination
		fmt.Fprintf(out, "page %d of %d, %d contacts\n", p.Page, p.TotalPages, p.Total)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the contact counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := client().stats()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "total %d, contacted %d, not contacted %d\n",
			stats.Total, stats.Contacted, stats.NotContacted)
		return nil
	},
}

var markUndo bool

var markCmd = &cobra.Command{
	Use:   "mark ID",
	Short: "Mark a contact as contacted, or as not contacted with --undo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		response, err := client().mark(id, !markUndo)
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), response.Contact.Name, response.Contact.Contacted, response.Contact.ContactedAt)
		return nil
	},
}

var welcomeDir string

var welcomeCmd = &cobra.Command{
	Use:   "welcome ID",
	Short: "Download the welcome document of a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		path, err := client().welcome(id, welcomeDir)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the service")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "timeout of a single request")

	listCmd.Flags().IntVar(&listFlags.page, "page", 1, "page number, starting at 1")
	listCmd.Flags().IntVar(&listFlags.limit, "limit", 50, "contacts per page")
	listCmd.Flags().StringVar(&listFlags.contacted, "contacted", "", "only contacts with this status (true or false)")
	listCmd.Flags().StringVar(&listFlags.search, "search", "", "search name, category and phone")

	markCmd.Flags().BoolVar(&markUndo, "undo", false, "mark the contact as not contacted")
	welcomeCmd.Flags().StringVar(&welcomeDir, "dir", ".", "directory the document is saved in")

	rootCmd.AddCommand(uploadCmd, listCmd, statsCmd, markCmd, welcomeCmd)
}

func client() *apiClient {
	return newAPIClient(serverURL, timeout)
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid contact id %q", value)
	}
	return id, nil
}

func printStatus(out io.Writer, name string, contacted bool, at *time.Time) {
	if contacted && at != nil {
		fmt.Fprintf(out, "%s contacted at %s\n", name, at.Local().Format(time.DateTime))
		return
	}
	fmt.Fprintf(out, "%s not contacted\n", name)
}

// Usage example on the command line:
// > go run . upload leads.csv more-leads.zip
// > go run . list --search kite --contacted false
// > go run . mark 56
// > go run . welcome 56 --dir /tmp
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
