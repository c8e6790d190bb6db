package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"envdoctor/internal/doctor"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   CmdList,
	Short: "List the checkups a manifest produces",
	Long: `List the checkup ids, titles and dependencies derived from the manifest,
without examining anything. The ids are what --skip accepts.`,
	Args: cobra.NoArgs,
	RunE: runListCmd,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(listCmd)
}

type checkupJSON struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Dependencies []string `json:"dependencies,omitempty"`
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	list, err := buildCheckups(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return writeCheckupList(cmd.OutOrStdout(), list, listJSON)
}

func writeCheckupList(w io.Writer, list []doctor.Checkup, asJSON bool) error {
	rows := make([]checkupJSON, 0, len(list))
	for _, c := range list {
		row := checkupJSON{ID: c.ID(), Title: c.Title()}
		if dep, ok := c.(doctor.DependentCheckup); ok {
			row.Dependencies = dep.Dependencies()
		}
		rows = append(rows, row)
	}

	if asJSON {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal checkups: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDEPENDS ON")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.ID, row.Title, strings.Join(row.Dependencies, ","))
	}
	return tw.Flush()
}
