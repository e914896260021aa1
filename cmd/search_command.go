package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search the catalog for titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.newClient()
			records, err := client.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, records)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No titles found")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for i, r := range records {
				rows = append(rows, []string{fmt.Sprint(i + 1), r.Name, r.ID, string(r.Kind)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Name", "ID", "Kind"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
