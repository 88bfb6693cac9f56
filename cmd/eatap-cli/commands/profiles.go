package commands

import (
	"fmt"
	"strings"

	scraper "eatap-backend/lib/scrapers/eatap"
	"eatap-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesSearchCmd)
	profilesCmd.AddCommand(profilesDetailCmd)
	rootCmd.AddCommand(profilesCmd)
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Read registered profiles off the portal.",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered profiles.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		profiles, err := newClient(ctx).ListProfiles(ctx)
		if err != nil {
			serviceutil.Fatal("failed to list profiles", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Id", "Type", "Name", "Reg. No", "Category"})
		for _, p := range profiles {
			t.AppendRow(table.Row{p.Id, p.Kind, p.Name, p.RegistrationNumber, p.Category})
		}
		t.Render()
	},
}

var profilesSearchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "Rank profiles by name similarity.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		profiles, err := newClient(ctx).ListProfiles(ctx)
		if err != nil {
			serviceutil.Fatal("failed to list profiles", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Similarity", "Id", "Name", "Reg. No"})
		for _, m := range scraper.RankProfilesByName(args[0], profiles) {
			t.AppendRow(table.Row{
				fmt.Sprintf("%.3f", m.Similarity),
				m.Id,
				m.Name,
				m.RegistrationNumber,
			})
		}
		t.Render()
	},
}

var profilesDetailCmd = &cobra.Command{
	Use:   "detail <profile id>",
	Short: "Dump the edit form fields of a profile.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		fields, err := newClient(ctx).ProfileDetail(ctx, args[0])
		if err != nil {
			serviceutil.Fatal("failed to fetch profile detail", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Field", "Value"})
		for _, f := range fields.Entries() {
			t.AppendRow(table.Row{f.Name, strings.TrimSpace(f.Value)})
		}
		t.Render()
	},
}
