package commands

import (
	"fmt"
	"strings"

	scraper "eatap-backend/lib/scrapers/eatap"
	"eatap-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	applicationsKeyword *string
	applicationsCA      *string
	applicationsStatus  *string
)

func init() {
	applicationsKeyword = applicationsListCmd.Flags().String("keyword", "", "Filter by applicant keyword.")
	applicationsCA = applicationsListCmd.Flags().String("ca", "", "Filter by certifying agency.")
	applicationsStatus = applicationsListCmd.Flags().String("status", "", "Filter by application status.")

	applicationsCmd.AddCommand(applicationsListCmd)
	applicationsCmd.AddCommand(applicationsDetailCmd)
	rootCmd.AddCommand(applicationsCmd)
}

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "Read ATAP applications off the portal.",
}

var applicationsListCmd = &cobra.Command{
	Use:   "list [--keyword <text>] [--ca <agency>] [--status <status>]",
	Short: "List applications, optionally filtered.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		applications, err := newClient(ctx).ListApplications(ctx, scraper.ApplicationQuery{
			Keyword: *applicationsKeyword,
			CA:      *applicationsCA,
			Status:  *applicationsStatus,
		})
		if err != nil {
			serviceutil.Fatal("failed to list applications", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Id", "Applicant", "ATP No", "Reg. No", "Status"})
		for _, a := range applications {
			t.AppendRow(table.Row{a.Id, a.Applicant, a.ApplicationNumber, a.RegistrationNumber, a.Status})
		}
		t.Render()
	},
}

var applicationsDetailCmd = &cobra.Command{
	Use:   "detail <application id>",
	Short: "Dump the applicant page of an application.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		detail, err := newClient(ctx).GetApplicationDetail(ctx, args[0])
		if err != nil {
			serviceutil.Fatal("failed to fetch application detail", err)
		}

		fmt.Println("ATP No:", detail.ApplicationNumber)
		if len(detail.StatusBadges) > 0 {
			fmt.Println("Status:", strings.Join(detail.StatusBadges, ", "))
		}

		if len(detail.Consumer) > 0 {
			t := newTable()
			t.SetTitle("Consumer")
			t.AppendHeader(table.Row{"Field", "Value"})
			for key, value := range detail.Consumer {
				t.AppendRow(table.Row{key, value})
			}
			t.Render()
		}

		if fields := detail.FormData.Entries(); len(fields) > 0 {
			t := newTable()
			t.SetTitle("Form Data")
			t.AppendHeader(table.Row{"Field", "Value"})
			for _, f := range fields {
				t.AppendRow(table.Row{f.Name, strings.TrimSpace(f.Value)})
			}
			t.Render()
		}

		if len(detail.Equipment) > 0 {
			t := newTable()
			t.SetTitle("Equipment")
			t.AppendHeader(table.Row{"Type", "Technology", "Model", "Capacity", "Quantity"})
			for _, e := range detail.Equipment {
				t.AppendRow(table.Row{e.Type, e.Technology, e.Model, e.Capacity, e.Quantity})
			}
			t.Render()
		}
	},
}
