package commands

import (
	"context"
	"fmt"
	"os"

	scraper "eatap-backend/lib/scrapers/eatap"
	"eatap-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	baseUrl     *string
	cookiesPath *string
)

var rootCmd = &cobra.Command{
	Use:   "eatap-cli",
	Short: "eatap-cli reads profiles and applications straight off the eATAP portal.",
}

func init() {
	baseUrl = rootCmd.PersistentFlags().String("base-url", "https://atap.seda.gov.my", "Base URL of the portal.")
	cookiesPath = rootCmd.PersistentFlags().String("cookies", "cookies.json", "Path to the session cookie file.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient(ctx context.Context) *scraper.Client {
	client, err := scraper.NewClient(ctx, scraper.ClientOptions{
		BaseUrl:     *baseUrl,
		CookiesPath: *cookiesPath,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize portal client", err)
	}
	return client
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
