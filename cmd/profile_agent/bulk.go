package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonathan/profile-scraper/internal/browser"
	"github.com/jonathan/profile-scraper/internal/bulk"
	"github.com/jonathan/profile-scraper/internal/db"
	"github.com/jonathan/profile-scraper/internal/observability"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Collect every profile listed on a search or connections page",
	Long: "Drive a browser tab through a profile listing: discover the profile cards, optionally " +
		"auto-scroll to load more, and save each profile from its card or by opening it. " +
		"Press Ctrl-C once to stop after the current profile.",
	RunE: runBulk,
}

var (
	bulkURL         string
	bulkRemote      string
	bulkShowBrowser bool
	bulkAutoScroll  bool
	bulkMax         int
	bulkOpen        bool
)

func init() {
	bulkCmd.Flags().StringVar(&bulkURL, "url", "", "Listing or profile page to start from (required)")
	bulkCmd.Flags().StringVar(&bulkRemote, "remote", "", "DevTools websocket URL of a running, logged-in browser")
	bulkCmd.Flags().BoolVar(&bulkShowBrowser, "show-browser", false, "Launch a visible browser")
	bulkCmd.Flags().BoolVar(&bulkAutoScroll, "auto-scroll", false, "Scroll the listing to load more cards first")
	bulkCmd.Flags().IntVar(&bulkMax, "max", 0, "Stop after this many profiles (0 means all)")
	bulkCmd.Flags().BoolVar(&bulkOpen, "open-profiles", false, "Open each profile for full details instead of reading its card")

	rootCmd.AddCommand(bulkCmd)
}

// bulkConfig merges the traversal flags over the configuration file.
func bulkConfig(cmd *cobra.Command) bulk.Config {
	cfg := bulk.Config{
		AutoScroll:   appConfig.AutoScroll,
		MaxProfiles:  appConfig.MaxProfiles,
		OpenProfiles: appConfig.OpenProfiles,
	}
	if cmd.Flags().Changed("auto-scroll") {
		cfg.AutoScroll = bulkAutoScroll
	}
	if cmd.Flags().Changed("max") {
		cfg.MaxProfiles = bulkMax
	}
	if cmd.Flags().Changed("open-profiles") {
		cfg.OpenProfiles = bulkOpen
	}
	return cfg
}

// openBrowser starts or attaches to the browser and loads startURL when given.
func openBrowser(ctx context.Context, remote string, show bool, startURL string) (*browser.Session, error) {
	opts := browser.DefaultSessionOptions()
	opts.RemoteURL = remote
	opts.Headless = !show

	session, err := browser.NewSession(ctx, opts)
	if err != nil {
		return nil, err
	}
	if startURL != "" {
		if err := session.Navigate(ctx, startURL); err != nil {
			session.Close()
			return nil, err
		}
	}
	return session, nil
}

func runBulk(cmd *cobra.Command, _ []string) error {
	cfg := bulkConfig(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}
	remote := orDefault(bulkRemote, appConfig.RemoteBrowser)
	if bulkURL == "" {
		return fmt.Errorf("--url is required")
	}

	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	session, err := openBrowser(ctx, remote, bulkShowBrowser || appConfig.ShowBrowser, bulkURL)
	if err != nil {
		return err
	}
	defer session.Close()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	ctrl := bulk.NewController(session, bulk.EmitFunc(printer.PrintEvent),
		bulk.WithOpener(bulk.ExtractingOpener(session)),
		bulk.WithPersister(db.Persister{Store: store}),
	)

	// The first interrupt asks the run to stop at the next check point; the run still
	// reports its counters. The signal context is released once the run returns.
	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	go func() {
		<-sigCtx.Done()
		if ctx.Err() == nil && ctrl.Stop() {
			log.Info().Msg("stop requested")
		}
	}()

	res, err := ctrl.Start(ctx, cfg)
	printer.PrintBulkResult(res)
	return err
}
