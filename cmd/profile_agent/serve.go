package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonathan/profile-scraper/internal/bulk"
	"github.com/jonathan/profile-scraper/internal/db"
	"github.com/jonathan/profile-scraper/internal/server"
)

var (
	servePort        int
	serveRemote      string
	serveURL         string
	serveShowBrowser bool
	serveSimple      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: "Start an HTTP server for parsing uploaded exports, managing stored profiles and, " +
		"when a browser is configured, controlling bulk runs with a live event stream.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().StringVar(&serveRemote, "remote", "", "DevTools websocket URL of a running browser to open --url in")
	serveCmd.Flags().StringVar(&serveURL, "url", "", "Open this listing page for bulk runs (enables the /bulk routes)")
	serveCmd.Flags().BoolVar(&serveShowBrowser, "show-browser", false, "Launch a visible browser")
	serveCmd.Flags().BoolVar(&serveSimple, "simple", false, "Use the simple rule set for uploaded exports")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	port := servePort
	if port == 0 {
		port = appConfig.Port
	}

	// The server owns the store from here and closes it on shutdown.
	store, err := openStore(ctx)
	if err != nil {
		return err
	}

	cfg := server.Config{
		Port:         port,
		Store:        store,
		ParseOptions: parseOptions(serveSimple),
	}

	// Bulk routes need a browser on a listing page; without one they answer 503.
	remote := orDefault(serveRemote, appConfig.RemoteBrowser)
	if serveURL != "" {
		session, err := openBrowser(ctx, remote, serveShowBrowser || appConfig.ShowBrowser, serveURL)
		if err != nil {
			store.Close()
			return err
		}
		defer session.Close()

		events := bulk.NewBroadcaster()
		cfg.Events = events
		cfg.Bulk = bulk.NewController(session, events.Emitter(),
			bulk.WithOpener(bulk.ExtractingOpener(session)),
			bulk.WithPersister(db.Persister{Store: store}),
		)
	} else {
		log.Info().Msg("no --url given; bulk routes disabled")
	}

	srv, err := server.New(cfg)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}
