package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-scraper/internal/observability"
	"github.com/jonathan/profile-scraper/internal/pipeline"
	"github.com/jonathan/profile-scraper/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Parse new profile exports as they appear in a folder",
	Long: "Watch a download folder and parse each new profile export once it has finished " +
		"writing. Handled files are remembered in " + watch.ProcessedFileName + " inside the folder.",
	RunE: runWatch,
}

var (
	watchDir    string
	watchSettle string
	watchSinks  sinkFlags
)

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "Folder to watch (overrides WATCH_DIR)")
	watchCmd.Flags().StringVar(&watchSettle, "settle", "", "Quiet period before a file is parsed, e.g. 2s")
	watchCmd.Flags().StringVar(&watchSinks.xlsx, "xlsx", "", "Append rows to this workbook")
	watchCmd.Flags().BoolVar(&watchSinks.upload, "upload", false, "Upload each PDF to Drive and append a row to the sheet")
	watchCmd.Flags().StringVar(&watchSinks.sheetID, "sheet-id", "", "Target spreadsheet (overrides SHEET_ID)")
	watchCmd.Flags().BoolVar(&watchSinks.simple, "simple", false, "Use the simple rule set")

	rootCmd.AddCommand(watchCmd)
}

// fileHandler runs the pipeline on one file. A file is done once it produced a profile;
// unrecognized documents are left for a later change.
func fileHandler(opts pipeline.Options) watch.Handler {
	return func(ctx context.Context, path string) (bool, error) {
		sum, err := pipeline.ProcessFiles(ctx, []string{path}, opts)
		if err != nil {
			return false, err
		}
		if len(sum.Files) == 0 {
			return false, nil
		}
		res := sum.Files[0]
		if res.Err != nil {
			return false, res.Err
		}
		return res.Profile != nil, nil
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	dir := orDefault(watchDir, appConfig.WatchDir)
	if dir == "" {
		return fmt.Errorf("--dir is required (or set WATCH_DIR)")
	}
	settleCfg := appConfig
	settleCfg.WatchSettle = orDefault(watchSettle, appConfig.WatchSettle)
	settle, err := settleCfg.Settle()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSinks(ctx, watchSinks)
	if err != nil {
		return err
	}
	defer s.close()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	s.options.OnProgress = printer.PrintProgress

	w, err := watch.New(watch.Config{
		Dir:     dir,
		Settle:  settle,
		Handler: fileHandler(s.options),
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
