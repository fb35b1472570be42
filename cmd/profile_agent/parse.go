package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-scraper/internal/ingestion"
	"github.com/jonathan/profile-scraper/internal/observability"
	"github.com/jonathan/profile-scraper/internal/pipeline"
	"github.com/jonathan/profile-scraper/internal/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file|dir>...",
	Short: "Extract profiles from exported profile PDFs",
	Long: "Parse exported profile PDFs one after another and store each recognized profile. " +
		"Directories are expanded to the profile exports they contain. With --dry-run the files " +
		"are only parsed, in parallel, and nothing is stored.",
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

var (
	parseSinks   sinkFlags
	parseJSON    bool
	parseDryRun  bool
	parseWorkers int
)

func init() {
	parseCmd.Flags().StringVar(&parseSinks.xlsx, "xlsx", "", "Append rows to this workbook")
	parseCmd.Flags().BoolVar(&parseSinks.upload, "upload", false, "Upload each PDF to Drive and append a row to the sheet")
	parseCmd.Flags().StringVar(&parseSinks.sheetID, "sheet-id", "", "Target spreadsheet (overrides SHEET_ID)")
	parseCmd.Flags().BoolVar(&parseSinks.noStore, "no-store", false, "Do not write to the profile store")
	parseCmd.Flags().BoolVar(&parseSinks.simple, "simple", false, "Use the simple rule set (headline-only title and company)")
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print results as JSON")
	parseCmd.Flags().BoolVar(&parseDryRun, "dry-run", false, "Parse only; no store, workbook or upload")
	parseCmd.Flags().IntVar(&parseWorkers, "workers", 0, "Parallel parsers for --dry-run (default from config)")

	rootCmd.AddCommand(parseCmd)
}

// collectInputs expands directories to the exports inside them. Named files are kept
// as given.
func collectInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := ingestion.ListPDFs(arg)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no profile exports found")
	}
	return files, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	if parseDryRun && (parseSinks.upload || parseSinks.xlsx != "") {
		return fmt.Errorf("--dry-run cannot be combined with --upload or --xlsx")
	}
	if parseWorkers < 0 {
		return fmt.Errorf("--workers must be non-negative")
	}

	files, err := collectInputs(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if parseDryRun {
		workers := parseWorkers
		if workers == 0 {
			workers = appConfig.Workers
		}
		results, err := ingestion.ParseFiles(ctx, files, workers, parseOptions(parseSinks.simple)...)
		if err != nil {
			return err
		}
		return printParsed(out, results)
	}

	s, err := openSinks(ctx, parseSinks)
	if err != nil {
		return err
	}
	defer s.close()

	printer := observability.NewPrinter(out)
	if !parseJSON {
		s.options.OnProgress = func(e pipeline.ProgressEvent) {
			printer.PrintProgress(e)
			if p, ok := e.Content.(*types.Profile); ok && verbose {
				printer.PrintProfile(p)
			}
		}
	}

	sum, err := pipeline.ProcessFiles(ctx, files, s.options)
	if parseJSON {
		if encErr := writeJSON(out, sum); encErr != nil {
			return encErr
		}
	} else {
		printer.PrintSummary(sum)
	}
	if err != nil {
		return err
	}
	if sum.Succeeded == 0 {
		return fmt.Errorf("no profiles extracted")
	}
	return nil
}

// parsedFile is the JSON shape of one dry-run result.
type parsedFile struct {
	Path    string           `json:"path"`
	Status  types.ItemStatus `json:"status"`
	Profile *types.Profile   `json:"profile,omitempty"`
	Pages   int              `json:"pages,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func printParsed(out io.Writer, results []ingestion.Result) error {
	if parseJSON {
		files := make([]parsedFile, 0, len(results))
		for _, r := range results {
			f := parsedFile{Path: r.Path, Status: r.Status(), Profile: r.Profile}
			if r.Metadata != nil {
				f.Pages = r.Metadata.Pages
			}
			if r.Err != nil {
				f.Error = r.Err.Error()
			}
			files = append(files, f)
		}
		return writeJSON(out, files)
	}

	printer := observability.NewPrinter(out)
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(out, "%s %s: %v\n", r.Status().Icon(), r.Path, r.Err)
		case r.Profile == nil:
			fmt.Fprintf(out, "%s %s: not a recognized profile export\n", r.Status().Icon(), r.Path)
		default:
			fmt.Fprintf(out, "%s %s\n", r.Status().Icon(), r.Path)
			printer.PrintProfile(r.Profile)
		}
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
