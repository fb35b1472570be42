package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-scraper/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate <profile.json>...",
	Short: "Validate profile JSON files against the profile schema",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		err := schemas.ValidateProfileFile(path)
		if err == nil {
			fmt.Fprintf(out, "✓ %s\n", path)
			continue
		}
		failed++

		var verr *schemas.ValidationError
		if !errors.As(err, &verr) {
			fmt.Fprintf(out, "✗ %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "✗ %s\n", path)
		for _, fe := range verr.Errors {
			fmt.Fprintf(out, "    %s: %s\n", fe.Field, fe.Message)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(args))
	}
	return nil
}
