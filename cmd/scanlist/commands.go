package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ScanList/internal/core"
)

func newLoadCommand(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load FILE",
		Short: "Replace the stored catalog with a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer cc.close()
			svc, err := cc.service(cmd.Context(), nil)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			report, err := svc.LoadCatalog(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.Message())
			if report.SkippedRows > 0 {
				fmt.Fprintf(out, "Skipped %d rows without a barcode.\n", report.SkippedRows)
			}
			if report.PersistErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", core.FormatUserError(report.PersistErr))
			}
			return nil
		},
	}
}

func newLookupCommand(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup CODE...",
		Short: "Look barcodes up in the stored catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer cc.close()
			svc, err := cc.service(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if !svc.Restore(cmd.Context()) {
				return core.ErrCatalogEmpty
			}

			out := cmd.OutOrStdout()
			var found []core.ResultEntry
			for _, code := range args {
				rec, ok := svc.Lookup(code)
				if !ok {
					fmt.Fprintf(out, "Barcode %s not found.\n", code)
					continue
				}
				found = append(found, core.ResultEntry{Barcode: code, Record: rec})
			}
			if len(found) > 0 {
				fmt.Fprintln(out, productTable(found, false, shouldColorize(out)))
			}
			return nil
		},
	}
}

func newClearCommand(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer cc.close()
			svc, err := cc.service(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if err := svc.ClearCatalog(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Catalog cleared.")
			return nil
		},
	}
}

func newInfoCommand(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the stored catalog status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer cc.close()
			svc, err := cc.service(cmd.Context(), nil)
			if err != nil {
				return err
			}
			svc.Restore(cmd.Context())

			cfg, _ := cc.ensureConfig()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store:   %s (key %q)\n", cfg.Store.Backend, cfg.Store.Key)
			fmt.Fprintf(out, "Catalog: %s\n", svc.CatalogStatus().Text)
			return nil
		},
	}
}
