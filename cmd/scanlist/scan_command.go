package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ScanList/internal/core"
	"github.com/JonMunkholm/ScanList/internal/decoder"
)

// scanPoll bounds how long the loop can miss the end of a run when the
// state event was dropped.
const scanPoll = 200 * time.Millisecond

func newScanCommand(cc *cliContext) *cobra.Command {
	var device string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a scan session, one barcode per input line",
		Long: "Reads barcodes from --device (a keyboard-wedge or serial scanner) or from stdin.\n" +
			"A blank line is ignored. The session ends at end of input or on interrupt,\n" +
			"then the scanned list is printed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer cc.close()
			ctx := cmd.Context()

			var dec core.Decoder
			if device != "" {
				dec = decoder.NewLines(device)
			} else {
				dec = decoder.NewLinesReader(cmd.InOrStdin())
			}

			svc, err := cc.service(ctx, dec)
			if err != nil {
				return err
			}
			if !svc.Restore(ctx) {
				return core.ErrCatalogEmpty
			}

			_, events, cancel := svc.Hub().Subscribe(256)
			defer cancel()

			session := svc.Session()
			if err := session.Start(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Scanning %s\n", svc.CatalogStatus().Text)

			ticker := time.NewTicker(scanPoll)
			defer ticker.Stop()

		loop:
			for {
				select {
				case <-ctx.Done():
					break loop
				case <-ticker.C:
					if session.State() == core.StateIdle {
						break loop
					}
				case e := <-events:
					switch e.Type {
					case core.EventStatus:
						if e.Status.Kind == core.StatusPrompt || e.Status.Kind == core.StatusIdle {
							continue
						}
						fmt.Fprintln(out, statusLine(*e.Status, colorize))
					case core.EventState:
						if e.State == core.StateIdle {
							break loop
						}
					}
				}
			}
			_ = session.Stop()

			// A decoder failure is reported after the state change that
			// ends the loop.
			if final := session.Snapshot().ScanStatus; final.Kind == core.StatusDecoderError {
				fmt.Fprintln(out, statusLine(final, colorize))
			}

			results := session.Results()
			if len(results) == 0 {
				fmt.Fprintln(out, "No items scanned.")
				return nil
			}
			fmt.Fprintln(out, productTable(results, true, colorize))
			return nil
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "Scanner device path (default: stdin)")
	return cmd
}
