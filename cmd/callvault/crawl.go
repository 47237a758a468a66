// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ManuGH/callvault/internal/daemon"
	"github.com/ManuGH/callvault/internal/recordings"
	"github.com/ManuGH/callvault/internal/version"
)

// openRuntime builds the services for one-shot commands, logging to stderr so
// stdout carries only results.
func openRuntime(ctx context.Context, cfgPath string) (*daemon.Runtime, error) {
	return daemon.Bootstrap(ctx, daemon.Options{
		ConfigPath: cfgPath,
		Version:    version.Version,
		LogOutput:  os.Stderr,
	})
}

func crawlCmd(cfgPath *string) *cobra.Command {
	var (
		q      recordings.RangeQuery
		filter recordings.FilterQuery
		format string
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl object-store metadata for an opco and date range",
		Long: "Crawl reads every day partition between --from and --to (yyyy-MM-dd HH:mm:ss), " +
			"normalizes the XML metadata and prints one page. Filter flags refine the crawl " +
			"the same way /vpi/filter does.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFmt, err := checkFormat(format)
			if err != nil {
				return err
			}
			ctx, stop := daemon.WaitForShutdown()
			defer stop()

			rt, err := openRuntime(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

			page, err := rt.Recordings.MetadataRange(ctx, q)
			if err != nil {
				return errors.New(recordings.Message(err))
			}
			if !filter.Filter.Empty() {
				filter.SessionID = page.SessionID
				filter.PageNumber = q.PageNumber
				filter.PageSize = q.PageSize
				page, err = rt.Recordings.FilterMetadata(ctx, filter)
				if err != nil {
					return errors.New(recordings.Message(err))
				}
			}

			out := cmd.OutOrStdout()
			if outFmt == formatJSON {
				return writeJSON(out, page)
			}
			writeRecordsTable(out, page.Data)
			_, err = fmt.Fprintf(out, "page %d/%d, %d records, session %s\n",
				page.PageNumber, page.TotalPages, page.TotalRecords, page.SessionID)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&q.Opco, "opco", "", "operating company (e.g. CMP, BTL)")
	flags.StringVar(&q.From, "from", "", "range start, yyyy-MM-dd HH:mm:ss")
	flags.StringVar(&q.To, "to", "", "range end, yyyy-MM-dd HH:mm:ss")
	flags.IntVar(&q.PageNumber, "page", 1, "page number")
	flags.IntVar(&q.PageSize, "size", 50, "page size")
	flags.StringSliceVar(&filter.Filter.ExtensionNum, "extension", nil, "extension number substrings")
	flags.StringSliceVar(&filter.Filter.ObjectID, "object-id", nil, "object id substrings")
	flags.StringSliceVar(&filter.Filter.ChannelNum, "channel", nil, "channel number substrings")
	flags.StringSliceVar(&filter.Filter.AniAliDigits, "ani", nil, "ANI/ALI digit substrings")
	flags.StringSliceVar(&filter.Filter.Name, "name", nil, "name substrings")
	flags.StringVarP(&format, "format", "o", formatTable, "output format: table or json")
	_ = cmd.MarkFlagRequired("opco")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
