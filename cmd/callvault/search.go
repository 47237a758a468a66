// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuGH/callvault/internal/daemon"
	"github.com/ManuGH/callvault/internal/recordings"
)

func searchCmd(cfgPath *string) *cobra.Command {
	var (
		req    recordings.SearchRequest
		format string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the relational recordings index",
		Args:  cobra.NoArgs,
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

			resp, err := rt.Recordings.Search(ctx, req)
			if err != nil {
				return errors.New(recordings.Message(err))
			}

			out := cmd.OutOrStdout()
			if outFmt == formatJSON {
				return writeJSON(out, resp)
			}
			writeRecordingsTable(out, resp.Data)
			p := resp.Pagination
			_, err = fmt.Fprintf(out, "page %d/%d, %d recordings\n", p.PageNumber, p.TotalPages, p.TotalRecords)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.FromDate, "from", "", "range start, yyyy-MM-dd HH:mm:ss")
	flags.StringVar(&req.ToDate, "to", "", "range end, yyyy-MM-dd HH:mm:ss")
	flags.StringVar(&req.Opco, "opco", "", "operating company; empty searches all")
	flags.StringSliceVar(&req.Filters.FileName, "file-name", nil, "file name substrings")
	flags.StringSliceVar(&req.Filters.ExtensionNum, "extension", nil, "extension number substrings")
	flags.StringSliceVar(&req.Filters.ObjectID, "object-id", nil, "object id substrings")
	flags.StringSliceVar(&req.Filters.ChannelNum, "channel", nil, "channel number substrings")
	flags.StringSliceVar(&req.Filters.AniAliDigits, "ani", nil, "ANI/ALI digit substrings")
	flags.StringSliceVar(&req.Filters.Name, "name", nil, "name substrings")
	flags.IntVar(&req.Pagination.PageNumber, "page", 1, "page number")
	flags.IntVar(&req.Pagination.PageSize, "size", recordings.DefaultSearchPageSize, "page size")
	flags.StringVarP(&format, "format", "o", formatTable, "output format: table or json")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
