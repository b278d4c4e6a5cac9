package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

func newPagesCmd(a *app) *cobra.Command {
	var pages []int

	cmd := &cobra.Command{
		Use:   "pages <session-id>",
		Short: "Download page images for a finished session",
		Long: `Download page images for a session that has already been indexed. Without
--page, every page referenced by the index is downloaded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sid := args[0]

			if len(pages) == 0 {
				res, err := a.client.Index(ctx, sid)
				if err != nil {
					return err
				}
				pages = res.Pages()
			}

			dir := filepath.Join(a.cfg.Output.Dir, "pages_"+sid)
			results, err := a.export.DownloadPages(ctx, a.client, sid, pages, dir, a.cfg.Output.PageWorkers)
			if err != nil {
				return err
			}
			printPageResults(cmd, results)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.IntSliceVar(&pages, "page", nil, "page number to download (repeatable)")
	fl.String("out", ".", "directory for downloaded files")
	fl.Int("workers", 4, "concurrent page downloads")
	bindTo(fl, "out", "output.dir")
	bindTo(fl, "workers", "output.page_workers")
	return cmd
}
