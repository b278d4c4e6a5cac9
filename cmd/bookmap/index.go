package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/bookmap/internal/console"
	"github.com/joseph-ayodele/bookmap/internal/document"
	"github.com/joseph-ayodele/bookmap/internal/export"
)

func newIndexCmd(a *app) *cobra.Command {
	var withPages bool

	cmd := &cobra.Command{
		Use:   "index <file.pdf>",
		Short: "Upload a PDF, wait for indexing and print its table of contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			format, err := parseFormat(a.cfg.Output.Format)
			if err != nil {
				return err
			}

			f, err := document.Open(args[0], a.cfg.UI.MaxUploadBytes, a.logger)
			if err != nil {
				return err
			}

			view := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.cfg.Output.Dir, a.logger)
			s := a.newSession(ctx, view)
			defer s.close()

			res, sid, err := s.process(ctx, f)
			if err != nil {
				return err
			}

			if format != "" {
				if err := s.download(format); err != nil {
					return err
				}
			}

			if withPages {
				dir := filepath.Join(a.cfg.Output.Dir, "pages_"+sid)
				results, err := a.export.DownloadPages(ctx, a.client, sid, res.Pages(), dir, a.cfg.Output.PageWorkers)
				if err != nil {
					return err
				}
				printPageResults(cmd, results)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.String("format", "", "also download the index as json, csv or xlsx")
	fl.String("out", ".", "directory for downloaded files")
	fl.BoolVar(&withPages, "pages", false, "also download the image of every indexed page")
	bindTo(fl, "format", "output.format")
	bindTo(fl, "out", "output.dir")
	return cmd
}

func printPageResults(cmd *cobra.Command, results []export.PageResult) {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "Page %d: %s\n", r.Page, "Could not load page image. The page may not be available.")
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), pageSummary(len(results)-failed, failed))
}
