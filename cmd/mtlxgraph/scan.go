package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mtlxgraph/internal/crawler"
	"mtlxgraph/internal/pipeline"
	"mtlxgraph/internal/watch"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type scanResult struct {
	path   string
	node   *pipeline.MtlXInput
	report *pipeline.BuildReport
}

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Build every .mtlx document below a directory, one node instance each",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.log.Sync()

		root := "."
		if len(args) > 0 {
			root = args[0]
		}

		fmt.Printf("📂 Scanning directory: %s\n", root)
		paths, err := crawler.NewCrawler().Collect(root)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		if len(paths) == 0 {
			fmt.Println("No documents found.")
			return nil
		}

		// Node instances are independent; each one still evaluates on a single goroutine.
		start := time.Now()
		results := make([]scanResult, len(paths))
		g, _ := errgroup.WithContext(cmd.Context())
		g.SetLimit(max(1, a.cfg.Scan.Parallelism))
		for i, path := range paths {
			i, path := i, path
			g.Go(func() error {
				n := a.newNode(path)
				n.OnPathChanged(path)
				n.OnLookSelected(a.cfg.Node.Look)
				results[i] = scanResult{path: path, node: n, report: n.Evaluate()}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		store, err := a.openStore()
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		failed := 0
		for _, r := range results {
			mark := "✅"
			if r.report.Failed() != nil {
				mark = "⚠️ "
				failed++
			}
			fmt.Printf("%s %s: %s\n", mark, r.path, r.report.Status)
			if err := persist(cmd.Context(), store, r.node); err != nil {
				a.log.Warn("failed to persist node", "path", r.path, "error", err)
			}
		}
		fmt.Printf("🎉 %d documents built, %d failed, in %v\n", len(results)-failed, failed, time.Since(start))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [file.mtlx]",
	Short: "Rebuild a document whenever it changes on disk",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.log.Sync()

		path, err := a.documentArg(args)
		if err != nil {
			return err
		}
		store, err := a.openStore()
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		n := a.newNode("")
		load(ctx, store, n, path, a.cfg.Node.Look)
		rebuild := func() {
			printReport(n.Evaluate())
			if err := persist(context.WithoutCancel(ctx), store, n); err != nil {
				a.log.Warn("failed to persist node", "path", path, "error", err)
			}
		}
		rebuild()

		// onChange runs on the Run loop below, so evaluations never overlap.
		w, err := watch.New(path, a.log, func(string) {
			n.OnRefreshRequested()
			rebuild()
		})
		if err != nil {
			return err
		}
		fmt.Printf("👀 Watching %s (Ctrl+C to stop)\n", path)
		return w.Run(ctx)
	},
}
