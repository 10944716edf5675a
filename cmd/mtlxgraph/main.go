package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"mtlxgraph/internal/config"
	"mtlxgraph/internal/graph"
	"mtlxgraph/internal/logger"
	"mtlxgraph/internal/look"
	"mtlxgraph/internal/mtlx"
	"mtlxgraph/internal/pipeline"
	"mtlxgraph/internal/render"
	"mtlxgraph/internal/shader"
	"mtlxgraph/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:           "mtlxgraph",
		Short:         "Compile MaterialX documents into shading node graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configPath string
	dbPath     string
	lookIndex  int
	noStore    bool

	focusPath string
	hops      int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the node state database (SQLite), overrides the config")
	rootCmd.PersistentFlags().IntVarP(&lookIndex, "look", "l", -1, "Look index to apply, overrides the config")
	rootCmd.PersistentFlags().BoolVar(&noStore, "no-store", false, "Do not read or write the node state database")

	renderCmd.Flags().StringVar(&focusPath, "focus", "", "Only draw nodes around this node path, e.g. mat_wood/surf")
	renderCmd.Flags().IntVar(&hops, "hops", render.DefaultConfig().MaxHops, "Hops around --focus to include")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(looksCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
}

type app struct {
	cfg *config.Config
	log *logger.Logger
	lib *shader.Library
}

// setup loads the configuration, the logger and the shader library.
func setup() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	if lookIndex >= 0 {
		cfg.Node.Look = lookIndex
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	lib := shader.Default()
	if cfg.Shaders.Library != "" {
		lib, err = shader.LoadFile(cfg.Shaders.Library)
		if err != nil {
			return nil, fmt.Errorf("failed to load shader library: %w", err)
		}
	}
	return &app{cfg: cfg, log: log, lib: lib}, nil
}

func (a *app) newNode(name string) *pipeline.MtlXInput {
	opts := pipeline.OptionsFromConfig(a.cfg, a.lib, a.log)
	if name != "" {
		opts.Name = name
	}
	return pipeline.NewMtlXInput(opts)
}

func (a *app) openStore() (*storage.SQLiteStore, error) {
	if noStore {
		return nil, nil
	}
	store, err := storage.NewSQLiteStore(a.cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

// documentArg picks the document from the arguments, falling back to the config.
func (a *app) documentArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if a.cfg.Node.Document != "" {
		return a.cfg.Node.Document, nil
	}
	return "", errors.New("no document given and node.document is not configured")
}

// load points n at path, resuming from stored markers when they are for the same
// document. A stored look is kept unless --look was given.
func load(ctx context.Context, store *storage.SQLiteStore, n *pipeline.MtlXInput, path string, lookIdx int) {
	restored := false
	if store != nil {
		st, err := store.LoadNodeState(ctx, n.Name)
		if err == nil && st.Path == path {
			n.Restore(st.Path, st.Resolved, st.Refresh, st.Look)
			restored = true
		}
	}
	n.OnPathChanged(path)
	if !restored || lookIndex >= 0 {
		n.OnLookSelected(lookIdx)
	}
}

// persist saves the node's markers and a snapshot of its generated graph.
func persist(ctx context.Context, store *storage.SQLiteStore, n *pipeline.MtlXInput) error {
	if store == nil {
		return nil
	}
	s := n.State
	err := store.SaveNodeState(ctx, storage.NodeState{
		Node:     n.Name,
		Path:     s.Path,
		Resolved: s.Resolved,
		Refresh:  s.Refresh,
		Look:     s.Look,
		Status:   s.Status,
		BuildID:  s.BuildID,
	})
	if err != nil {
		return fmt.Errorf("failed to save node state: %w", err)
	}
	if err := store.SaveGraph(ctx, n.Name, s.BuildID, n.Graph); err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}
	return nil
}

func printReport(r *pipeline.BuildReport) {
	fmt.Printf("📦 %s [%s] build %s\n", r.Node, r.Phases, r.ID)
	for _, st := range r.Stages {
		switch {
		case st.Err != nil:
			fmt.Printf("  -> %-10s failed: %v\n", st.Stage, st.Err)
		case st.Stats.Skipped:
			fmt.Printf("  -> %-10s skipped\n", st.Stage)
		default:
			fmt.Printf("  -> %-10s %4d  nodes %d -> %d  (%v)\n", st.Stage, st.Stats.Count, st.NodesBefore, st.NodesAfter, st.Duration)
		}
	}
	fmt.Printf("✅ %s\n", r.Status)
}

var buildCmd = &cobra.Command{
	Use:   "build [file.mtlx]",
	Short: "Build a document into a node graph and record the node state",
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

		ctx := cmd.Context()
		n := a.newNode("")
		load(ctx, store, n, path, a.cfg.Node.Look)
		printReport(n.Evaluate())
		return persist(ctx, store, n)
	},
}

var looksCmd = &cobra.Command{
	Use:   "looks [file.mtlx]",
	Short: "List the looks of a document as selectable presets",
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
		doc, err := mtlx.ReadFile(path)
		if err != nil {
			return err
		}

		presets := look.Presets(doc)
		names := make([]string, 0, len(presets))
		for name := range presets {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return presets[names[i]] < presets[names[j]] })
		for _, name := range names {
			l := doc.Looks[presets[name]]
			fmt.Printf("%3d  %-30s assignments=%d visibilities=%d\n", presets[name], name, len(l.MaterialAssigns), len(l.Visibilities))
		}
		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render [file.mtlx]",
	Short: "Build a document and print the generated graph as a Mermaid flowchart",
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

		n := a.newNode("")
		n.OnPathChanged(path)
		n.OnLookSelected(a.cfg.Node.Look)
		if err := n.Evaluate().Failed(); err != nil {
			return err
		}

		sg := render.Whole(n.Graph)
		if focusPath != "" {
			focus, err := n.Graph.FindByPath(focusPath)
			if err != nil {
				return err
			}
			sg = render.Extract(n.Graph, []graph.NodeID{focus.ID}, render.Config{MaxHops: hops})
		}
		fmt.Print(render.NewMermaidGenerator().GenerateFlowChart(n.Graph, sg))
		return nil
	},
}
