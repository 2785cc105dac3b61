package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"save-edit-tool/internal/graph"
	"save-edit-tool/internal/report"
	"save-edit-tool/internal/savegame"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded edits of the active save",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			all, _ := cmd.Flags().GetBool("all")
			return run(cmd, func(ctx context.Context, d *deps) error {
				return runHistory(ctx, d, limit, all)
			})
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of entries, 0 for all")
	cmd.Flags().Bool("all", false, "Include edits of every file")
	return cmd
}

// runHistory handles the `history` command.
func runHistory(ctx context.Context, d *deps, limit int, all bool) error {
	file := ""
	if !all {
		path, err := d.sess.GamePath()
		if err != nil {
			return err
		}
		file = path
	}

	entries, err := d.journal.List(ctx, file, limit)
	if err != nil {
		return err
	}

	return d.emit(entries, func() {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tFILE\tUNIT\tFIELD\tOLD\tNEW")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				humanize.Time(e.At), filepath.Base(e.File), e.Unit, e.Field, e.Old, e.New)
		}
		w.Flush()
	})
}

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [unit-id]",
		Short: "Build the unit reference graph of the active save",
		Long: `Without flags, prints unit and reference counts per class. --neo4j exports the
graph to Neo4j (NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD). With a unit id and
--neo4j, prints that unit's neighbours from the exported graph.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toNeo4j, _ := cmd.Flags().GetBool("neo4j")
			all, _ := cmd.Flags().GetBool("all-classes")
			unit := ""
			if len(args) == 1 {
				unit = args[0]
			}
			return run(cmd, func(ctx context.Context, d *deps) error {
				return runGraph(ctx, d, unit, toNeo4j, all)
			})
		},
	}
	cmd.Flags().Bool("neo4j", false, "Export to or query Neo4j")
	cmd.Flags().Bool("all-classes", false, "Include every unit class, not only vehicles and economy")
	return cmd
}

// runGraph handles the `graph` command.
func runGraph(ctx context.Context, d *deps, unit string, toNeo4j, allClasses bool) error {
	doc, err := d.sess.ReadGame()
	if err != nil {
		return err
	}
	dir, _ := d.sess.SaveDir()

	var classes []string
	if !allClasses {
		classes = savegame.DefaultGraphClasses
	}
	g := savegame.BuildReferenceGraph(doc, classes...)

	if !toNeo4j {
		counts := make(map[string]int)
		for _, u := range g.Units {
			counts[u.Class]++
		}
		return d.emit(g, func() {
			names := make([]string, 0, len(counts))
			for c := range counts {
				names = append(names, c)
			}
			sort.Strings(names)
			for _, c := range names {
				fmt.Printf("%-20s %s\n", c, humanize.Comma(int64(counts[c])))
			}
			fmt.Printf("%d units, %d references\n", len(g.Units), len(g.Refs))
		})
	}

	driver, err := graph.Connect(ctx, d.cfg.Neo4jURI, d.cfg.Neo4jUser, d.cfg.Neo4jPassword)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	if unit != "" {
		neighbors, err := graph.NewQuerier(driver).Neighbors(ctx, dir, unit)
		if err != nil {
			return err
		}
		return d.emit(neighbors, func() {
			for _, n := range neighbors {
				arrow := "<-"
				if n.Outgoing {
					arrow = "->"
				}
				fmt.Printf("%s %s %s (%s)\n", arrow, n.Key, n.ID, n.Class)
			}
		})
	}

	builder := graph.NewBuilder(driver)
	if err := builder.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}
	if err := builder.Export(ctx, dir, g); err != nil {
		return err
	}
	counts, err := graph.NewQuerier(driver).ClassCounts(ctx, dir)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read back unit counts")
	}
	return d.emit(counts, func() {
		fmt.Printf("Exported %d units and %d references\n", len(g.Units), len(g.Refs))
	})
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <output>",
		Short: "Export every truck and trailer of the active save as TSV or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			return run(cmd, func(ctx context.Context, d *deps) error {
				return runExport(ctx, d, args[0], format)
			})
		},
	}
	cmd.Flags().String("format", "", "Export format: tsv or json (default from extension)")
	return cmd
}

// runExport handles the `export` command.
func runExport(ctx context.Context, d *deps, output, format string) error {
	f := report.FormatFor(output)
	if format != "" {
		parsed, err := report.ParseFormat(format)
		if err != nil {
			return err
		}
		f = parsed
	}

	doc, err := d.sess.ReadGame()
	if err != nil {
		return err
	}
	dir, _ := d.sess.SaveDir()
	return report.WriteFile(output, report.BuildFleet(filepath.Base(dir), doc), f)
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the active save and print the player's truck whenever the game rewrites it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, runWatch)
		},
	}
}

// runWatch handles the `watch` command.
func runWatch(ctx context.Context, d *deps) error {
	game, err := d.sess.GamePath()
	if err != nil {
		return err
	}

	return d.sess.Watch(ctx, func(path string) {
		if path != game {
			return
		}
		doc, err := d.sess.ReadGame()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to re-read save")
			return
		}
		t, ok, err := savegame.PlayerTruck(doc)
		if err != nil || !ok {
			return
		}
		fmt.Printf("%s %s: %s km, fuel %s\n", t.Brand, t.Model,
			humanize.Comma(int64(t.Odometer)), percent(t.FuelRelative))
	})
}
