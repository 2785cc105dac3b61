package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"save-edit-tool/internal/profiles"
	"save-edit-tool/internal/state"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func profilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List profiles in the game directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cached, _ := cmd.Flags().GetBool("cached")
			return run(cmd, func(ctx context.Context, d *deps) error {
				return runProfiles(ctx, d, cached)
			})
		},
	}
	cmd.Flags().Bool("cached", false, "Show the last scan instead of rescanning")
	return cmd
}

// runProfiles handles the `profiles` command.
func runProfiles(ctx context.Context, d *deps, cached bool) error {
	list, err := loadProfiles(ctx, d, !cached)
	if err != nil {
		return err
	}

	return d.emit(list, func() {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tFOLDER\tSOURCE\tACTIVE")
		for _, p := range list {
			active := ""
			if p.Path == d.sess.ProfilePath() {
				active = "*"
			}
			name := p.Name
			if !p.Success {
				name += " (" + p.Message + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, p.Folder, p.Source, active)
		}
		w.Flush()
	})
}

// loadProfiles returns the stored scan, rescanning when asked or when
// nothing is stored.
func loadProfiles(ctx context.Context, d *deps, rescan bool) ([]profiles.Profile, error) {
	game := string(d.cfg.Game)
	if !rescan {
		list, err := d.store.Profiles(game)
		if err != nil {
			return nil, err
		}
		if len(list) > 0 {
			return list, nil
		}
	}

	list, err := profiles.NewScanner(d.cfg.WorkerCount).Discover(ctx, d.cfg.GameDir)
	if err != nil {
		return nil, fmt.Errorf("discover profiles: %w", err)
	}
	if err := d.store.PutProfiles(game, list); err != nil {
		log.Warn().Err(err).Msg("Failed to remember profile scan")
	}
	return list, nil
}

func savesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "saves",
		Short: "List save slots of the active profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, runSaves)
		},
	}
}

// runSaves handles the `saves` command.
func runSaves(ctx context.Context, d *deps) error {
	profile := d.sess.ProfilePath()
	if profile == "" {
		return fmt.Errorf("no profile selected, run `use <profile>` first")
	}

	saves, err := profiles.ListSaves(profile)
	if err != nil {
		return err
	}
	active, _ := d.sess.SaveDir()

	return d.emit(saves, func() {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FOLDER\tKIND\tNAME\tMODIFIED\tACTIVE")
		for _, s := range saves {
			modified := ""
			if info, err := os.Stat(filepath.Join(s.Path, profiles.GameFile)); err == nil {
				modified = humanize.Time(info.ModTime())
			}
			name := s.Name
			if s.Message != "" {
				name = "(" + s.Message + ")"
			}
			mark := ""
			if s.Path == active {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.Folder, s.Kind, name, modified, mark)
		}
		w.Flush()
	})
}

func useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <profile> [save]",
		Short: "Select the active profile and optionally a save slot",
		Long: `Selects a profile by display name, folder name or path. The save slot is a
folder name under <profile>/save such as "quicksave" or "3". The selection is
remembered between runs.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			save := ""
			if len(args) == 2 {
				save = args[1]
			}
			return run(cmd, func(ctx context.Context, d *deps) error {
				return runUse(ctx, d, args[0], save)
			})
		},
	}
}

// runUse handles the `use` command.
func runUse(ctx context.Context, d *deps, name, save string) error {
	profile, err := findProfile(ctx, d, name)
	if err != nil {
		return err
	}
	d.sess.SetProfile(profile.Path)

	sel := state.Selection{Game: string(d.cfg.Game), Profile: profile.Path}
	if save != "" {
		dir := save
		if !filepath.IsAbs(save) {
			dir = filepath.Join(profile.Path, "save", save)
		}
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("save %s: %w", save, err)
		}
		d.sess.SetSave(dir)
		sel.Save = dir
	}

	if err := d.store.SetSelection(sel); err != nil {
		return err
	}
	fmt.Printf("Using profile %q (%s)\n", profile.Name, profile.Folder)
	if sel.Save != "" {
		fmt.Printf("Using save %s\n", filepath.Base(sel.Save))
	}
	return nil
}

func findProfile(ctx context.Context, d *deps, name string) (profiles.Profile, error) {
	if info, err := os.Stat(filepath.Join(name, profiles.ProfileFile)); err == nil && !info.IsDir() {
		abs, _ := filepath.Abs(name)
		return profiles.Profile{Path: abs, Folder: filepath.Base(abs), Name: filepath.Base(abs), Success: true}, nil
	}

	for _, rescan := range []bool{false, true} {
		list, err := loadProfiles(ctx, d, rescan)
		if err != nil {
			return profiles.Profile{}, err
		}
		for _, p := range list {
			if strings.EqualFold(p.Name, name) || p.Folder == name || p.Path == name {
				return p, nil
			}
		}
	}
	return profiles.Profile{}, fmt.Errorf("profile %q not found in %s", name, d.cfg.GameDir)
}
