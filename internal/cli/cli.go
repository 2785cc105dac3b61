package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"save-edit-tool/internal/config"
	"save-edit-tool/internal/editor"
	"save-edit-tool/internal/journal"
	"save-edit-tool/internal/session"
	"save-edit-tool/internal/state"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:           "save-edit-tool",
		Short:         "Inspect and edit Euro Truck Simulator 2 / American Truck Simulator saves",
		Long:          "Reads profiles, saves and config.cfg files, decrypting SII containers, and edits single fields in place.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, err := zerolog.ParseLevel(config.Load().LogLevel)
			if err != nil {
				level = zerolog.InfoLevel
			}
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
		},
	}
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(profilesCmd())
	rootCmd.AddCommand(savesCmd())
	rootCmd.AddCommand(useCmd())
	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(trucksCmd())
	rootCmd.AddCommand(trailersCmd())
	rootCmd.AddCommand(truckCmd())
	rootCmd.AddCommand(trailerCmd())
	rootCmd.AddCommand(setFieldCmd())
	rootCmd.AddCommand(plateCmd())
	rootCmd.AddCommand(repairCmd())
	rootCmd.AddCommand(refuelCmd())
	rootCmd.AddCommand(fuelCmd())
	rootCmd.AddCommand(wearCmd())
	rootCmd.AddCommand(odometerCmd())
	rootCmd.AddCommand(cargoCmd())
	rootCmd.AddCommand(moneyCmd())
	rootCmd.AddCommand(xpCmd())
	rootCmd.AddCommand(skillCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(applyCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(graphCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// deps are the shared dependencies of one command run.
type deps struct {
	cfg     *config.Config
	store   *state.Store
	journal journal.Journal
	sess    *session.Session
	json    bool
}

// initDependencies opens the state store and journal and restores the
// remembered profile and save.
func initDependencies(ctx context.Context, cfg *config.Config) (*deps, error) {
	store, err := state.Open(cfg.StatePath)
	if err != nil {
		return nil, err
	}

	var j journal.Journal
	if cfg.DatabaseURL != "" {
		j, err = journal.OpenPostgres(ctx, cfg.DatabaseURL)
	} else {
		j, err = journal.OpenSQLite(cfg.JournalPath)
	}
	if err != nil {
		store.Close()
		return nil, err
	}

	sess, err := session.New(session.Options{
		GameDir:   cfg.GameDir,
		CacheSize: cfg.CacheSize,
		Journal:   j,
		Write:     editor.WriteOptions{Backup: cfg.Backup, Atomic: cfg.AtomicWrite},
	})
	if err != nil {
		j.Close()
		store.Close()
		return nil, err
	}

	sel, err := store.Selection()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read remembered selection")
	} else if sel.Game == string(cfg.Game) && sel.Profile != "" {
		sess.SetProfile(sel.Profile)
		if sel.Save != "" {
			sess.SetSave(sel.Save)
		}
	}

	return &deps{cfg: cfg, store: store, journal: j, sess: sess}, nil
}

func (d *deps) Close() {
	st := d.sess.CacheStats()
	log.Debug().Int("hits", st.Hits).Int("misses", st.Misses).Int("entries", st.Len).Msg("Document cache")
	if err := d.journal.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close journal")
	}
	if err := d.store.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close state store")
	}
}

// run loads config, opens dependencies and hands them to fn.
func run(cmd *cobra.Command, fn func(ctx context.Context, d *deps) error) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	d, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	d.json, _ = cmd.Flags().GetBool("json")
	return fn(ctx, d)
}

// emit prints v as JSON when --json is set, otherwise calls text.
func (d *deps) emit(v any, text func()) error {
	if !d.json {
		text()
		return nil
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}
