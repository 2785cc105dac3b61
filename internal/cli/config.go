package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"save-edit-tool/internal/gamecfg"

	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change game settings in config.cfg",
	}
	cmd.AddCommand(configListCmd())
	cmd.AddCommand(configGetCmd())
	cmd.AddCommand(configSetCmd())
	return cmd
}

func configListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every known setting and its current value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, runConfigList)
		},
	}
}

type settingValue struct {
	Name  string        `json:"name"`
	Key   string        `json:"key"`
	Scope gamecfg.Scope `json:"scope"`
	Value string        `json:"value"`
	Error string        `json:"error,omitempty"`
}

// runConfigList handles the `config list` command.
func runConfigList(ctx context.Context, d *deps) error {
	values := make([]settingValue, 0, len(gamecfg.Settings))
	for _, s := range gamecfg.Settings {
		sv := settingValue{Name: s.Name, Key: s.Key, Scope: s.Scope}
		if _, v, err := d.sess.ReadSetting(s.Name); err != nil {
			sv.Error = err.Error()
		} else {
			sv.Value = v
		}
		values = append(values, sv)
	}

	return d.emit(values, func() {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tKEY\tSCOPE\tVALUE")
		for _, sv := range values {
			value := sv.Value
			if sv.Error != "" {
				value = "(" + sv.Error + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sv.Name, sv.Key, sv.Scope, value)
		}
		w.Flush()
	})
}

func configGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <setting>",
		Short: "Print the current value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, d *deps) error {
				s, v, err := d.sess.ReadSetting(args[0])
				if err != nil {
					return err
				}
				sv := settingValue{Name: s.Name, Key: s.Key, Scope: s.Scope, Value: v}
				return d.emit(sv, func() { fmt.Println(v) })
			})
		},
	}
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <setting> <value>",
		Short: "Change a setting; numeric ranges are clamped",
		Long: `Known settings: traffic (0-10), developer (0-1), console (0-1),
max_convoy_size, parking_doubles (0-1, per profile). Config keys such as
g_traffic are accepted too. The file is re-read to verify the change.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, d *deps) error {
				ch, err := d.sess.ApplySetting(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return d.emit(ch, func() {
					fmt.Printf("%s: %s -> %s\n", ch.Key, ch.Old, ch.New)
				})
			})
		},
	}
}
