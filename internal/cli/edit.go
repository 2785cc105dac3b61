package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"save-edit-tool/internal/editor"
	"save-edit-tool/internal/session"
	"save-edit-tool/internal/textutil"

	"github.com/spf13/cobra"
)

// editFunc is an edit against the active session.
type editFunc func(ctx context.Context, s *session.Session) ([]editor.Change, error)

// runEdit runs fn and prints the splices it made.
func runEdit(cmd *cobra.Command, fn editFunc) error {
	return run(cmd, func(ctx context.Context, d *deps) error {
		changes, err := fn(ctx, d.sess)
		if err != nil {
			return err
		}
		return d.emit(changes, func() { printChanges(changes) })
	})
}

func printChanges(changes []editor.Change) {
	if len(changes) == 0 {
		fmt.Println("Nothing to change.")
		return
	}
	for _, ch := range changes {
		fmt.Println(describeChange(ch))
	}
}

func describeChange(ch editor.Change) string {
	line := fmt.Sprintf("%s : %s  %s: %s -> %s", ch.Class, ch.ID, ch.Key,
		textutil.Truncate(ch.Old, 40), textutil.Truncate(ch.New, 40))
	if ch.Line > 0 {
		line += fmt.Sprintf("  (line %d)", ch.Line)
	}
	return line
}

func parseVehicle(s string) (session.Vehicle, error) {
	switch s {
	case "truck", "vehicle":
		return session.Truck, nil
	case "trailer":
		return session.Trailer, nil
	default:
		return 0, fmt.Errorf("vehicle must be truck or trailer, got %q", s)
	}
}

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return float32(v), nil
}

func parseInt(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return v, nil
}

func setFieldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-field <class> <id> <key> <value>",
		Short: "Set one attribute of any unit in game.sii",
		Long: `Replaces the value of key inside the unit "class : id". Only the value token
changes; quoted values stay quoted. Keys of array elements use brackets, e.g.
wheels_wear[2]. The field must already exist.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, func(ctx context.Context, s *session.Session) ([]editor.Change, error) {
				ch, err := s.EditUnitField(ctx, args[0], args[1], args[2], args[3])
				if err != nil || ch.Noop() {
					return nil, err
				}
				return []editor.Change{ch}, nil
			})
		},
	}
}

func plateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plate <truck|trailer> <plate>",
		Short: "Change the license plate of the player's truck or trailer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVehicle(args[0])
			if err != nil {
				return err
			}
			return runEdit(cmd, func(ctx context.Context, s *session.Session) ([]editor.Change, error) {
				return s.SetPlate(ctx, v, args[1])
			})
		},
	}
}

func repairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair <truck|trailer>",
		Short: "Reset all wear of the player's truck or trailer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVehicle(args[0])
			if err != nil {
				return err
			}
			return runEdit(cmd, func(ctx context.Context, s *session.Session) ([]editor.Change, error) {
				return s.Repair(ctx, v)
			})
		},
	}
}

func refuelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refuel",
		Short: "Fill the player's truck tank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, func(ctx context.Context, s *session.Session) ([]editor.Change, error) {
				return s.Refuel(ctx)
			})
		},
	}
}

func fuelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fuel <level>",
		Short: "Set the player's truck tank level (0 to 1)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseFloat(args[0])
			if err != nil {
				return err
			}
			return runEdit(cmd, func(ctx context.Context, s *session.Session) ([]editor.Change, error) {
				return s.SetFuel(ctx, level)
			})
		},
	}
}

func wearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wear <truck|trailer> <attribute> <level>",
		Short: "Set one wear attribute (0 to 1)",
		Long: `Attributes: engine_wear, transmission_wear, cabin_wear, chassis_wear for
trucks; chassis_wear, trailer_body_wear for trailers; wheels_wear for both,
which sets every wheel.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVehicle(args[0])
			if err != nil {
				return err
			}
			level, err := parseFloat(args[2])
			if err != nil {
				return err
			}
			return runEdit(cmd, func(ctx context.Context, s *session.Session) ([]editor.Change, error) {
				return s.SetWear(ctx, v, args[1], level)
			})
		},
	}
}

func odometerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "odometer <truck|trailer> <km>",
		Short: "Set the odometer of the player's truck or trailer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVehicle(args[0])
			if err != nil {
				return err
			}
			km, err := parseInt(args[1])
			if err != nil {
				return err
			}
			return runEdit(cmd, func(ctx context.Context, s *session.Session) ([]editor.Change, error) {
				return s.SetOdometer(ctx, v, km)
			})
		},
	}
}

func cargoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cargo <kg>",
		Short: "Set the cargo mass of the player's trailer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mass, err := parseFloat(args[0])
			if err != nil {
				return err
			}
			return runEdit(cmd, func(ctx context.Context, s *session.Session) ([]editor.Change, error) {
				return s.SetCargoMass(ctx, mass)
			})
		},
	}
}

func moneyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "money <amount>",
		Short: "Set the bank balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseInt(args[0])
			if err != nil {
				return err
			}
			return runEdit(cmd, func(ctx context.Context, s *session.Session) ([]editor.Change, error) {
				return s.SetMoney(ctx, amount)
			})
		},
	}
}

func xpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "xp <points>",
		Short: "Set the player's experience points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xp, err := parseInt(args[0])
			if err != nil {
				return err
			}
			return runEdit(cmd, func(ctx context.Context, s *session.Session) ([]editor.Change, error) {
				return s.SetExperience(ctx, xp)
			})
		},
	}
}

func skillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skill <adr|long_dist|heavy|fragile|urgent|mechanical> <level>",
		Short: "Set one skill level",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseInt(args[1])
			if err != nil {
				return err
			}
			return runEdit(cmd, func(ctx context.Context, s *session.Session) ([]editor.Change, error) {
				return s.SetSkill(ctx, args[0], level)
			})
		},
	}
}

func applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <edits.json>",
		Short: "Apply a batch of field edits to game.sii in one write",
		Long: `Reads a JSON array of {"class", "id", "key", "value"} objects and applies them
in order. If any edit fails nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var edits []editor.Edit
			if err := json.Unmarshal(data, &edits); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			return runEdit(cmd, func(ctx context.Context, s *session.Session) ([]editor.Change, error) {
				return s.ApplyEdits(ctx, edits)
			})
		},
	}
}
