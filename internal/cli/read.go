package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"save-edit-tool/internal/savegame"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show money, experience and skills of the active save",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, runInfo)
		},
	}
}

type saveSummary struct {
	Path     string                  `json:"path"`
	Info     savegame.SaveInfo       `json:"info"`
	Economy  savegame.Economy        `json:"economy"`
	Vehicles savegame.PlayerVehicles `json:"vehicles"`
}

// runInfo handles the `info` command.
func runInfo(ctx context.Context, d *deps) error {
	doc, err := d.sess.ReadGame()
	if err != nil {
		return err
	}
	path, _ := d.sess.GamePath()

	econ, err := savegame.ReadEconomy(doc)
	if err != nil {
		return err
	}
	summary := saveSummary{Path: path, Economy: econ}
	if info, err := d.sess.ReadInfo(); err == nil {
		summary.Info = savegame.ReadSaveInfo(info)
	}
	if pv, err := savegame.ResolvePlayerVehicles(doc); err == nil {
		summary.Vehicles = pv
	}

	return d.emit(summary, func() {
		fmt.Printf("Save:        %s\n", summary.Info.Name)
		fmt.Printf("File:        %s\n", path)
		fmt.Printf("Money:       %s\n", humanize.Comma(econ.Money))
		fmt.Printf("Experience:  %s\n", humanize.Comma(econ.Experience))
		fmt.Printf("Garages:     %d\n", econ.Garages)
		fmt.Printf("Trucks:      %d owned, active %s\n", econ.TrucksOwned, orNone(summary.Vehicles.TruckID))
		fmt.Printf("Trailers:    %d owned, active %s\n", econ.TrailersOwned, orNone(summary.Vehicles.TrailerID))

		skills := make([]string, 0, len(econ.Skills))
		for k := range econ.Skills {
			skills = append(skills, k)
		}
		sort.Strings(skills)
		for _, k := range skills {
			fmt.Printf("  %-11s %d\n", k, econ.Skills[k])
		}
	})
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func trucksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trucks",
		Short: "List every truck in the active save",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, runTrucks)
		},
	}
}

// runTrucks handles the `trucks` command.
func runTrucks(ctx context.Context, d *deps) error {
	doc, err := d.sess.ReadGame()
	if err != nil {
		return err
	}
	trucks := savegame.Trucks(doc)
	pv, _ := savegame.ResolvePlayerVehicles(doc)

	return d.emit(trucks, func() {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBRAND\tMODEL\tODOMETER\tFUEL\tPLATE\tPLAYER")
		for _, t := range trucks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s km\t%s\t%s\t%s\n",
				t.ID, t.Brand, t.Model,
				humanize.Comma(int64(t.Odometer)),
				percent(t.FuelRelative),
				t.LicensePlate,
				mark(t.ID == pv.TruckID))
		}
		w.Flush()
	})
}

func trailersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trailers",
		Short: "List every trailer in the active save",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, runTrailers)
		},
	}
}

// runTrailers handles the `trailers` command.
func runTrailers(ctx context.Context, d *deps) error {
	doc, err := d.sess.ReadGame()
	if err != nil {
		return err
	}
	trailers := savegame.Trailers(doc)
	pv, _ := savegame.ResolvePlayerVehicles(doc)

	return d.emit(trailers, func() {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBRAND\tCARGO\tBODY WEAR\tPLATE\tPLAYER")
		for _, t := range trailers {
			fmt.Fprintf(w, "%s\t%s\t%s kg\t%s\t%s\t%s\n",
				t.ID, t.Brand,
				humanize.Comma(int64(t.CargoMass)),
				percent(t.BodyWear),
				t.LicensePlate,
				mark(t.ID == pv.TrailerID))
		}
		w.Flush()
	})
}

func truckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "truck",
		Short: "Show the player's current truck",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, runTruck)
		},
	}
}

// runTruck handles the `truck` command.
func runTruck(ctx context.Context, d *deps) error {
	doc, err := d.sess.ReadGame()
	if err != nil {
		return err
	}
	t, ok, err := savegame.PlayerTruck(doc)
	if err != nil {
		return err
	}
	if !ok {
		return d.emit(nil, func() { fmt.Println("The player has no truck.") })
	}

	return d.emit(t, func() {
		fmt.Printf("Truck:         %s %s (%s)\n", t.Brand, t.Model, t.ID)
		fmt.Printf("Plate:         %s\n", t.LicensePlate)
		fmt.Printf("Odometer:      %s km\n", humanize.CommafWithDigits(float64(t.Odometer), 1))
		fmt.Printf("Fuel:          %s\n", percent(t.FuelRelative))
		fmt.Printf("Trip:          %s km, %s l, %s min\n",
			humanize.Ftoa(float64(t.TripDistance)), humanize.Ftoa(float64(t.TripFuel)), humanize.Ftoa(float64(t.TripTime)))
		fmt.Printf("Engine wear:   %s\n", percent(t.EngineWear))
		fmt.Printf("Gearbox wear:  %s\n", percent(t.TransmissionWear))
		fmt.Printf("Cabin wear:    %s\n", percent(t.CabinWear))
		fmt.Printf("Chassis wear:  %s\n", percent(t.ChassisWear))
		for i, w := range t.WheelsWear {
			fmt.Printf("Wheel %d wear:  %s\n", i, percent(w))
		}
		fmt.Printf("Garage:        %s\n", orNone(t.AssignedGarage))
	})
}

func trailerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trailer",
		Short: "Show the player's current trailer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, runTrailer)
		},
	}
}

// runTrailer handles the `trailer` command.
func runTrailer(ctx context.Context, d *deps) error {
	doc, err := d.sess.ReadGame()
	if err != nil {
		return err
	}
	t, ok, err := savegame.PlayerTrailer(doc)
	if err != nil {
		return err
	}
	if !ok {
		return d.emit(nil, func() { fmt.Println("The player has no trailer attached.") })
	}

	return d.emit(t, func() {
		fmt.Printf("Trailer:       %s\n", t.ID)
		fmt.Printf("Definition:    %s\n", orNone(t.Definition))
		fmt.Printf("Plate:         %s\n", t.LicensePlate)
		fmt.Printf("Cargo:         %s kg, %s damaged\n", humanize.Comma(int64(t.CargoMass)), percent(t.CargoDamage))
		fmt.Printf("Body wear:     %s\n", percent(t.BodyWear))
		fmt.Printf("Chassis wear:  %s\n", percent(t.ChassisWear))
		for i, w := range t.WheelsWear {
			fmt.Printf("Wheel %d wear:  %s\n", i, percent(w))
		}
		fmt.Printf("Accessories:   %d\n", len(t.Accessories))
	})
}

func percent(v float32) string {
	return humanize.FtoaWithDigits(float64(v)*100, 1) + "%"
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}
