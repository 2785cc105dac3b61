package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"save-edit-tool/internal/savegame"

	"github.com/rs/zerolog/log"
)

// Format is an export encoding.
type Format string

const (
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "tsv" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// FormatFor picks the format from a file extension, defaulting to JSON.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return FormatTSV
	}
	return FormatJSON
}

// Fleet is the exported view of a save's vehicles.
type Fleet struct {
	Save     string             `json:"save"`
	Player   string             `json:"player_id,omitempty"`
	Trucks   []savegame.Truck   `json:"trucks"`
	Trailers []savegame.Trailer `json:"trailers"`
}

// BuildFleet collects every truck and trailer of doc.
func BuildFleet(save, doc string) Fleet {
	fl := Fleet{
		Save:     save,
		Trucks:   savegame.Trucks(doc),
		Trailers: savegame.Trailers(doc),
	}
	fl.Player, _ = savegame.PlayerID(doc)
	return fl
}

var tsvHeader = []string{
	"kind", "id", "brand", "model", "odometer", "fuel_relative", "cargo_mass",
	"chassis_wear", "license_plate", "assigned_garage",
}

// Write encodes fl to w.
func Write(w io.Writer, fl Fleet, format Format) error {
	if format == FormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(fl); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		return nil
	}

	rows := [][]string{tsvHeader}
	for _, t := range fl.Trucks {
		rows = append(rows, []string{
			"truck", t.ID, t.Brand, t.Model, num(t.Odometer), num(t.FuelRelative), "",
			num(t.ChassisWear), t.LicensePlate, t.AssignedGarage,
		})
	}
	for _, t := range fl.Trailers {
		rows = append(rows, []string{
			"trailer", t.ID, t.Brand, t.Model, num(t.Odometer), "", num(t.CargoMass),
			num(t.ChassisWear), t.LicensePlate, t.AssignedGarage,
		})
	}

	for _, row := range rows {
		for i, cell := range row {
			row[i] = escapeTSV(cell)
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return fmt.Errorf("write TSV: %w", err)
		}
	}
	return nil
}

// WriteFile exports fl to outputPath.
func WriteFile(outputPath string, fl Fleet, format Format) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s file: %w", format, err)
	}
	defer f.Close()

	if err := Write(f, fl, format); err != nil {
		return err
	}

	log.Info().
		Str("path", outputPath).
		Int("trucks", len(fl.Trucks)).
		Int("trailers", len(fl.Trailers)).
		Msg("Exported fleet")
	return f.Close()
}

func num(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}
