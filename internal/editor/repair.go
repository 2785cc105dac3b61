package editor

import (
	"errors"
	"fmt"

	"save-edit-tool/internal/hexfloat"
	"save-edit-tool/internal/sii"

	"github.com/rs/zerolog/log"
)

// Wear attributes reset by a repair, per unit class.
var (
	TruckWearKeys   = []string{"engine_wear", "transmission_wear", "cabin_wear", "chassis_wear"}
	TrailerWearKeys = []string{"chassis_wear", "trailer_body_wear"}
)

// WheelsWearKey is the indexed wear array shared by trucks and trailers.
const WheelsWearKey = "wheels_wear"

// RepairTruck zeroes the wear of a "vehicle" unit.
func RepairTruck(doc, id string) (string, []Change, error) {
	return RepairUnit(doc, "vehicle", id, TruckWearKeys, WheelsWearKey)
}

// RepairTrailer zeroes the wear of a "trailer" unit.
func RepairTrailer(doc, id string) (string, []Change, error) {
	return RepairUnit(doc, "trailer", id, TrailerWearKeys, WheelsWearKey)
}

// RepairUnit sets every listed attribute and every element of the listed
// arrays to zero wear. Each key is its own splice; attributes the unit does
// not carry are skipped.
func RepairUnit(doc, class, id string, keys []string, arrays ...string) (string, []Change, error) {
	zero := hexfloat.FloatToHex(0)

	b, err := sii.FindBlock(doc, class, id)
	if err != nil {
		return "", nil, fmt.Errorf("repair %s : %s: %w", class, id, err)
	}

	targets := append([]string(nil), keys...)
	for _, arr := range arrays {
		for _, idx := range b.Fields().Indices(arr) {
			targets = append(targets, fmt.Sprintf("%s[%d]", arr, idx))
		}
	}

	var changes []Change
	for _, key := range targets {
		out, ch, err := Apply(doc, Edit{Class: class, ID: id, Key: key, Value: zero})
		if errors.Is(err, ErrFieldNotFound) {
			log.Debug().Str("unit", id).Str("key", key).Msg("Wear field absent, skipping")
			continue
		}
		if err != nil {
			return "", nil, err
		}
		doc = out
		if !ch.Noop() {
			changes = append(changes, ch)
		}
	}
	return doc, changes, nil
}
