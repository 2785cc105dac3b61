package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"

	"save-edit-tool/internal/decrypt"
	"save-edit-tool/internal/editor"
	"save-edit-tool/internal/hexfloat"
	"save-edit-tool/internal/journal"
	"save-edit-tool/internal/savegame"
	"save-edit-tool/internal/sii"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNoVehicle is returned when the player has no truck or trailer attached.
	ErrNoVehicle = errors.New("player has no such vehicle")
	// ErrOutOfRange is returned for values the game would not accept.
	ErrOutOfRange = errors.New("value out of range")
	// ErrUnknownSkill is returned for skill names the economy unit does not carry.
	ErrUnknownSkill = errors.New("unknown skill")
	// ErrUnknownWear is returned for wear keys the vehicle class does not carry.
	ErrUnknownWear = errors.New("unknown wear attribute")
)

// Vehicle selects the player's truck or trailer.
type Vehicle int

const (
	Truck Vehicle = iota
	Trailer
)

func (v Vehicle) String() string {
	if v == Trailer {
		return "trailer"
	}
	return "truck"
}

// Class is the SII unit class of the vehicle.
func (v Vehicle) Class() string {
	if v == Trailer {
		return "trailer"
	}
	return "vehicle"
}

func (v Vehicle) wearKeys() []string {
	if v == Trailer {
		return editor.TrailerWearKeys
	}
	return editor.TruckWearKeys
}

// mutation transforms a document and reports the splices it made.
type mutation func(doc string) (string, []editor.Change, error)

// editFile runs fn against the fresh content of path, writes the result and
// invalidates the cache. Plaintext is edited as raw bytes so nothing outside
// the splices changes. Nothing is written when every change is a no-op.
func (s *Session) editFile(ctx context.Context, path string, fn mutation) ([]editor.Change, error) {
	before, prefix, err := decrypt.ReadForEdit(path)
	if err != nil {
		return nil, err
	}

	after, changes, err := fn(before)
	if err != nil {
		return nil, err
	}

	changes = slices.DeleteFunc(changes, editor.Change.Noop)
	if len(changes) == 0 {
		log.Debug().Str("file", path).Msg("No changes to write")
		return nil, nil
	}

	if err := editor.WriteDocument(path, prefix+after, s.write); err != nil {
		return nil, err
	}
	s.docs.Invalidate(path)

	if err := s.journal.Record(ctx, journal.Entries(path, before, after, changes)...); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Failed to record edit")
	}
	log.Info().Str("file", path).Int("changes", len(changes)).Msg("Document updated")
	return changes, nil
}

func (s *Session) editGame(ctx context.Context, fn mutation) ([]editor.Change, error) {
	path, err := s.GamePath()
	if err != nil {
		return nil, err
	}
	return s.editFile(ctx, path, fn)
}

// EditUnitField sets one attribute of any unit in game.sii.
func (s *Session) EditUnitField(ctx context.Context, class, id, key, value string) (editor.Change, error) {
	var applied editor.Change
	changes, err := s.editGame(ctx, func(doc string) (string, []editor.Change, error) {
		out, ch, err := editor.Apply(doc, editor.Edit{Class: class, ID: id, Key: key, Value: value})
		if err != nil {
			return "", nil, err
		}
		applied = ch
		return out, []editor.Change{ch}, nil
	})
	if err != nil {
		return editor.Change{}, err
	}
	if len(changes) == 0 {
		return applied, nil
	}
	return changes[0], nil
}

// ApplyEdits applies a batch of edits to game.sii as one write. Nothing is
// written if any edit fails.
func (s *Session) ApplyEdits(ctx context.Context, edits []editor.Edit) ([]editor.Change, error) {
	return s.editGame(ctx, func(doc string) (string, []editor.Change, error) {
		return editor.ApplyAll(doc, edits)
	})
}

func playerVehicleID(doc string, v Vehicle) (string, error) {
	pv, err := savegame.ResolvePlayerVehicles(doc)
	if err != nil {
		return "", err
	}
	id := pv.TruckID
	if v == Trailer {
		id = pv.TrailerID
	}
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrNoVehicle, v)
	}
	return id, nil
}

// editVehicle applies edits to the player's truck or trailer. Keys in
// optional are skipped when the unit does not carry them.
func (s *Session) editVehicle(ctx context.Context, v Vehicle, edits map[string]string, order []string, optional ...string) ([]editor.Change, error) {
	return s.editGame(ctx, func(doc string) (string, []editor.Change, error) {
		id, err := playerVehicleID(doc, v)
		if err != nil {
			return "", nil, err
		}

		var changes []editor.Change
		for _, key := range order {
			out, ch, err := editor.Apply(doc, editor.Edit{Class: v.Class(), ID: id, Key: key, Value: edits[key]})
			if errors.Is(err, editor.ErrFieldNotFound) && slices.Contains(optional, key) {
				continue
			}
			if err != nil {
				return "", nil, err
			}
			doc = out
			changes = append(changes, ch)
		}
		return doc, changes, nil
	})
}

func (s *Session) setVehicleField(ctx context.Context, v Vehicle, key, value string) ([]editor.Change, error) {
	return s.editVehicle(ctx, v, map[string]string{key: value}, []string{key})
}

// SetPlate changes the license plate. An existing "|country" suffix is kept
// unless plate carries its own.
func (s *Session) SetPlate(ctx context.Context, v Vehicle, plate string) ([]editor.Change, error) {
	return s.setVehicleField(ctx, v, editor.PlateKey, plate)
}

// SetOdometer sets the whole-kilometre odometer and clears its fractional part.
func (s *Session) SetOdometer(ctx context.Context, v Vehicle, km int64) ([]editor.Change, error) {
	if km < 0 {
		return nil, fmt.Errorf("%w: odometer %d", ErrOutOfRange, km)
	}
	edits := map[string]string{
		"odometer":            strconv.FormatInt(km, 10),
		"odometer_float_part": hexfloat.FloatToHex(0),
	}
	return s.editVehicle(ctx, v, edits, []string{"odometer", "odometer_float_part"}, "odometer_float_part")
}

// SetFuel sets the truck's tank level, 0..1.
func (s *Session) SetFuel(ctx context.Context, level float32) ([]editor.Change, error) {
	if level < 0 || level > 1 {
		return nil, fmt.Errorf("%w: fuel %v", ErrOutOfRange, level)
	}
	return s.setVehicleField(ctx, Truck, "fuel_relative", hexfloat.FloatToHex(level))
}

// Refuel fills the truck's tank.
func (s *Session) Refuel(ctx context.Context) ([]editor.Change, error) {
	return s.SetFuel(ctx, 1)
}

// SetWear sets one wear attribute, 0..1. "wheels_wear" sets every wheel.
func (s *Session) SetWear(ctx context.Context, v Vehicle, key string, level float32) ([]editor.Change, error) {
	if level < 0 || level > 1 {
		return nil, fmt.Errorf("%w: wear %v", ErrOutOfRange, level)
	}
	value := hexfloat.FloatToHex(level)

	if key != editor.WheelsWearKey {
		if !slices.Contains(v.wearKeys(), key) {
			return nil, fmt.Errorf("%w: %s on %s", ErrUnknownWear, key, v)
		}
		return s.setVehicleField(ctx, v, key, value)
	}

	return s.editGame(ctx, func(doc string) (string, []editor.Change, error) {
		id, err := playerVehicleID(doc, v)
		if err != nil {
			return "", nil, err
		}
		b, err := sii.FindBlock(doc, v.Class(), id)
		if err != nil {
			return "", nil, err
		}
		wheels := b.Fields().Indices(editor.WheelsWearKey)
		if len(wheels) == 0 {
			return "", nil, fmt.Errorf("%w: %s[] in %s : %s", editor.ErrFieldNotFound, editor.WheelsWearKey, v.Class(), id)
		}
		var edits []editor.Edit
		for _, idx := range wheels {
			key := fmt.Sprintf("%s[%d]", editor.WheelsWearKey, idx)
			edits = append(edits, editor.Edit{Class: v.Class(), ID: id, Key: key, Value: value})
		}
		return editor.ApplyAll(doc, edits)
	})
}

// SetCargoMass sets the trailer's cargo mass in kilograms.
func (s *Session) SetCargoMass(ctx context.Context, mass float32) ([]editor.Change, error) {
	if mass < 0 {
		return nil, fmt.Errorf("%w: cargo mass %v", ErrOutOfRange, mass)
	}
	return s.setVehicleField(ctx, Trailer, "cargo_mass", hexfloat.FloatToHex(mass))
}

// Repair zeroes every wear attribute of the player's truck or trailer.
func (s *Session) Repair(ctx context.Context, v Vehicle) ([]editor.Change, error) {
	return s.editGame(ctx, func(doc string) (string, []editor.Change, error) {
		id, err := playerVehicleID(doc, v)
		if err != nil {
			return "", nil, err
		}
		if v == Trailer {
			return editor.RepairTrailer(doc, id)
		}
		return editor.RepairTruck(doc, id)
	})
}

// SetMoney sets the bank balance, mirroring it into info.sii when present.
func (s *Session) SetMoney(ctx context.Context, amount int64) ([]editor.Change, error) {
	value := strconv.FormatInt(amount, 10)
	changes, err := s.editGame(ctx, func(doc string) (string, []editor.Change, error) {
		bank, ok := savegame.BankID(doc)
		if !ok {
			return "", nil, fmt.Errorf("%w: no bank reference", savegame.ErrNoEconomy)
		}
		out, ch, err := editor.Apply(doc, editor.Edit{Class: "bank", ID: bank, Key: "money_account", Value: value})
		if err != nil {
			return "", nil, err
		}
		return out, []editor.Change{ch}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.mirrorInfo(ctx, changes, "info_money_account", value)
}

// SetExperience sets the player's experience points, mirroring them into
// info.sii when present.
func (s *Session) SetExperience(ctx context.Context, xp int64) ([]editor.Change, error) {
	if xp < 0 {
		return nil, fmt.Errorf("%w: experience %d", ErrOutOfRange, xp)
	}
	value := strconv.FormatInt(xp, 10)
	changes, err := s.editEconomy(ctx, "experience_points", value)
	if err != nil {
		return nil, err
	}
	return s.mirrorInfo(ctx, changes, "info_players_experience", value)
}

// SetSkill sets one skill level on the economy unit.
func (s *Session) SetSkill(ctx context.Context, skill string, level int64) ([]editor.Change, error) {
	if !slices.Contains(savegame.SkillKeys, skill) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSkill, skill)
	}
	if level < 0 {
		return nil, fmt.Errorf("%w: %s %d", ErrOutOfRange, skill, level)
	}
	return s.editEconomy(ctx, skill, strconv.FormatInt(level, 10))
}

func (s *Session) editEconomy(ctx context.Context, key, value string) ([]editor.Change, error) {
	return s.editGame(ctx, func(doc string) (string, []editor.Change, error) {
		econ, ok := savegame.EconomyBlock(doc)
		if !ok {
			return "", nil, savegame.ErrNoEconomy
		}
		out, ch, err := editor.Apply(doc, editor.Edit{Class: econ.Class, ID: econ.ID, Key: key, Value: value})
		if err != nil {
			return "", nil, err
		}
		return out, []editor.Change{ch}, nil
	})
}

// mirrorInfo copies an economy value into the info.sii summary. A missing
// file or field is not an error.
func (s *Session) mirrorInfo(ctx context.Context, changes []editor.Change, key, value string) ([]editor.Change, error) {
	path, err := s.InfoPath()
	if err != nil {
		return changes, nil
	}

	more, err := s.editFile(ctx, path, func(doc string) (string, []editor.Change, error) {
		unit, ok := savegame.InfoUnit(doc)
		if !ok {
			return doc, nil, nil
		}
		out, ch, err := editor.Apply(doc, editor.Edit{Class: unit.Class, ID: unit.ID, Key: key, Value: value})
		if errors.Is(err, editor.ErrFieldNotFound) {
			return doc, nil, nil
		}
		if err != nil {
			return "", nil, err
		}
		return out, []editor.Change{ch}, nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("file", path).Msg("No info.sii to mirror into")
		return changes, nil
	}
	if err != nil {
		return changes, err
	}
	return append(changes, more...), nil
}
