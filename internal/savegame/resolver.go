package savegame

import (
	"errors"
	"fmt"

	"save-edit-tool/internal/sii"
)

var (
	// ErrNoEconomy is returned when a document has no economy unit.
	ErrNoEconomy = errors.New("economy unit not found")
	// ErrNoPlayer is returned when the player reference or unit is missing.
	// Everything vehicle related depends on it.
	ErrNoPlayer = errors.New("player not found")
)

// PlayerVehicles is the player's current truck and trailer. An empty ID
// means nothing is attached.
type PlayerVehicles struct {
	PlayerID  string `json:"player_id"`
	TruckID   string `json:"truck_id,omitempty"`
	TrailerID string `json:"trailer_id,omitempty"`
}

// EconomyBlock returns the first economy unit.
func EconomyBlock(doc string) (sii.Block, bool) {
	blocks := sii.Blocks(doc, "economy")
	if len(blocks) == 0 {
		return sii.Block{}, false
	}
	return blocks[0], true
}

// PlayerID reads the economy unit's player reference.
func PlayerID(doc string) (string, bool) {
	econ, ok := EconomyBlock(doc)
	if !ok {
		return "", false
	}
	return econ.Fields().Ref("player")
}

// BankID reads the economy unit's bank reference.
func BankID(doc string) (string, bool) {
	econ, ok := EconomyBlock(doc)
	if !ok {
		return "", false
	}
	return econ.Fields().Ref("bank")
}

// VehicleIDs reads my_truck and my_trailer from the player unit. A "null"
// reference is reported as an empty ID, not an error.
func VehicleIDs(doc, playerID string) (PlayerVehicles, error) {
	b, err := sii.FindBlock(doc, "player", playerID)
	if err != nil {
		return PlayerVehicles{}, fmt.Errorf("%w: %v", ErrNoPlayer, err)
	}

	f := b.Fields()
	pv := PlayerVehicles{PlayerID: playerID}
	pv.TruckID, _ = f.Ref("my_truck")
	pv.TrailerID, _ = f.Ref("my_trailer")
	return pv, nil
}

// ResolvePlayerVehicles follows economy -> player -> truck/trailer.
func ResolvePlayerVehicles(doc string) (PlayerVehicles, error) {
	id, ok := PlayerID(doc)
	if !ok {
		return PlayerVehicles{}, ErrNoPlayer
	}
	return VehicleIDs(doc, id)
}
