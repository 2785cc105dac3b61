package savegame

import (
	"regexp"

	"save-edit-tool/internal/sii"
)

var brandModelRe = regexp.MustCompile(`(?i)/(?:truck|trailer_owned)/([a-z0-9_]+)\.([a-z0-9_]+)/`)

// UnitRecord is one unit of a class joined with its accessory data.
type UnitRecord struct {
	Class       string
	ID          string
	Brand       string
	Model       string
	Accessories []string
	Block       sii.Block
}

// Fields is a shortcut for the record's body extractor.
func (u UnitRecord) Fields() sii.Fields { return u.Block.Fields() }

// ParseUnits returns one record per unit of class. Brand and model come from
// the first accessory whose data_path names a truck.
func ParseUnits(doc, class string) []UnitRecord {
	blocks := sii.Blocks(doc, class)
	if len(blocks) == 0 {
		return nil
	}

	paths := accessoryPaths(doc)
	records := make([]UnitRecord, 0, len(blocks))
	for _, b := range blocks {
		records = append(records, newRecord(b, paths))
	}
	return records
}

// FindUnit returns the record for one unit.
func FindUnit(doc, class, id string) (UnitRecord, error) {
	b, err := sii.FindBlock(doc, class, id)
	if err != nil {
		return UnitRecord{}, err
	}
	return newRecord(b, accessoryPaths(doc)), nil
}

func newRecord(b sii.Block, paths map[string]string) UnitRecord {
	r := UnitRecord{
		Class:       b.Class,
		ID:          b.ID,
		Accessories: b.Fields().TokenArray("accessories"),
		Block:       b,
	}
	for _, acc := range r.Accessories {
		m := brandModelRe.FindStringSubmatch(paths[acc])
		if m == nil {
			continue
		}
		r.Brand, r.Model = m[1], m[2]
		break
	}
	return r
}

// accessoryPaths maps vehicle_accessory ids to their data_path.
func accessoryPaths(doc string) map[string]string {
	out := make(map[string]string)
	for _, b := range sii.Blocks(doc, "vehicle_accessory") {
		if p, ok := b.Fields().String("data_path"); ok {
			out[b.ID] = p
		}
	}
	return out
}
