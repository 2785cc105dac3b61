package savegame

import (
	"strings"

	"save-edit-tool/internal/sii"
)

// DefaultGraphClasses are the unit classes worth following in a save.
var DefaultGraphClasses = []string{
	"economy", "player", "bank", "vehicle", "trailer", "trailer_def",
	"garage", "vehicle_accessory", "job_info",
}

// Unit is a node of the reference graph.
type Unit struct {
	Class string `json:"class"`
	ID    string `json:"id"`
}

// Ref is a field of one unit naming another unit.
type Ref struct {
	From string `json:"from"`
	To   string `json:"to"`
	Key  string `json:"key"`
}

// RefGraph is the set of units and the id references between them.
type RefGraph struct {
	Units []Unit `json:"units"`
	Refs  []Ref  `json:"refs"`
}

// BuildReferenceGraph collects units of the given classes (all classes when
// none are given) and every field whose value is the id of another
// collected unit.
func BuildReferenceGraph(doc string, classes ...string) RefGraph {
	var blocks []sii.Block
	if len(classes) == 0 {
		blocks = sii.AllBlocks(doc)
	} else {
		for _, c := range classes {
			blocks = append(blocks, sii.Blocks(doc, c)...)
		}
	}

	var g RefGraph
	ids := make(map[string]bool, len(blocks))
	uniq := blocks[:0]
	for _, b := range blocks {
		if ids[b.ID] {
			continue
		}
		ids[b.ID] = true
		uniq = append(uniq, b)
		g.Units = append(g.Units, Unit{Class: b.Class, ID: b.ID})
	}

	for _, b := range uniq {
		b.Fields().Each(func(m sii.Match) {
			if m.Quoted || m.Raw == sii.NullRef || m.Raw == b.ID || !ids[m.Raw] {
				return
			}
			g.Refs = append(g.Refs, Ref{From: b.ID, To: m.Raw, Key: baseKey(m.Key)})
		})
	}
	return g
}

// baseKey strips an array index: "trucks[3]" -> "trucks".
func baseKey(key string) string {
	if i := strings.IndexByte(key, '['); i >= 0 {
		return key[:i]
	}
	return key
}
