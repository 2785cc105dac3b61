package savegame

import (
	"save-edit-tool/internal/sii"
)

// SkillKeys are the economy fields holding the player's skill levels.
var SkillKeys = []string{"adr", "long_dist", "heavy", "fragile", "urgent", "mechanical"}

// Economy summarizes the player's progress from game.sii.
type Economy struct {
	ID            string           `json:"economy_id"`
	PlayerID      string           `json:"player_id,omitempty"`
	BankID        string           `json:"bank_id,omitempty"`
	Money         int64            `json:"money"`
	Experience    int64            `json:"experience"`
	Skills        map[string]int64 `json:"skills"`
	Garages       int              `json:"garages"`
	TrucksOwned   int              `json:"trucks_owned"`
	TrailersOwned int              `json:"trailers_owned"`
}

// ReadEconomy collects money, experience, skills and ownership counts.
func ReadEconomy(doc string) (Economy, error) {
	econ, ok := EconomyBlock(doc)
	if !ok {
		return Economy{}, ErrNoEconomy
	}

	f := econ.Fields()
	e := Economy{
		ID:      econ.ID,
		Skills:  make(map[string]int64, len(SkillKeys)),
		Garages: len(f.Indices("garages")),
	}
	e.PlayerID, _ = f.Ref("player")
	e.BankID, _ = f.Ref("bank")
	e.Experience, _ = f.Int64("experience_points")
	for _, k := range SkillKeys {
		if v, ok := f.Int64(k); ok {
			e.Skills[k] = v
		}
	}

	if e.BankID != "" {
		if b, err := sii.FindBlock(doc, "bank", e.BankID); err == nil {
			e.Money, _ = b.Fields().Int64("money_account")
		}
	}
	if e.PlayerID != "" {
		if p, err := sii.FindBlock(doc, "player", e.PlayerID); err == nil {
			e.TrucksOwned = len(p.Fields().Indices("trucks"))
			e.TrailersOwned = len(p.Fields().Indices("trailers"))
		}
	}
	return e, nil
}

// SaveInfo is the summary the game keeps in info.sii.
type SaveInfo struct {
	Name          string `json:"name"`
	Money         int64  `json:"money"`
	Experience    int64  `json:"experience"`
	Recruitments  int64  `json:"unlocked_recruitments"`
	Dealers       int64  `json:"unlocked_dealers"`
	VisitedCities int64  `json:"visited_cities"`
	FileTime      int64  `json:"file_time"`
}

// ReadSaveInfo reads the save_container unit of an info.sii document.
func ReadSaveInfo(doc string) SaveInfo {
	f := infoFields(doc)
	var s SaveInfo
	s.Name, _ = f.String("name")
	s.Money, _ = f.Int64("info_money_account")
	s.Experience, _ = f.Int64("info_players_experience")
	s.Recruitments, _ = f.Int64("info_unlocked_recruitments")
	s.Dealers, _ = f.Int64("info_unlocked_dealers")
	s.VisitedCities, _ = f.Int64("info_visited_cities")
	s.FileTime, _ = f.Int64("file_time")
	return s
}

// InfoUnit returns the save_container unit of an info.sii document.
func InfoUnit(doc string) (sii.Block, bool) {
	blocks := sii.Blocks(doc, "save_container")
	if len(blocks) == 0 {
		return sii.Block{}, false
	}
	return blocks[0], true
}

func infoFields(doc string) sii.Fields {
	if b, ok := InfoUnit(doc); ok {
		return b.Fields()
	}
	return sii.NewFields(doc)
}

// ProfileName reads profile_name from a profile.sii document.
func ProfileName(doc string) (string, bool) {
	if blocks := sii.Blocks(doc, "user_profile"); len(blocks) > 0 {
		if name, ok := blocks[0].Fields().String("profile_name"); ok && name != "" {
			return name, true
		}
	}
	name, ok := sii.NewFields(doc).String("profile_name")
	return name, ok && name != ""
}
