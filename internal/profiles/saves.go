package profiles

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"save-edit-tool/internal/decrypt"
	"save-edit-tool/internal/savegame"
)

// SaveKind classifies a save slot folder.
type SaveKind string

const (
	SaveAutosave SaveKind = "autosave"
	SaveManual   SaveKind = "manual"
	SaveInvalid  SaveKind = "invalid"
)

// Save file names inside a slot folder.
const (
	GameFile = "game.sii"
	InfoFile = "info.sii"
)

// Save is one slot folder under <profile>/save.
type Save struct {
	Path    string   `json:"path"`
	Folder  string   `json:"folder"`
	Name    string   `json:"name,omitempty"`
	Kind    SaveKind `json:"kind"`
	Message string   `json:"message,omitempty"`
}

// ClassifySaveFolder maps quicksave and autosave to autosaves and all-digit
// names to manual saves.
func ClassifySaveFolder(folder string) SaveKind {
	switch strings.ToLower(folder) {
	case "quicksave", "autosave":
		return SaveAutosave
	}
	if folder == "" {
		return SaveInvalid
	}
	for _, r := range folder {
		if r < '0' || r > '9' {
			return SaveInvalid
		}
	}
	return SaveManual
}

// ListSaves returns the recognised save slots of a profile. A slot whose
// info.sii is missing or unnamed is returned as invalid with a message.
func ListSaves(profileDir string) ([]Save, error) {
	root := filepath.Join(profileDir, "save")
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read save dir: %w", err)
	}

	var saves []Save
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		kind := ClassifySaveFolder(e.Name())
		if kind == SaveInvalid {
			continue
		}

		s := Save{Path: filepath.Join(root, e.Name()), Folder: e.Name(), Kind: kind}
		text, err := decrypt.ReadText(filepath.Join(s.Path, InfoFile))
		if err != nil {
			s.Kind, s.Message = SaveInvalid, "info.sii missing"
		} else if s.Name = savegame.ReadSaveInfo(text).Name; s.Name == "" {
			s.Kind, s.Message = SaveInvalid, "no save name"
		}
		saves = append(saves, s)
	}
	return saves, nil
}
