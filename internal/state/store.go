package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"save-edit-tool/internal/profiles"

	bbolt "go.etcd.io/bbolt"
)

var (
	bucketSelection = []byte("selection")
	bucketProfiles  = []byte("profiles")

	keyGame    = []byte("game")
	keyProfile = []byte("profile")
	keySave    = []byte("save")
)

// Selection is the remembered game, profile and save between runs.
type Selection struct {
	Game    string `json:"game"`
	Profile string `json:"profile"`
	Save    string `json:"save"`
}

// Store persists the selection and the last profile scan in a bbolt file.
type Store struct {
	bolt *bbolt.DB
}

// Open opens or creates the state database and its buckets.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("state: create dir: %w", err)
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("state: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketSelection, bucketProfiles} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("state: create buckets: %w", err)
	}

	return &Store{bolt: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.bolt != nil {
		return s.bolt.Close()
	}
	return nil
}

// Selection returns the stored selection; fields never set are empty.
func (s *Store) Selection() (Selection, error) {
	var sel Selection
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSelection)
		sel.Game = string(b.Get(keyGame))
		sel.Profile = string(b.Get(keyProfile))
		sel.Save = string(b.Get(keySave))
		return nil
	})
	if err != nil {
		return Selection{}, fmt.Errorf("state: read selection: %w", err)
	}
	return sel, nil
}

// SetSelection replaces the stored selection in one transaction.
func (s *Store) SetSelection(sel Selection) error {
	err := s.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSelection)
		for _, kv := range []struct {
			key   []byte
			value string
		}{
			{keyGame, sel.Game},
			{keyProfile, sel.Profile},
			{keySave, sel.Save},
		} {
			if kv.value == "" {
				if err := b.Delete(kv.key); err != nil {
					return err
				}
				continue
			}
			if err := b.Put(kv.key, []byte(kv.value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("state: write selection: %w", err)
	}
	return nil
}

// PutProfiles stores the result of a profile scan for a game.
func (s *Store) PutProfiles(game string, list []profiles.Profile) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("state: encode profiles: %w", err)
	}
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProfiles).Put([]byte(game), data)
	})
}

// Profiles returns the last stored scan for a game, or nil if none.
func (s *Store) Profiles(game string) ([]profiles.Profile, error) {
	var list []profiles.Profile
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketProfiles).Get([]byte(game))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &list)
	})
	if err != nil {
		return nil, fmt.Errorf("state: read profiles: %w", err)
	}
	return list, nil
}
