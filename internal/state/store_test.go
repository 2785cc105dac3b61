package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"save-edit-tool/internal/profiles"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSelectionRoundTrip(t *testing.T) {
	s, _ := openStore(t)

	empty, err := s.Selection()
	require.NoError(t, err)
	assert.Equal(t, Selection{}, empty)

	sel := Selection{Game: "ets2", Profile: "/p/1", Save: "/p/1/save/quicksave"}
	require.NoError(t, s.SetSelection(sel))

	got, err := s.Selection()
	require.NoError(t, err)
	assert.Equal(t, sel, got)

	require.NoError(t, s.SetSelection(Selection{Game: "ats", Profile: "/p/2"}))
	got, err = s.Selection()
	require.NoError(t, err)
	assert.Equal(t, Selection{Game: "ats", Profile: "/p/2"}, got, "save cleared")
}

func TestSelectionSurvivesReopen(t *testing.T) {
	s, path := openStore(t)
	require.NoError(t, s.SetSelection(Selection{Game: "ets2", Profile: "/p/1"}))
	require.NoError(t, s.Close())

	again, err := Open(path)
	require.NoError(t, err)
	defer again.Close()

	got, err := again.Selection()
	require.NoError(t, err)
	assert.Equal(t, "/p/1", got.Profile)
}

func TestProfiles(t *testing.T) {
	s, _ := openStore(t)

	none, err := s.Profiles("ets2")
	require.NoError(t, err)
	assert.Nil(t, none)

	list := []profiles.Profile{
		{Path: "/p/1", Folder: "1", Name: "Hauler", Source: profiles.SourceProfiles, Success: true},
	}
	require.NoError(t, s.PutProfiles("ets2", list))

	got, err := s.Profiles("ets2")
	require.NoError(t, err)
	assert.Equal(t, list, got)

	other, err := s.Profiles("ats")
	require.NoError(t, err)
	assert.Empty(t, other)
}
