package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"save-edit-tool/internal/editor"
	"save-edit-tool/internal/gamecfg"
	"save-edit-tool/internal/journal"
	"save-edit-tool/internal/savegame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gameDoc = `SiiNunit
{
economy : _nameless.e1 {
 bank: _nameless.b1
 player: _nameless.p1
 experience_points: 12500
 adr: 3
 heavy: 0
}
bank : _nameless.b1 {
 money_account: 250000
}
player : _nameless.p1 {
 my_truck: _nameless.v1
 my_trailer: _nameless.t1
}
vehicle : _nameless.v1 {
 odometer: 37619
 odometer_float_part: &3f000000
 fuel_relative: &3f400000
 engine_wear: &3e4ccccd
 wheels_wear: 2
 wheels_wear[0]: &00000000
 wheels_wear[1]: &3f000000
 license_plate: "ABC 123|de"
}
trailer : _nameless.t1 {
 cargo_mass: 18000
 trailer_body_wear: &3f000000
 chassis_wear: &00000000
 license_plate: "TR 1|de"
}
}
`

const infoDoc = `SiiNunit
{
save_container : _nameless.s1 {
 name: "Before the storm"
 info_money_account: 250000
 info_players_experience: 12500
}
}
`

type fixture struct {
	sess    *Session
	journal *journal.SQLite
	gameDir string
	profile string
	game    string
	info    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gameDir := t.TempDir()
	profile := filepath.Join(gameDir, "profiles", "4d79205472756b6572")
	save := filepath.Join(profile, "save", DefaultSave)
	require.NoError(t, os.MkdirAll(save, 0755))

	f := &fixture{
		gameDir: gameDir,
		profile: profile,
		game:    filepath.Join(save, "game.sii"),
		info:    filepath.Join(save, "info.sii"),
	}
	require.NoError(t, os.WriteFile(f.game, []byte(gameDoc), 0644))
	require.NoError(t, os.WriteFile(f.info, []byte(infoDoc), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(gameDir, "config.cfg"),
		[]byte("uset g_traffic \"1\"\nuset g_developer \"0\"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(profile, "config.cfg"),
		[]byte("uset g_simple_parking_doubles \"0\"\n"), 0644))

	j, err := journal.OpenSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	sess, err := New(Options{GameDir: gameDir, Journal: j, Write: editor.WriteOptions{Backup: true}})
	require.NoError(t, err)
	sess.SetProfile(profile)

	f.sess, f.journal = sess, j
	return f
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSaveDir(t *testing.T) {
	f := newFixture(t)

	dir, err := f.sess.SaveDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(f.game), dir)

	manual := filepath.Join(f.profile, "save", "3")
	require.NoError(t, os.MkdirAll(manual, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(manual, "info.sii"), []byte(infoDoc), 0644))

	f.sess.SetSave(filepath.Join(manual, "info.sii"))
	path, err := f.sess.GamePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(manual, "game.sii"), path)

	f.sess.SetSave(manual)
	path, err = f.sess.InfoPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(manual, "info.sii"), path)

	f.sess.SetProfile(f.profile)
	dir, err = f.sess.SaveDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(f.game), dir, "switching profile clears the save")
}

func TestNoProfile(t *testing.T) {
	sess, err := New(Options{})
	require.NoError(t, err)

	_, err = sess.ReadGame()
	assert.ErrorIs(t, err, ErrNoProfile)

	_, err = sess.ConfigPath(gamecfg.ScopeGlobal)
	assert.ErrorIs(t, err, ErrNoGameDir)
}

func TestReadGameIsCachedUntilInvalidated(t *testing.T) {
	f := newFixture(t)

	doc, err := f.sess.ReadGame()
	require.NoError(t, err)
	assert.Equal(t, gameDoc, doc)

	require.NoError(t, os.WriteFile(f.game, []byte("SiiNunit\n{\n}\n"), 0644))
	doc, err = f.sess.ReadGame()
	require.NoError(t, err)
	assert.Equal(t, gameDoc, doc, "served from cache")
	assert.Equal(t, 1, f.sess.CacheStats().Hits)

	f.sess.Invalidate(f.game)
	doc, err = f.sess.ReadGame()
	require.NoError(t, err)
	assert.Equal(t, "SiiNunit\n{\n}\n", doc)
}

func TestSetPlateKeepsCountryAndJournals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Warm the cache so the edit has something to invalidate.
	_, err := f.sess.ReadGame()
	require.NoError(t, err)

	changes, err := f.sess.SetPlate(ctx, Trailer, "NEW 42")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, `"NEW 42|de"`, changes[0].New)

	doc, err := f.sess.ReadGame()
	require.NoError(t, err)
	assert.Contains(t, doc, ` license_plate: "NEW 42|de"`)
	assert.Contains(t, doc, ` license_plate: "ABC 123|de"`, "truck plate untouched")
	assert.Equal(t, strings.Replace(gameDoc, `"TR 1|de"`, `"NEW 42|de"`, 1), read(t, f.game))
	assert.Equal(t, gameDoc, read(t, editor.BackupPath(f.game)))

	entries, err := f.journal.List(ctx, f.game, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "trailer", entries[0].Class)
	assert.Equal(t, "_nameless.t1", entries[0].Unit)
	assert.Equal(t, `"TR 1|de"`, entries[0].Old)
}

func TestEditKeepsBytesOutsideTheField(t *testing.T) {
	f := newFixture(t)
	raw := "\xef\xbb\xbf" + strings.Replace(gameDoc, `"ABC 123|de"`, "\"M\xfcller 1|de\"", 1)
	require.NoError(t, os.WriteFile(f.game, []byte(raw), 0644))

	ch, err := f.sess.EditUnitField(context.Background(), "vehicle", "_nameless.v1", "odometer", "250")
	require.NoError(t, err)
	assert.Equal(t, "37619", ch.Old)

	want := strings.Replace(raw, "odometer: 37619", "odometer: 250", 1)
	assert.Equal(t, []byte(want), []byte(read(t, f.game)))
}

func TestRepairTruckIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	changes, err := f.sess.Repair(ctx, Truck)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "engine_wear", changes[0].Key)
	assert.Equal(t, "wheels_wear[1]", changes[1].Key)

	after := read(t, f.game)
	changes, err = f.sess.Repair(ctx, Truck)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, after, read(t, f.game))

	truck, ok, err := savegame.PlayerTruck(after)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, truck.EngineWear)
	assert.Equal(t, []float32{0, 0}, truck.WheelsWear)
}

func TestVehicleEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sess.Refuel(ctx)
	require.NoError(t, err)
	_, err = f.sess.SetOdometer(ctx, Truck, 5000)
	require.NoError(t, err)
	_, err = f.sess.SetWear(ctx, Truck, "wheels_wear", 0.25)
	require.NoError(t, err)
	_, err = f.sess.SetCargoMass(ctx, 9500)
	require.NoError(t, err)

	doc := read(t, f.game)
	assert.Contains(t, doc, " fuel_relative: &3f800000\n")
	assert.Contains(t, doc, " odometer: 5000\n odometer_float_part: &00000000\n")
	assert.Contains(t, doc, " wheels_wear[0]: &3e800000\n wheels_wear[1]: &3e800000\n")
	assert.Contains(t, doc, " cargo_mass: &46147000\n")

	_, err = f.sess.SetFuel(ctx, 1.5)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = f.sess.SetWear(ctx, Trailer, "engine_wear", 0)
	assert.ErrorIs(t, err, ErrUnknownWear)
	_, err = f.sess.EditUnitField(ctx, "vehicle", "_nameless.v1", "no_such_field", "1")
	assert.ErrorIs(t, err, editor.ErrFieldNotFound)
}

func TestWheelsWearWithoutWheels(t *testing.T) {
	f := newFixture(t)

	changes, err := f.sess.SetWear(context.Background(), Trailer, "wheels_wear", 0)
	assert.ErrorIs(t, err, editor.ErrFieldNotFound)
	assert.Empty(t, changes)
	assert.Equal(t, gameDoc, read(t, f.game))
}

func TestNullTrailer(t *testing.T) {
	f := newFixture(t)
	_, err := f.sess.EditUnitField(context.Background(), "player", "_nameless.p1", "my_trailer", "null")
	require.NoError(t, err)

	_, err = f.sess.Repair(context.Background(), Trailer)
	assert.ErrorIs(t, err, ErrNoVehicle)
}

func TestMoneyAndExperienceMirrorInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	changes, err := f.sess.SetMoney(ctx, 1000000)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "money_account", changes[0].Key)
	assert.Equal(t, "info_money_account", changes[1].Key)

	_, err = f.sess.SetExperience(ctx, 99000)
	require.NoError(t, err)

	econ, err := savegame.ReadEconomy(read(t, f.game))
	require.NoError(t, err)
	assert.EqualValues(t, 1000000, econ.Money)
	assert.EqualValues(t, 99000, econ.Experience)

	info := savegame.ReadSaveInfo(read(t, f.info))
	assert.EqualValues(t, 1000000, info.Money)
	assert.EqualValues(t, 99000, info.Experience)
	assert.Equal(t, "Before the storm", info.Name)

	require.NoError(t, os.Remove(f.info))
	changes, err = f.sess.SetMoney(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, changes, 1, "missing info.sii is skipped")
}

func TestSetSkill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sess.SetSkill(ctx, "adr", 63)
	require.NoError(t, err)
	assert.Contains(t, read(t, f.game), " adr: 63\n")

	_, err = f.sess.SetSkill(ctx, "driving", 1)
	assert.ErrorIs(t, err, ErrUnknownSkill)
	_, err = f.sess.SetSkill(ctx, "heavy", -1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestApplySetting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	change, err := f.sess.ApplySetting(ctx, "traffic", "15")
	require.NoError(t, err)
	assert.Equal(t, "1", change.Old)
	assert.Equal(t, "10", change.New)
	assert.Equal(t, "uset g_traffic \"10\"\nuset g_developer \"0\"\n", read(t, filepath.Join(f.gameDir, "config.cfg")))

	_, value, err := f.sess.ReadSetting("g_traffic")
	require.NoError(t, err)
	assert.Equal(t, "10", value)

	_, err = f.sess.ApplySetting(ctx, "parking_doubles", "1")
	require.NoError(t, err)
	assert.Contains(t, read(t, filepath.Join(f.profile, "config.cfg")), `uset g_simple_parking_doubles "1"`)

	_, err = f.sess.ApplySetting(ctx, "max_convoy_size", "8")
	assert.ErrorIs(t, err, gamecfg.ErrKeyNotFound)
	_, err = f.sess.ApplySetting(ctx, "gravity", "1")
	assert.ErrorIs(t, err, gamecfg.ErrUnknownSetting)
}

func TestWatchInvalidates(t *testing.T) {
	f := newFixture(t)
	_, err := f.sess.ReadGame()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan string, 16)
	done := make(chan error, 1)
	go func() { done <- f.sess.Watch(ctx, func(path string) { changed <- path }) }()

	// The watcher registers asynchronously; keep touching the file until it reports.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	var got string
wait:
	for {
		select {
		case got = <-changed:
			break wait
		case <-tick.C:
			require.NoError(t, os.WriteFile(f.game, []byte("SiiNunit\n{\n}\n"), 0644))
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
	assert.Equal(t, "game.sii", filepath.Base(got))

	doc, err := f.sess.ReadGame()
	require.NoError(t, err)
	assert.Equal(t, "SiiNunit\n{\n}\n", doc)

	cancel()
	assert.NoError(t, <-done)
}

func TestApplyEditsIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sess.ApplyEdits(ctx, []editor.Edit{
		{Class: "economy", ID: "_nameless.e1", Key: "heavy", Value: "6"},
		{Class: "economy", ID: "_nameless.e1", Key: "missing", Value: "1"},
	})
	assert.ErrorIs(t, err, editor.ErrFieldNotFound)
	assert.Equal(t, gameDoc, read(t, f.game))

	changes, err := f.sess.ApplyEdits(ctx, []editor.Edit{
		{Class: "economy", ID: "_nameless.e1", Key: "heavy", Value: "6"},
		{Class: "bank", ID: "_nameless.b1", Key: "money_account", Value: "7"},
	})
	require.NoError(t, err)
	assert.Len(t, changes, 2)
	assert.Contains(t, read(t, f.game), " heavy: 6\n")
}
