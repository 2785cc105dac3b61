package savegame

import (
	"testing"

	"github.com/google/go-cmp/cmp"
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
 long_dist: 2
 heavy: 0
 fragile: 1
 urgent: 6
 mechanical: 4
 garages: 2
 garages[0]: garage.berlin
 garages[1]: garage.praha
}
bank : _nameless.b1 {
 money_account: 250000
 info_money_account: 1
}
player : _nameless.p1 {
 my_truck: _nameless.v1
 my_trailer: _nameless.t1
 trucks: 2
 trucks[0]: _nameless.v1
 trucks[1]: _nameless.v2
 trailers: 1
 trailers[0]: _nameless.t1
}
vehicle_accessory : _nameless.a1 {
 data_path: "/def/vehicle/truck/volvo.fh16_2012/engine/d16g750.sii"
}
vehicle_accessory : _nameless.a2 {
 data_path: "/def/vehicle/truck/scania.r/chassis/4x2.sii"
}
vehicle : _nameless.v1 {
 accessories: 2
 accessories[0]: _nameless.x9
 accessories[1]: _nameless.a1
 odometer: 37619
 odometer_float_part: &3f000000
 integrity_odometer: 100
 fuel_relative: &3f400000
 trip_fuel_l: 1128
 trip_fuel: &3f000000
 trip_distance_km: 50
 trip_distance: &3e800000
 trip_time_min: 30
 trip_time: 0
 engine_wear: &3e4ccccd
 wheels_wear: 2
 wheels_wear[0]: &00000000
 wheels_wear[1]: &3f000000
 license_plate: "ABC 123|de"
 assigned_garage: garage.berlin
}
vehicle : _nameless.v2 {
 accessories: 1
 accessories[0]: _nameless.a2
 odometer: 5
 license_plate: "XYZ|cz"
 assigned_garage: null
}
trailer : _nameless.t1 {
 trailer_definition: _nameless.td1
 cargo_mass: 18000
 cargo_damage: &3c23d70a
 trailer_body_wear: &3f000000
 chassis_wear: 0
 odometer: 10
 license_plate: "TR 1|de"
 accessories: 0
}
}
`

func TestResolvePlayerVehicles(t *testing.T) {
	pv, err := ResolvePlayerVehicles(gameDoc)
	require.NoError(t, err)
	assert.Equal(t, PlayerVehicles{
		PlayerID:  "_nameless.p1",
		TruckID:   "_nameless.v1",
		TrailerID: "_nameless.t1",
	}, pv)

	bank, ok := BankID(gameDoc)
	require.True(t, ok)
	assert.Equal(t, "_nameless.b1", bank)
}

func TestNullTrailerIsNotAnError(t *testing.T) {
	doc := "economy : e {\n player: p\n}\nplayer : p {\n my_truck: null\n my_trailer: null\n}\n"

	pv, err := ResolvePlayerVehicles(doc)
	require.NoError(t, err)
	assert.Empty(t, pv.TruckID)
	assert.Empty(t, pv.TrailerID)

	_, ok, err := PlayerTrailer(doc)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMissingPlayerIsAnError(t *testing.T) {
	doc := "economy : e {\n player: p\n}\n"
	_, err := ResolvePlayerVehicles(doc)
	assert.ErrorIs(t, err, ErrNoPlayer)

	_, err = ResolvePlayerVehicles("economy : e {\n bank: b\n}\n")
	assert.ErrorIs(t, err, ErrNoPlayer)

	_, _, err = PlayerTrailer("nothing here")
	assert.ErrorIs(t, err, ErrNoPlayer)
}

func TestParseUnitsResolvesBrandModel(t *testing.T) {
	units := ParseUnits(gameDoc, "vehicle")
	require.Len(t, units, 2)

	assert.Equal(t, "volvo", units[0].Brand)
	assert.Equal(t, "fh16_2012", units[0].Model)
	assert.Equal(t, []string{"_nameless.x9", "_nameless.a1"}, units[0].Accessories)
	assert.Equal(t, "scania", units[1].Brand)
	assert.Equal(t, "r", units[1].Model)

	assert.Empty(t, ParseUnits(gameDoc, "garage"))
}

func TestPlayerTruck(t *testing.T) {
	truck, ok, err := PlayerTruck(gameDoc)
	require.NoError(t, err)
	require.True(t, ok)

	want := Truck{
		ID:                  "_nameless.v1",
		Brand:               "volvo",
		Model:               "fh16_2012",
		Odometer:            37619.5,
		IntegrityOdometer:   100,
		FuelRelative:        0.75,
		TripFuel:            1128.5,
		TripDistance:        50.25,
		TripTime:            30,
		EngineWear:          0.2,
		WheelsWear:          []float32{0, 0.5},
		WheelsWearUnfixable: []float32{},
		LicensePlate:        "ABC 123|de",
		AssignedGarage:      "garage.berlin",
	}
	if diff := cmp.Diff(want, truck); diff != "" {
		t.Errorf("PlayerTruck mismatch (-want +got):\n%s", diff)
	}
}

func TestTrucksAndTrailers(t *testing.T) {
	trucks := Trucks(gameDoc)
	require.Len(t, trucks, 2)
	assert.Empty(t, trucks[1].AssignedGarage)
	assert.Equal(t, "XYZ|cz", trucks[1].LicensePlate)

	trailers := Trailers(gameDoc)
	require.Len(t, trailers, 1)
	tr := trailers[0]
	assert.Equal(t, "_nameless.td1", tr.Definition)
	assert.Equal(t, float32(18000), tr.CargoMass)
	assert.Equal(t, float32(0.5), tr.BodyWear)
	assert.Equal(t, float32(10), tr.Odometer)

	got, ok, err := PlayerTrailer(gameDoc)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tr.ID, got.ID)
}

func TestReadEconomy(t *testing.T) {
	e, err := ReadEconomy(gameDoc)
	require.NoError(t, err)

	assert.EqualValues(t, 250000, e.Money)
	assert.EqualValues(t, 12500, e.Experience)
	assert.Equal(t, map[string]int64{
		"adr": 3, "long_dist": 2, "heavy": 0, "fragile": 1, "urgent": 6, "mechanical": 4,
	}, e.Skills)
	assert.Equal(t, 2, e.Garages)
	assert.Equal(t, 2, e.TrucksOwned)
	assert.Equal(t, 1, e.TrailersOwned)

	_, err = ReadEconomy("player : p {\n}\n")
	assert.ErrorIs(t, err, ErrNoEconomy)
}

func TestReadSaveInfo(t *testing.T) {
	doc := `SiiNunit
{
save_container : _nameless.s1 {
 name: "Before Berlin"
 time: 12345
 file_time: 1700000000
 info_money_account: 250000
 info_players_experience: 12500
 info_unlocked_recruitments: 4
 info_unlocked_dealers: 2
 info_visited_cities: 17
}
}
`
	info := ReadSaveInfo(doc)
	assert.Equal(t, SaveInfo{
		Name:          "Before Berlin",
		Money:         250000,
		Experience:    12500,
		Recruitments:  4,
		Dealers:       2,
		VisitedCities: 17,
		FileTime:      1700000000,
	}, info)

	bare := ReadSaveInfo("name: autosave_job\n")
	assert.Equal(t, "autosave_job", bare.Name)
}

func TestProfileName(t *testing.T) {
	name, ok := ProfileName("SiiNunit\n{\nuser_profile : _nameless.u {\n profile_name: \"Hauler\"\n}\n}\n")
	require.True(t, ok)
	assert.Equal(t, "Hauler", name)

	_, ok = ProfileName("SiiNunit\n{\n}\n")
	assert.False(t, ok)
}

func TestBuildReferenceGraph(t *testing.T) {
	g := BuildReferenceGraph(gameDoc, "economy", "player", "bank", "vehicle", "trailer")

	assert.Len(t, g.Units, 6)
	assert.Contains(t, g.Refs, Ref{From: "_nameless.e1", To: "_nameless.b1", Key: "bank"})
	assert.Contains(t, g.Refs, Ref{From: "_nameless.e1", To: "_nameless.p1", Key: "player"})
	assert.Contains(t, g.Refs, Ref{From: "_nameless.p1", To: "_nameless.v1", Key: "my_truck"})
	assert.Contains(t, g.Refs, Ref{From: "_nameless.p1", To: "_nameless.v2", Key: "trucks"})
	assert.NotContains(t, g.Refs, Ref{From: "_nameless.v1", To: "_nameless.a1", Key: "accessories"},
		"accessories were not collected")

	all := BuildReferenceGraph(gameDoc)
	assert.Contains(t, all.Refs, Ref{From: "_nameless.v1", To: "_nameless.a1", Key: "accessories"})
}
