package savegame

import (
	"save-edit-tool/internal/sii"

	"github.com/rs/zerolog/log"
)

// Truck is a "vehicle" unit with its wear and trip data decoded.
type Truck struct {
	ID                        string    `json:"truck_id"`
	Brand                     string    `json:"brand"`
	Model                     string    `json:"model"`
	Odometer                  float32   `json:"odometer"`
	IntegrityOdometer         float32   `json:"integrity_odometer"`
	FuelRelative              float32   `json:"fuel_relative"`
	TripFuel                  float32   `json:"trip_fuel_l"`
	TripDistance              float32   `json:"trip_distance_km"`
	TripTime                  float32   `json:"trip_time_min"`
	EngineWear                float32   `json:"engine_wear"`
	TransmissionWear          float32   `json:"transmission_wear"`
	CabinWear                 float32   `json:"cabin_wear"`
	ChassisWear               float32   `json:"chassis_wear"`
	WheelsWear                []float32 `json:"wheels_wear"`
	EngineWearUnfixable       float32   `json:"engine_wear_unfixable"`
	TransmissionWearUnfixable float32   `json:"transmission_wear_unfixable"`
	CabinWearUnfixable        float32   `json:"cabin_wear_unfixable"`
	ChassisWearUnfixable      float32   `json:"chassis_wear_unfixable"`
	WheelsWearUnfixable       []float32 `json:"wheels_wear_unfixable"`
	LicensePlate              string    `json:"license_plate,omitempty"`
	AssignedGarage            string    `json:"assigned_garage,omitempty"`
}

// Trailer is a "trailer" unit with cargo and wear decoded.
type Trailer struct {
	ID                   string    `json:"trailer_id"`
	Brand                string    `json:"brand,omitempty"`
	Model                string    `json:"model,omitempty"`
	Definition           string    `json:"trailer_definition,omitempty"`
	CargoMass            float32   `json:"cargo_mass"`
	CargoDamage          float32   `json:"cargo_damage"`
	BodyWear             float32   `json:"body_wear"`
	BodyWearUnfixable    float32   `json:"body_wear_unfixable"`
	ChassisWear          float32   `json:"chassis_wear"`
	ChassisWearUnfixable float32   `json:"chassis_wear_unfixable"`
	WheelsWear           []float32 `json:"wheels_wear"`
	WheelsWearUnfixable  []float32 `json:"wheels_wear_unfixable"`
	Odometer             float32   `json:"odometer"`
	IntegrityOdometer    float32   `json:"integrity_odometer"`
	Accessories          []string  `json:"accessories"`
	LicensePlate         string    `json:"license_plate,omitempty"`
	AssignedGarage       string    `json:"assigned_garage,omitempty"`
}

func float(f sii.Fields, key string) float32 {
	v, _ := f.Float(key)
	return v
}

func combined(f sii.Fields, key string) float32 {
	v, _ := f.CombinedFloat(key)
	return v
}

// TruckFromUnit decodes a vehicle record.
func TruckFromUnit(u UnitRecord) Truck {
	f := u.Fields()
	t := Truck{
		ID:                        u.ID,
		Brand:                     u.Brand,
		Model:                     u.Model,
		Odometer:                  combined(f, "odometer"),
		IntegrityOdometer:         combined(f, "integrity_odometer"),
		FuelRelative:              float(f, "fuel_relative"),
		EngineWear:                float(f, "engine_wear"),
		TransmissionWear:          float(f, "transmission_wear"),
		CabinWear:                 float(f, "cabin_wear"),
		ChassisWear:               float(f, "chassis_wear"),
		WheelsWear:                f.FloatArray("wheels_wear"),
		EngineWearUnfixable:       float(f, "engine_wear_unfixable"),
		TransmissionWearUnfixable: float(f, "transmission_wear_unfixable"),
		CabinWearUnfixable:        float(f, "cabin_wear_unfixable"),
		ChassisWearUnfixable:      float(f, "chassis_wear_unfixable"),
		WheelsWearUnfixable:       f.FloatArray("wheels_wear_unfixable"),
	}
	// Trip counters split the whole part and the fraction across two keys.
	t.TripFuel = float(f, "trip_fuel_l") + float(f, "trip_fuel")
	t.TripDistance = float(f, "trip_distance_km") + float(f, "trip_distance")
	t.TripTime = float(f, "trip_time_min") + float(f, "trip_time")
	t.LicensePlate, _ = f.String("license_plate")
	t.AssignedGarage, _ = f.Ref("assigned_garage")
	return t
}

// TrailerFromUnit decodes a trailer record.
func TrailerFromUnit(u UnitRecord) Trailer {
	f := u.Fields()
	t := Trailer{
		ID:                   u.ID,
		Brand:                u.Brand,
		Model:                u.Model,
		CargoMass:            float(f, "cargo_mass"),
		CargoDamage:          float(f, "cargo_damage"),
		BodyWear:             float(f, "trailer_body_wear"),
		BodyWearUnfixable:    float(f, "trailer_body_wear_unfixable"),
		ChassisWear:          float(f, "chassis_wear"),
		ChassisWearUnfixable: float(f, "chassis_wear_unfixable"),
		WheelsWear:           f.FloatArray("wheels_wear"),
		WheelsWearUnfixable:  f.FloatArray("wheels_wear_unfixable"),
		Odometer:             combined(f, "odometer"),
		IntegrityOdometer:    combined(f, "integrity_odometer"),
		Accessories:          u.Accessories,
	}
	t.Definition, _ = f.Ref("trailer_definition")
	t.LicensePlate, _ = f.String("license_plate")
	t.AssignedGarage, _ = f.Ref("assigned_garage")
	return t
}

// Trucks decodes every vehicle unit in the document.
func Trucks(doc string) []Truck {
	units := ParseUnits(doc, "vehicle")
	out := make([]Truck, 0, len(units))
	for _, u := range units {
		out = append(out, TruckFromUnit(u))
	}
	return out
}

// Trailers decodes every trailer unit in the document.
func Trailers(doc string) []Trailer {
	units := ParseUnits(doc, "trailer")
	out := make([]Trailer, 0, len(units))
	for _, u := range units {
		out = append(out, TrailerFromUnit(u))
	}
	return out
}

// PlayerTruck returns the truck the player is driving. ok is false when the
// player has none or the reference does not resolve.
func PlayerTruck(doc string) (Truck, bool, error) {
	pv, err := ResolvePlayerVehicles(doc)
	if err != nil {
		return Truck{}, false, err
	}
	if pv.TruckID == "" {
		return Truck{}, false, nil
	}
	u, err := FindUnit(doc, "vehicle", pv.TruckID)
	if err != nil {
		log.Debug().Err(err).Str("truck", pv.TruckID).Msg("Player truck reference dangling")
		return Truck{}, false, nil
	}
	return TruckFromUnit(u), true, nil
}

// PlayerTrailer returns the attached trailer. ok is false when no trailer is
// attached, which is a normal state.
func PlayerTrailer(doc string) (Trailer, bool, error) {
	pv, err := ResolvePlayerVehicles(doc)
	if err != nil {
		return Trailer{}, false, err
	}
	if pv.TrailerID == "" {
		return Trailer{}, false, nil
	}
	u, err := FindUnit(doc, "trailer", pv.TrailerID)
	if err != nil {
		log.Debug().Err(err).Str("trailer", pv.TrailerID).Msg("Player trailer reference dangling")
		return Trailer{}, false, nil
	}
	return TrailerFromUnit(u), true, nil
}
