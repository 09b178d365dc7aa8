package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/OCAP2/boatsync/pkg/core"
)

func TestParsePosition_Valid(t *testing.T) {
	pos, err := ParsePosition("50.52649475739886, 10.02004164522074")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos.Latitude != 50.52649475739886 {
		t.Errorf("expected latitude=50.52649475739886, got %f", pos.Latitude)
	}
	if pos.Longitude != 10.02004164522074 {
		t.Errorf("expected longitude=10.02004164522074, got %f", pos.Longitude)
	}
}

func TestParsePosition_Invalid(t *testing.T) {
	for _, in := range []string{"", "50.5", "abc,10", "50,xyz", "1,2,3", "91,0", "0,181"} {
		if _, err := ParsePosition(in); !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("ParsePosition(%q): expected ErrInvalidCoordinates, got %v", in, err)
		}
	}
}

func TestMercator_Origin(t *testing.T) {
	point := Mercator(core.Position{})

	coords, ok := point.Coordinates()
	if !ok {
		t.Fatal("expected valid coordinates")
	}
	if math.Abs(coords.X) > 1e-6 || math.Abs(coords.Y) > 1e-6 {
		t.Errorf("expected origin, got (%f, %f)", coords.X, coords.Y)
	}
}

func TestMercator_RoundTrip(t *testing.T) {
	in := core.Position{Latitude: 50.52649475739886, Longitude: 10.02004164522074}
	point := Mercator(in)

	coords, _ := point.Coordinates()
	if coords.X < 1.1e6 || coords.X > 1.12e6 {
		t.Errorf("unexpected easting %f", coords.X)
	}
	if coords.Y < 6.5e6 || coords.Y > 6.6e6 {
		t.Errorf("unexpected northing %f", coords.Y)
	}

	out, ok := FromMercator(point)
	if !ok {
		t.Fatal("expected position")
	}
	if math.Abs(out.Latitude-in.Latitude) > 1e-6 || math.Abs(out.Longitude-in.Longitude) > 1e-6 {
		t.Errorf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestDistance(t *testing.T) {
	a := core.Position{Latitude: 0, Longitude: 0}
	b := core.Position{Latitude: 0, Longitude: 1}

	d := Distance(a, b)
	// One degree of longitude at the equator is roughly 111.2 km.
	if d < 111000 || d > 111400 {
		t.Errorf("expected ~111.2km, got %f", d)
	}
	if Distance(a, a) != 0 {
		t.Errorf("expected zero distance to self")
	}
}

func TestSortByDistance(t *testing.T) {
	boats := []core.Boat{
		{ID: "far", Latitude: core.Coord(10), Longitude: core.Coord(10)},
		{ID: "nowhere"},
		{ID: "near", Latitude: core.Coord(0.1), Longitude: core.Coord(0.1)},
		{ID: "mid", Latitude: core.Coord(1), Longitude: core.Coord(1)},
		{ID: "nowhere-2", Latitude: core.Coord(1)},
	}

	SortByDistance(boats, core.Position{})

	want := []string{"near", "mid", "far", "nowhere", "nowhere-2"}
	for i, id := range want {
		if boats[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, boats[i].ID)
		}
	}
}
