// Package sample provides a small fleet for seeding demo and test backends.
package sample

import "github.com/OCAP2/boatsync/pkg/core"

// Boat type ids used by the sample fleet.
const (
	TypeSail    = "sail"
	TypeMotor   = "motor"
	TypeFishing = "fishing"
	TypeParty   = "party"
)

// Boats returns a fresh copy of the sample fleet. Two boats have no location.
func Boats() []core.Boat {
	return []core.Boat{
		boat("a01", "Sea Breeze", TypeSail, 12.5, 48000, 50.5301, 10.0312, "Anna Berg"),
		boat("a02", "North Star", TypeSail, 14.0, 61000, 50.6102, 9.9021, "Jonas Weber"),
		boat("a03", "Blue Heron", TypeSail, 9.8, 32500, 50.4120, 10.1884, "Mia Koch"),
		boat("a04", "Windward", TypeSail, 16.2, 89000, 51.0504, 13.7373, "Lukas Wolf"),
		boat("b01", "Thunder", TypeMotor, 11.0, 75000, 50.5500, 10.0001, "Lea Schulz"),
		boat("b02", "Quicksilver", TypeMotor, 8.4, 39900, 50.9271, 11.5892, "Paul Becker"),
		boat("b03", "Riptide", TypeMotor, 13.1, 92000, 53.5511, 9.9937, "Emma Richter"),
		boat("c01", "Old Salt", TypeFishing, 7.2, 18500, 50.5100, 10.0500, "Ben Klein"),
		boat("c02", "Catch of the Day", TypeFishing, 8.0, 21000, 54.3233, 10.1228, "Lina Neumann"),
		boat("d01", "Good Times", TypeParty, 18.5, 120000, 50.1109, 8.6821, "Felix Braun"),
		boat("d02", "Sunset Cruiser", TypeParty, 21.0, 145000, 52.5200, 13.4050, "Sophie Zimmer"),
		{ID: "e01", Name: "Drifter", TypeID: TypeSail, Length: 10.5, Price: 35000, Description: "Location unknown", ContactName: "Tim Hart"},
		{ID: "e02", Name: "Ghost", TypeID: TypeMotor, Length: 9.0, Price: 41000, Description: "Location unknown", ContactName: "Ella Krause"},
	}
}

func boat(id, name, typeID string, length, price, lat, lon float64, contact string) core.Boat {
	return core.Boat{
		ID:          id,
		Name:        name,
		TypeID:      typeID,
		Length:      length,
		Price:       price,
		Description: name + " is available for charter.",
		Latitude:    core.Coord(lat),
		Longitude:   core.Coord(lon),
		ContactName: contact,
	}
}
