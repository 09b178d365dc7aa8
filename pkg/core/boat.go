// pkg/core/boat.go
package core

// Boat is the single entity type the UI searches, selects and edits.
// ID is immutable; every other field can change through an edit session.
type Boat struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	TypeID      string   `json:"typeId"` // empty means "all types"
	Length      float64  `json:"length"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ContactName string   `json:"contactName"`
}

// Geolocated reports whether both coordinates are present.
func (b Boat) Geolocated() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// Position returns the boat's location. ok is false when either coordinate is absent.
func (b Boat) Position() (pos Position, ok bool) {
	if !b.Geolocated() {
		return Position{}, false
	}
	return Position{Latitude: *b.Latitude, Longitude: *b.Longitude}, true
}

// Clone returns a deep copy so callers can hand out boats without sharing coordinates.
func (b Boat) Clone() Boat {
	c := b
	if b.Latitude != nil {
		lat := *b.Latitude
		c.Latitude = &lat
	}
	if b.Longitude != nil {
		lon := *b.Longitude
		c.Longitude = &lon
	}
	return c
}

// Position is a WGS84 coordinate pair.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coord returns a pointer to v, handy for filling Boat coordinates.
func Coord(v float64) *float64 {
	return &v
}

// Editable boat fields, keyed by their JSON names.
const (
	FieldName        = "name"
	FieldTypeID      = "typeId"
	FieldLength      = "length"
	FieldPrice       = "price"
	FieldDescription = "description"
	FieldLatitude    = "latitude"
	FieldLongitude   = "longitude"
	FieldContactName = "contactName"
)

// EditableFields lists every field an edit draft may change.
var EditableFields = []string{
	FieldName,
	FieldTypeID,
	FieldLength,
	FieldPrice,
	FieldDescription,
	FieldLatitude,
	FieldLongitude,
	FieldContactName,
}

// IsEditableField reports whether name is a known, mutable boat field.
func IsEditableField(name string) bool {
	for _, f := range EditableFields {
		if f == name {
			return true
		}
	}
	return false
}
