// Package geo holds coordinate helpers shared by the storage layer and the map
// fragments.
package geo

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/OCAP2/boatsync/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Points are stored as EPSG:3857 so SQLite, which has no spatial awareness,
// can still round-trip them as WKB. Positions handed to the UI are EPSG:4326.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

const earthRadiusMeters = 6371008.8

// ParsePosition parses "lat,lon" into a WGS84 position.
func ParsePosition(coords string) (core.Position, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.Position{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.Position{}, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.Position{}, ErrInvalidCoordinates
	}
	pos := core.Position{Latitude: lat, Longitude: lon}
	if !Valid(pos) {
		return core.Position{}, ErrInvalidCoordinates
	}
	return pos, nil
}

// Valid reports whether pos lies within WGS84 bounds.
func Valid(pos core.Position) bool {
	return pos.Latitude >= -90 && pos.Latitude <= 90 &&
		pos.Longitude >= -180 && pos.Longitude <= 180
}

// Mercator converts a WGS84 position to an EPSG:3857 point.
func Mercator(pos core.Position) geom.Point {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(pos.Longitude, pos.Latitude, 0)
	return geom.NewPoint(
		geom.Coordinates{
			XY: geom.XY{X: x, Y: y},
		},
	)
}

// FromMercator converts an EPSG:3857 point back to WGS84. ok is false for an
// empty point.
func FromMercator(point geom.Point) (pos core.Position, ok bool) {
	c, ok := point.Coordinates()
	if !ok {
		return core.Position{}, false
	}
	f := wgs84.EPSG().Transform(3857, 4326)
	lon, lat, _ := f(c.X, c.Y, 0)
	return core.Position{Latitude: lat, Longitude: lon}, true
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b core.Position) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// SortByDistance orders boats nearest first. Boats without a location go last,
// keeping their relative order.
func SortByDistance(boats []core.Boat, from core.Position) {
	sort.SliceStable(boats, func(i, j int) bool {
		pi, oki := boats[i].Position()
		pj, okj := boats[j].Position()
		switch {
		case !oki:
			return false
		case !okj:
			return true
		}
		return Distance(from, pi) < Distance(from, pj)
	})
}
