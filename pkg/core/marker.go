// pkg/core/marker.go
package core

// MapMarker is a renderable map pin. It is derived from boats and the viewer's
// position and never persisted.
type MapMarker struct {
	Title     string  `json:"title"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Icon      string  `json:"icon,omitempty"`
}
