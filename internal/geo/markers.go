package geo

import "github.com/OCAP2/boatsync/pkg/core"

const (
	// ViewerTitle labels the marker for the viewer's own position.
	ViewerTitle = "You are here!"
	// ViewerIcon is the icon of the viewer marker.
	ViewerIcon = "standard:user"
)

// Project turns records into map markers. Records missing either coordinate
// are dropped first, then at most limit markers are kept in input order. A
// non-nil viewer prepends a "You are here!" marker that does not count
// against limit.
func Project(records []core.Boat, viewer *core.Position, limit int) ([]core.MapMarker, error) {
	if limit < 0 {
		return nil, core.Configf("project markers", "negative marker limit %d", limit)
	}

	markers := make([]core.MapMarker, 0, min(limit, len(records))+1)
	if viewer != nil {
		markers = append(markers, core.MapMarker{
			Title:     ViewerTitle,
			Latitude:  viewer.Latitude,
			Longitude: viewer.Longitude,
			Icon:      ViewerIcon,
		})
	}

	n := 0
	for _, b := range records {
		if n == limit {
			break
		}
		pos, ok := b.Position()
		if !ok {
			continue
		}
		markers = append(markers, core.MapMarker{
			Title:     b.Name,
			Latitude:  pos.Latitude,
			Longitude: pos.Longitude,
		})
		n++
	}
	return markers, nil
}
