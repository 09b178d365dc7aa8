package sqlstore

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/OCAP2/boatsync/internal/geo"
	"github.com/OCAP2/boatsync/pkg/core"
)

// Models is every table the backend migrates.
var Models = []any{
	&BoatRow{},
	&EditAudit{},
}

// BoatRow is the persisted boat. Location mirrors Latitude/Longitude as an
// EPSG:3857 point for spatial ordering and is empty when either is missing.
type BoatRow struct {
	ID          string     `json:"id" gorm:"primaryKey;size:64"`
	Name        string     `json:"name" gorm:"size:127;index"`
	TypeID      string     `json:"typeId" gorm:"size:64;index"`
	Length      float64    `json:"length"`
	Price       float64    `json:"price"`
	Description string     `json:"description"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	Location    geom.Point `json:"-" gorm:"type:geometry"`
	ContactName string     `json:"contactName" gorm:"size:127"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (*BoatRow) TableName() string {
	return "boats"
}

// EditAudit records the fields changed on one boat by a committed batch.
type EditAudit struct {
	ID        uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	BatchID   string         `json:"batchId" gorm:"size:36;index"`
	BoatID    string         `json:"boatId" gorm:"size:64;index"`
	Fields    datatypes.JSON `json:"fields"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (*EditAudit) TableName() string {
	return "boat_edit_audits"
}

func rowFromBoat(b core.Boat) BoatRow {
	row := BoatRow{
		ID:          b.ID,
		Name:        b.Name,
		TypeID:      b.TypeID,
		Length:      b.Length,
		Price:       b.Price,
		Description: b.Description,
		ContactName: b.ContactName,
		Location:    geom.NewEmptyPoint(geom.DimXY),
	}
	clone := b.Clone()
	row.Latitude, row.Longitude = clone.Latitude, clone.Longitude
	if pos, ok := b.Position(); ok {
		row.Location = geo.Mercator(pos)
	}
	return row
}

func (r BoatRow) toBoat() core.Boat {
	return core.Boat{
		ID:          r.ID,
		Name:        r.Name,
		TypeID:      r.TypeID,
		Length:      r.Length,
		Price:       r.Price,
		Description: r.Description,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		ContactName: r.ContactName,
	}
}

func toBoats(rows []BoatRow) []core.Boat {
	out := make([]core.Boat, len(rows))
	for i, r := range rows {
		out[i] = r.toBoat()
	}
	return out
}
