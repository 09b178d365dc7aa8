// Package sqlstore implements storage.Backend on GORM, backed by SQLite or
// PostgreSQL/PostGIS.
package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/OCAP2/boatsync/internal/database"
	"github.com/OCAP2/boatsync/internal/geo"
	"github.com/OCAP2/boatsync/internal/logging"
	"github.com/OCAP2/boatsync/pkg/core"
)

// Dependencies holds all dependencies for the SQL storage backend.
type Dependencies struct {
	Manager *database.Manager
	Logger  logging.Logger
}

// Backend implements storage.Backend on a gorm connection.
type Backend struct {
	deps Dependencies
	db   *gorm.DB
	log  logging.Logger
}

// New creates a new SQL storage backend. The manager must be connected.
func New(deps Dependencies) *Backend {
	return &Backend{
		deps: deps,
		db:   deps.Manager.DB,
		log:  logging.OrNop(deps.Logger),
	}
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if err := b.deps.Manager.Migrate(Models...); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	return b.deps.Manager.Close()
}

func (b *Backend) postgis() bool {
	return b.db.Dialector.Name() == "postgres"
}

// Seed inserts boats, replacing rows with the same id.
func (b *Backend) Seed(ctx context.Context, boats []core.Boat) error {
	if len(boats) == 0 {
		return nil
	}
	rows := make([]BoatRow, len(boats))
	for i, boat := range boats {
		if boat.ID == "" {
			return fmt.Errorf("cannot seed boat %q without id", boat.Name)
		}
		rows[i] = rowFromBoat(boat)
	}
	err := b.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to seed boats: %w", err)
	}
	b.log.Debug("seeded boats", "count", len(rows))
	return nil
}

func (b *Backend) byType(ctx context.Context, typeID string) *gorm.DB {
	q := b.db.WithContext(ctx).Model(&BoatRow{})
	if typeID != "" {
		q = q.Where("type_id = ?", typeID)
	}
	return q
}

// SearchByType returns boats of typeID ordered by name.
func (b *Backend) SearchByType(ctx context.Context, typeID string) ([]core.Boat, error) {
	var rows []BoatRow
	if err := b.byType(ctx, typeID).Order("name").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to search boats of type %q: %w", typeID, err)
	}
	return toBoats(rows), nil
}

// SearchByLocation returns boats of typeID nearest first. PostGIS orders in
// the database; SQLite has no spatial functions so rows are sorted here.
func (b *Backend) SearchByLocation(ctx context.Context, typeID string, latitude, longitude float64) ([]core.Boat, error) {
	from := core.Position{Latitude: latitude, Longitude: longitude}

	if !b.postgis() {
		boats, err := b.SearchByType(ctx, typeID)
		if err != nil {
			return nil, err
		}
		geo.SortByDistance(boats, from)
		return boats, nil
	}

	c, _ := geo.Mercator(from).Coordinates()
	var rows []BoatRow
	err := b.byType(ctx, typeID).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "(latitude IS NULL OR longitude IS NULL), location <-> ST_MakePoint(?, ?), name",
			Vars:               []any{c.X, c.Y},
			WithoutParentheses: true,
		}}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search boats near %f,%f: %w", latitude, longitude, err)
	}
	return toBoats(rows), nil
}

// RelatedByField returns boats similar to boatID, excluding it.
func (b *Backend) RelatedByField(ctx context.Context, boatID string, by core.SimilarBy) ([]core.Boat, error) {
	parent, err := b.Get(ctx, boatID)
	if err != nil {
		return nil, err
	}

	q := b.db.WithContext(ctx).Model(&BoatRow{}).Where("id <> ?", parent.ID)
	switch by {
	case core.SimilarByType:
		q = q.Where("type_id = ?", parent.TypeID).Order("price").Order("length")
	case core.SimilarByLength:
		q = q.Where("length BETWEEN ? AND ?", parent.Length/core.SimilarityBand, parent.Length*core.SimilarityBand).
			Order("length").Order("price")
	case core.SimilarByPrice:
		q = q.Where("price BETWEEN ? AND ?", parent.Price/core.SimilarityBand, parent.Price*core.SimilarityBand).
			Order("price").Order("length")
	default:
		return nil, fmt.Errorf("unknown similarity field %q", by)
	}

	var rows []BoatRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find boats similar to %s: %w", boatID, err)
	}
	return toBoats(rows), nil
}

// Get returns one boat.
func (b *Backend) Get(ctx context.Context, id string) (core.Boat, error) {
	var row BoatRow
	err := b.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Boat{}, fmt.Errorf("boat %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Boat{}, fmt.Errorf("failed to load boat %s: %w", id, err)
	}
	return row.toBoat(), nil
}

// UpdateBatch applies all drafts in one transaction and records an audit row
// per draft.
func (b *Backend) UpdateBatch(ctx context.Context, drafts []core.EditDraft) (string, error) {
	batchID := uuid.NewString()

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range drafts {
			var row BoatRow
			err := tx.Where("id = ?", d.EntityID).First(&row).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("boat %s: %w", d.EntityID, core.ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("failed to load boat %s: %w", d.EntityID, err)
			}

			updated, err := row.toBoat().Apply(d.Fields)
			if err != nil {
				return err
			}
			next := rowFromBoat(updated)
			if err := tx.Save(&next).Error; err != nil {
				return fmt.Errorf("failed to save boat %s: %w", d.EntityID, err)
			}

			fields, err := json.Marshal(d.Fields)
			if err != nil {
				return fmt.Errorf("failed to encode audit for boat %s: %w", d.EntityID, err)
			}
			audit := EditAudit{BatchID: batchID, BoatID: d.EntityID, Fields: datatypes.JSON(fields)}
			if err := tx.Create(&audit).Error; err != nil {
				return fmt.Errorf("failed to record audit for boat %s: %w", d.EntityID, err)
			}
		}
		return nil
	})
	if err != nil {
		b.log.Warn("boat update rolled back", "batch", batchID, "error", err)
		return "", err
	}

	b.log.Info("boats updated", "batch", batchID, "count", len(drafts))
	return core.UpdateSucceeded, nil
}

// Audits returns the audit rows recorded for boatID, oldest first.
func (b *Backend) Audits(ctx context.Context, boatID string) ([]EditAudit, error) {
	var audits []EditAudit
	err := b.db.WithContext(ctx).Where("boat_id = ?", boatID).Order("id").Find(&audits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load audits for boat %s: %w", boatID, err)
	}
	return audits, nil
}
