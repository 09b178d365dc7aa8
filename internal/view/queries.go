package view

import (
	"context"
	"fmt"

	"github.com/OCAP2/boatsync/internal/logging"
	"github.com/OCAP2/boatsync/internal/query"
	"github.com/OCAP2/boatsync/pkg/core"
)

// Backend is the read side of storage.Backend used by the fragments.
type Backend interface {
	SearchByType(ctx context.Context, typeID string) ([]core.Boat, error)
	SearchByLocation(ctx context.Context, typeID string, latitude, longitude float64) ([]core.Boat, error)
	RelatedByField(ctx context.Context, boatID string, by core.SimilarBy) ([]core.Boat, error)
	Get(ctx context.Context, id string) (core.Boat, error)
}

// BoatQuery is a query producing boats.
type BoatQuery[K comparable] = query.Query[K, core.Boat]

// NearbyParams keys the boats-near-me query.
type NearbyParams struct {
	TypeID    string
	Latitude  float64
	Longitude float64
}

func (p NearbyParams) String() string {
	return fmt.Sprintf("type=%q at %f,%f", p.TypeID, p.Latitude, p.Longitude)
}

// SimilarParams keys the similar-boats query.
type SimilarParams struct {
	BoatID string
	By     core.SimilarBy
}

// NewResultsQuery searches boats by type. An empty type lists all boats.
func NewResultsQuery(ctx context.Context, b Backend, log logging.Logger) *BoatQuery[string] {
	return query.New(func(ctx context.Context, typeID string) ([]core.Boat, error) {
		return b.SearchByType(ctx, typeID)
	}, query.Config[string]{Name: "searchByType", Logger: log, Context: ctx})
}

// NewRecordQuery loads a single boat. An empty id keeps the query idle.
func NewRecordQuery(ctx context.Context, b Backend, log logging.Logger) *BoatQuery[string] {
	return query.New(func(ctx context.Context, id string) ([]core.Boat, error) {
		boat, err := b.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return []core.Boat{boat}, nil
	}, query.Config[string]{
		Name:    "getRecord",
		Logger:  log,
		Context: ctx,
		Ready:   func(id string) bool { return id != "" },
	})
}

// NewNearbyQuery searches boats by type ordered by distance.
func NewNearbyQuery(ctx context.Context, b Backend, log logging.Logger) *BoatQuery[NearbyParams] {
	return query.New(func(ctx context.Context, p NearbyParams) ([]core.Boat, error) {
		return b.SearchByLocation(ctx, p.TypeID, p.Latitude, p.Longitude)
	}, query.Config[NearbyParams]{Name: "searchByLocation", Logger: log, Context: ctx})
}

// NewSimilarQuery finds boats related to one boat. It stays idle until both
// the boat and the field are known.
func NewSimilarQuery(ctx context.Context, b Backend, log logging.Logger) *BoatQuery[SimilarParams] {
	return query.New(func(ctx context.Context, p SimilarParams) ([]core.Boat, error) {
		return b.RelatedByField(ctx, p.BoatID, p.By)
	}, query.Config[SimilarParams]{
		Name:    "relatedByField",
		Logger:  log,
		Context: ctx,
		Ready:   func(p SimilarParams) bool { return p.BoatID != "" && p.By != "" },
	})
}
