package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "vouch-graph/backend/pkg/errors"
	"vouch-graph/backend/pkg/logger"
)

const accountsQuery = `
	MATCH (a:Account)
	RETURN
		a.id as id,
		a.name as name,
		a.ens as ens,
		a.fname as fname,
		a.address as address,
		a.img as img,
		a.fid as fid
	ORDER BY a.id
`

const vouchesQuery = `
	MATCH (s:Account)-[v:VOUCHED_FOR]->(t:Account)
	RETURN
		v.id as id,
		s.id as source,
		t.id as target,
		v.timestamp as timestamp
	ORDER BY coalesce(v.timestamp, 0), s.id, t.id
`

// Repository reads the vouch graph from Neo4j. It never writes.
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Name identifies the source in logs
func (r *Repository) Name() string {
	return "neo4j"
}

// Fetch loads every account and vouch as a raw payload
func (r *Repository) Fetch(ctx context.Context) (*GraphData, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	data := &GraphData{
		Nodes: []RawNode{},
		Links: []RawLink{},
	}

	result, err := session.Run(ctx, accountsQuery, nil)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("accounts", err)
	}
	for result.Next(ctx) {
		record := result.Record()
		id := getIDFromRecord(record, "id")
		if id == "" {
			r.logger.Warn("Skipping account without id")
			continue
		}
		data.Nodes = append(data.Nodes, RawNode{
			ID:      id,
			Name:    getStringFromRecord(record, "name"),
			ENS:     getStringFromRecord(record, "ens"),
			Fname:   getStringFromRecord(record, "fname"),
			Address: getStringFromRecord(record, "address"),
			Img:     getStringFromRecord(record, "img"),
			Fid:     getIDFromRecord(record, "fid"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("accounts", err)
	}

	result, err = session.Run(ctx, vouchesQuery, nil)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("vouches", err)
	}
	for result.Next(ctx) {
		record := result.Record()
		data.Links = append(data.Links, RawLink{
			ID:        getIDFromRecord(record, "id"),
			Source:    Endpoint{ID: getIDFromRecord(record, "source")},
			Target:    Endpoint{ID: getIDFromRecord(record, "target")},
			Timestamp: getInt64FromRecord(record, "timestamp"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("vouches", err)
	}

	r.logger.Debug("Fetched vouch graph from Neo4j",
		zap.Int("accounts", len(data.Nodes)),
		zap.Int("vouches", len(data.Links)),
	)

	return data, nil
}
