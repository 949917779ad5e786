// Package postgis loads keyed polygon regions from a PostGIS table
// into the in-memory index, and provides schema and bulk-insert
// helpers for benchmark and demo data sets.
package postgis

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/kass/go-polygon-index/pkg/index"
	"github.com/kass/go-polygon-index/pkg/models"
)

// Store wraps a PostGIS connection holding polygon regions.
type Store struct {
	db *sql.DB
}

// NewStore opens a PostGIS connection.
func NewStore(host, user, password, dbname string, port int) (*Store, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Store{db: db}, nil
}

// InitSchema creates the polygon_regions table.
func (s *Store) InitSchema() error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,

		`DROP TABLE IF EXISTS polygon_regions;`,

		`CREATE TABLE polygon_regions (
			file TEXT PRIMARY KEY,
			region GEOMETRY(POLYGON, 4326),
			meta JSONB
		);`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}

	return nil
}

// CreateSpatialIndex creates a GIST index on the region column.
func (s *Store) CreateSpatialIndex() error {
	query := `CREATE INDEX idx_polygon_regions_region ON polygon_regions USING GIST(region);`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create spatial index: %w", err)
	}

	if _, err := s.db.Exec("ANALYZE polygon_regions;"); err != nil {
		return fmt.Errorf("failed to analyze table: %w", err)
	}

	return nil
}

// BulkInsertRegions inserts records in batches.
func (s *Store) BulkInsertRegions(records []*models.Record) error {
	const batchSize = 10000

	stmt, err := s.db.Prepare(`
		INSERT INTO polygon_regions (file, region, meta)
		VALUES ($1, ST_SetSRID(ST_GeomFromGeoJSON($2), 4326), $3)
		ON CONFLICT (file) DO UPDATE SET region = EXCLUDED.region, meta = EXCLUDED.meta
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStmt := tx.Stmt(stmt)

	for i, rec := range records {
		geomJSON, err := json.Marshal(geojson.NewGeometry(orb.Polygon{rec.Polygon}))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to encode region %s: %w", rec.Key, err)
		}
		metaJSON, err := json.Marshal(rec.Meta)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to encode metadata %s: %w", rec.Key, err)
		}

		if _, err := txStmt.Exec(rec.Key, geomJSON, metaJSON); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert region %s: %w", rec.Key, err)
		}

		if (i+1)%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}
			tx, err = s.db.Begin()
			if err != nil {
				return fmt.Errorf("failed to begin new transaction: %w", err)
			}
			txStmt = tx.Stmt(stmt)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit final batch: %w", err)
	}

	return nil
}

// LoadIndex reads every stored region into the given index via its
// normal insert path. Rows whose geometry does not decode to a
// polygon are reported, not skipped; the database is expected to be
// clean.
func (s *Store) LoadIndex(idx *index.Index) (int, error) {
	rows, err := s.db.Query(`
		SELECT file, ST_AsGeoJSON(region), COALESCE(meta, '{}'::jsonb)
		FROM polygon_regions
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to query regions: %w", err)
	}
	defer rows.Close()

	loaded := 0
	for rows.Next() {
		var key string
		var geomJSON, metaJSON []byte

		if err := rows.Scan(&key, &geomJSON, &metaJSON); err != nil {
			return loaded, fmt.Errorf("failed to scan row: %w", err)
		}

		g, err := geojson.UnmarshalGeometry(geomJSON)
		if err != nil {
			return loaded, fmt.Errorf("failed to decode region %s: %w", key, err)
		}
		poly, ok := g.Geometry().(orb.Polygon)
		if !ok || len(poly) == 0 {
			return loaded, fmt.Errorf("region %s is not a polygon", key)
		}

		var meta map[string]any
		if err := json.Unmarshal(metaJSON, &meta); err != nil {
			return loaded, fmt.Errorf("failed to decode metadata %s: %w", key, err)
		}
		if len(meta) == 0 {
			meta = nil
		}

		rec := &models.Record{Key: key, Polygon: poly[0], Meta: meta}
		if err := idx.Insert(rec); err != nil {
			return loaded, fmt.Errorf("failed to index region %s: %w", key, err)
		}
		loaded++
	}

	if err := rows.Err(); err != nil {
		return loaded, fmt.Errorf("rows error: %w", err)
	}

	return loaded, nil
}

// Count returns the number of regions in the database.
func (s *Store) Count() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM polygon_regions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count regions: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
