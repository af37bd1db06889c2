package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Document is an archived record document with its admission time.
type Document struct {
	Identifier string
	Raw        map[string]any
	AdmittedAt time.Time
}

// Archive persists admitted record documents as JSONB so the in-memory
// catalog can be rebuilt on restart.
type Archive struct {
	db *sql.DB
}

// NewArchive constructs an archive.
func NewArchive(db *sql.DB) *Archive {
	return &Archive{db: db}
}

// EnsureSchema creates the archive table when missing.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	if a == nil || a.db == nil {
		return errors.New("archive: nil db")
	}
	_, err := a.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS catalog_records (
	identifier  TEXT PRIMARY KEY,
	document    JSONB NOT NULL,
	admitted_at TIMESTAMPTZ NOT NULL
)`)
	return err
}

// Save upserts one admitted document.
func (a *Archive) Save(ctx context.Context, identifier string, raw map[string]any) error {
	if a == nil || a.db == nil {
		return errors.New("archive: nil db")
	}
	if identifier == "" {
		return errors.New("archive: empty identifier")
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	_, err = a.db.ExecContext(ctx, `
INSERT INTO catalog_records (identifier, document, admitted_at)
VALUES ($1, $2, $3)
ON CONFLICT (identifier)
DO UPDATE SET document = EXCLUDED.document, admitted_at = EXCLUDED.admitted_at`,
		identifier, payload, time.Now().UTC(),
	)
	return err
}

// Delete removes one archived document. Deleting an absent identifier
// is not an error.
func (a *Archive) Delete(ctx context.Context, identifier string) error {
	if a == nil || a.db == nil {
		return errors.New("archive: nil db")
	}
	_, err := a.db.ExecContext(ctx, `DELETE FROM catalog_records WHERE identifier = $1`, identifier)
	return err
}

// LoadAll returns every archived document ordered by identifier.
func (a *Archive) LoadAll(ctx context.Context) ([]Document, error) {
	if a == nil || a.db == nil {
		return nil, errors.New("archive: nil db")
	}
	rows, err := a.db.QueryContext(ctx, `
SELECT identifier, document, admitted_at
FROM catalog_records
ORDER BY identifier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []Document
	for rows.Next() {
		var (
			doc     Document
			payload []byte
		)
		if err := rows.Scan(&doc.Identifier, &payload, &doc.AdmittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &doc.Raw); err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}
	return documents, rows.Err()
}
