package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// ErrDuplicateID is returned when an insert reuses an existing id.
var ErrDuplicateID = errors.New("document id already exists")

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// scanDocuments reads (id, doc) rows and decodes each doc into a T.
// setID stores the row id on the decoded value, since the id is kept in its
// own column rather than inside the document.
func scanDocuments[T any](rows pgx.Rows, setID func(*T, string)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
		}
		setID(&v, id)
		out = append(out, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return out, nil
}
