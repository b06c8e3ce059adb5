package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"stoa/internal/model"
)

// translate maps driver-level errors to application errors at the repository
// boundary. resource names what the query was after ("comment", "book") and
// ends up in the not-found message.
func translate(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewNotFound(resource)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return model.NewConflict(resource + " already exists")
		case "23503": // foreign_key_violation
			return model.NewNotFound(resource)
		}
	}
	return model.WrapError(model.KindUnavailable, fmt.Sprintf("%s query failed", resource), err)
}
