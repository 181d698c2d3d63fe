package implementation

import (
	"context"
	"errors"
	"strings"

	"billing-sync-be/internal/dto"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes worth another attempt.
var transientSQLStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57014": true, // query_canceled
	"53300": true, // too_many_connections
	"08000": true, // connection_exception
	"08003": true, // connection_does_not_exist
	"08006": true, // connection_failure
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &dto.StoreWriteError{Op: op, Retryable: isTransientStoreError(err), Err: err}
}

func isTransientStoreError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientSQLStates[pgErr.Code]
	}
	if pgconn.Timeout(err) {
		return true
	}
	// driver/bad connection errors surface as plain strings through database/sql
	msg := err.Error()
	return strings.Contains(msg, "bad connection") || strings.Contains(msg, "connection reset")
}
