package retriever

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// Retriever modes.
const (
	// ModeLocal is the in-memory dense scan over a loaded snapshot.
	ModeLocal = "local"
	// ModePostgres is server-side ANN search through pgvector.
	ModePostgres = "postgres"
)

// Options selects and configures the retriever backend.
type Options struct {
	Mode       string
	Dimensions int
	// Threshold is the minimum similarity applied by the postgres backend.
	Threshold float64
	// QueryTimeout bounds each remote search call (0 disables).
	QueryTimeout time.Duration
}

// New constructs the retriever for opts.Mode. The mapping is pure: an
// unrecognized mode fails with invalid_configuration before any network or
// model resource is touched. db is only required in postgres mode.
func New(opts Options, db *sql.DB, logger *zap.Logger) (Retriever, error) {
	switch opts.Mode {
	case ModeLocal, "":
		return NewLocalRetriever(opts.Dimensions, logger)
	case ModePostgres:
		if db == nil {
			return nil, vector.NewError(vector.KindInvalidConfiguration,
				"postgres retriever mode requires a database connection", nil)
		}
		idx, err := vector.NewPostgresIndex(db, opts.Dimensions, opts.Threshold, opts.QueryTimeout, logger)
		if err != nil {
			return nil, err
		}
		return NewPostgresRetriever(idx, logger)
	default:
		return nil, vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("unknown retriever mode %q (supported: %s, %s)", opts.Mode, ModeLocal, ModePostgres), nil)
	}
}
