package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via `tx`.
//
// Use-case interfaces stay clean (no driver types leak out), while
// repository methods that accept a Tx can detect the transactional path and
// upgrade reads to SELECT ... FOR UPDATE. The concrete type of `tx` is
// infra-defined (pgx.Tx for Postgres); repositories must gracefully accept
// NoTX and fall back to the pool.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
