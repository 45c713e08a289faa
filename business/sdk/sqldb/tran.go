package sqldb

import (
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
)

// Beginner represents a value that can begin a transaction.
type Beginner interface {
	Begin() (CommitRollbacker, error)
}

// CommitRollbacker represents a value that can commit or rollback a transaction.
type CommitRollbacker interface {
	Commit() error
	Rollback() error
}

// =============================================================================

// DBBeginner implements the Beginner interface,
type DBBeginner struct {
	sqlxDB *sqlx.DB
}

// NewBeginner constructs a value that implements the beginner interface.
func NewBeginner(sqlxDB *sqlx.DB) *DBBeginner {
	return &DBBeginner{
		sqlxDB: sqlxDB,
	}
}

// Begin implements the Beginner interface and returns a concrete value that
// implements the CommitRollbacker interface.
func (db *DBBeginner) Begin() (CommitRollbacker, error) {
	tx, err := db.sqlxDB.Beginx()
	if err != nil {
		return nil, err
	}

	return &Tx{Tx: tx}, nil
}

// Tx is a database transaction that runs registered functions once the
// commit succeeds.
type Tx struct {
	*sqlx.Tx

	mu       sync.Mutex
	onCommit []func()
}

// Commit commits the transaction and then runs the OnCommit functions in
// the order they were registered.
func (tx *Tx) Commit() error {
	if err := tx.Tx.Commit(); err != nil {
		return err
	}

	tx.mu.Lock()
	fns := tx.onCommit
	tx.onCommit = nil
	tx.mu.Unlock()

	for _, fn := range fns {
		fn()
	}

	return nil
}

// OnCommit registers fn to run after a successful commit. It never runs
// when the transaction rolls back.
func (tx *Tx) OnCommit(fn func()) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	tx.onCommit = append(tx.onCommit, fn)
}

// AfterCommit runs fn once tx commits. A transaction without commit hooks
// runs fn immediately.
func AfterCommit(tx CommitRollbacker, fn func()) {
	hooker, ok := tx.(interface{ OnCommit(func()) })
	if !ok {
		fn()
		return
	}

	hooker.OnCommit(fn)
}

// GetExtContext is a helper function that extracts the sqlx value
// from the domain transactor interface for transactional use.
func GetExtContext(tx CommitRollbacker) (sqlx.ExtContext, error) {
	ec, ok := tx.(sqlx.ExtContext)
	if !ok {
		return nil, fmt.Errorf("Transactor(%T) not of a type *sql.Tx", tx)
	}

	return ec, nil
}
