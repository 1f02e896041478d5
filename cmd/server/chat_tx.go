package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "touch/pkg/domain-errors"
	"touch/pkg/platform/tx"
)

const defaultChatTxTimeout = 5 * time.Second

// chatPostgresTx runs a chat unit of work in one database transaction. The
// Postgres stores pick the transaction up from the context.
type chatPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newChatPostgresTx(db *sql.DB) *chatPostgresTx {
	return &chatPostgresTx{db: db}
}

func (t *chatPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultChatTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return err
	}
	return nil
}
