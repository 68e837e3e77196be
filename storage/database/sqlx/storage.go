package sqlxstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core/session"
)

var nowFunc = time.Now // mockable

// DB hands out a session.Storage per namespace, all backed by the session_storage table.
type DB struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *DB {
	return &DB{db: db}
}

func (d *DB) For(namespace string) session.Storage {
	return &storage{db: d.db, namespace: namespace}
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Sweep deletes the namespaces untouched since before.
func (d *DB) Sweep(ctx context.Context, before time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, d.db.Rebind(`
		DELETE FROM session_storage
		WHERE namespace IN (
			SELECT namespace FROM session_storage GROUP BY namespace HAVING MAX(updated_at) < ?
		)`), before.Unix())
	if err != nil {
		return 0, errors.Wrap(err, "sweeping session storage")
	}
	return res.RowsAffected()
}

type storage struct {
	db        *sqlx.DB
	namespace string
}

func (s *storage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	q := s.db.Rebind(`SELECT value FROM session_storage WHERE namespace = ? AND name = ?`)
	if err := s.db.GetContext(ctx, &value, q, s.namespace, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "reading %s", key)
	}
	return value, true, nil
}

func (s *storage) Replace(ctx context.Context, items map[string]string) error {
	q := s.db.Rebind(`
		INSERT INTO session_storage (namespace, name, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	now := nowFunc().Unix()

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for key, value := range items {
			if _, err := tx.ExecContext(ctx, q, s.namespace, key, value, now); err != nil {
				return errors.Wrapf(err, "writing %s", key)
			}
		}
		return nil
	})
}

func (s *storage) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM session_storage WHERE namespace = ? AND name IN (?)`, s.namespace, keys)
	if err != nil {
		return errors.Wrap(err, "building delete")
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(q), args...); err != nil {
			return errors.Wrap(err, "removing keys")
		}
		return nil
	})
}

func (s *storage) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
