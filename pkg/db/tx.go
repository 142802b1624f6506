package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// WithTx 开启事务执行 fn：fn 成功则提交，返回错误或 panic 则回滚（panic 会继续抛出）。
// conn 本身是 pgx.Tx 时开启的是 savepoint。
func WithTx(ctx context.Context, conn Conn, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, rbErr)
			}
			return
		}
		err = tx.Commit(ctx)
	}()

	err = fn(ctx, tx)
	return err
}
