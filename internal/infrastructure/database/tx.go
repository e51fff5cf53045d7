package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// Conn returns the transaction carried by ctx, or db when there is none.
// The result is always bound to ctx.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

// RunInTx runs fn inside one transaction at the database's default isolation
// (read committed on Postgres). Repositories reached through the ctx passed
// to fn join the transaction. fn returning an error, or panicking, rolls
// everything back. A RunInTx nested inside another joins the outer one.
func RunInTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}
