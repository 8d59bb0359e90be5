package db

import (
	"context"

	"gorm.io/gorm"
)

// First loads the first T matching the condition. A miss returns
// gorm.ErrRecordNotFound, which IsNotFound recognises.
func First[T any](ctx context.Context, conn *gorm.DB, query any, args ...any) (*T, error) {
	row, err := gorm.G[T](conn).Where(query, args...).First(ctx)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Exists reports whether any T matches the condition without loading it.
func Exists[T any](ctx context.Context, conn *gorm.DB, query any, args ...any) (bool, error) {
	var hit int
	err := conn.WithContext(ctx).Model(new(T)).Select("1").Where(query, args...).Limit(1).Scan(&hit).Error
	return hit == 1, err
}

// Pick returns tx when set, otherwise fallback.
func Pick(tx, fallback *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return fallback
}
