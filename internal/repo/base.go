package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Base is embedded by domain repositories. It carries the connection and lets a
// repository be rebound to an open transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx returns the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Bind returns a copy of the base that runs on tx. A nil tx keeps the current connection.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// FirstOrNil loads the first row matching query into dest and reports whether it was found.
func FirstOrNil[T any](q *gorm.DB, query string, args ...any) (*T, error) {
	var dest T
	err := q.Where(query, args...).First(&dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dest, nil
}
