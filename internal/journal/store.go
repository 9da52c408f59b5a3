package journal

import (
	"context"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"

	"hftgate/pkg/exception"
)

// Store persists journal records.
type Store interface {
	Save(ctx context.Context, records []Record) error
}

// GormStore writes records through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, exception.ErrNilInstance
	}
	return &GormStore{db: db}, nil
}

// Migrate creates or updates the events table.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return errors.Wrap(err, "migrate journal")
	}
	return nil
}

func (s *GormStore) Save(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(records, len(records)).Error; err != nil {
		return errors.Wrap(err, "insert journal records").With("count", len(records))
	}
	return nil
}
