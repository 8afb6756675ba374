package outbox

import (
	"errors"

	"github.com/angelmondragon/canyonbook-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DLQRepository parks events the publisher gave up on.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// InsertTx parks entry in the same transaction that marks the outbox row terminal.
func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("dlq insert needs a transaction")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if msg := entry.ErrorMessage; msg != nil && len(*msg) > maxLastErrorLen {
		clipped := truncate(*msg, maxLastErrorLen)
		entry.ErrorMessage = &clipped
	}
	return tx.Create(&entry).Error
}
