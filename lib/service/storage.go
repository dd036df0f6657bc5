package service

import (
	"context"

	"github.com/sufhub/sufhub.go/db/models"
)

// Storage is the row-store surface the reconciliation engine runs against.
// Find methods return (nil, nil) when no row matches the natural key.
//
// RunInTx runs fn against a transactional view of the same store; every
// write inside fn commits or rolls back as one unit.
type Storage interface {
	FindStoreByKey(ctx context.Context, code, country string) (*models.Store, error)
	InsertStore(ctx context.Context, store *models.Store) (int64, error)
	UpdateStore(ctx context.Context, store *models.Store) error

	FindStoreByID(ctx context.Context, storeID int64) (*models.Store, error)
	DeleteStore(ctx context.Context, storeID int64) error
	CountReceiptsByStore(ctx context.Context, storeID int64) (int, error)

	FindReceiptByKey(ctx context.Context, country string, storeID int64, code string, time int64) (*models.Receipt, error)
	FindReceiptByID(ctx context.Context, receiptID int64) (*models.Receipt, error)
	InsertReceipt(ctx context.Context, receipt *models.Receipt) (int64, error)
	UpdateReceipt(ctx context.Context, receipt *models.Receipt) error
	DeleteReceipt(ctx context.Context, receiptID int64) error

	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Storage) error) error
}
