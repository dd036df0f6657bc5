package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sufhub/sufhub.go/db/models"
	"github.com/sufhub/sufhub.go/lib/service"
	"github.com/uptrace/bun"
)

// RowStore implements service.Storage on top of bun. The same type serves
// both the plain connection and the transactional view handed out by
// RunInTx, since bun.IDB covers both.
type RowStore struct {
	db bun.IDB
}

func NewRowStore(db *bun.DB) *RowStore {
	return &RowStore{db: db}
}

func (s *RowStore) FindStoreByKey(ctx context.Context, code, country string) (*models.Store, error) {
	var store models.Store
	err := s.db.NewSelect().Model(&store).Where("code = ? AND country = ?", code, country).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (s *RowStore) InsertStore(ctx context.Context, store *models.Store) (int64, error) {
	_, err := s.db.NewInsert().Model(store).Exec(ctx)
	return store.ID, err
}

func (s *RowStore) UpdateStore(ctx context.Context, store *models.Store) error {
	_, err := s.db.NewUpdate().Model(store).WherePK().Exec(ctx)
	return err
}

func (s *RowStore) FindStoreByID(ctx context.Context, storeID int64) (*models.Store, error) {
	var store models.Store
	err := s.db.NewSelect().Model(&store).Where("id = ?", storeID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (s *RowStore) DeleteStore(ctx context.Context, storeID int64) error {
	_, err := s.db.NewDelete().Model((*models.Store)(nil)).Where("id = ?", storeID).Exec(ctx)
	return err
}

func (s *RowStore) CountReceiptsByStore(ctx context.Context, storeID int64) (int, error) {
	return s.db.NewSelect().Model((*models.Receipt)(nil)).Where("store_id = ?", storeID).Count(ctx)
}

func (s *RowStore) FindReceiptByKey(ctx context.Context, country string, storeID int64, code string, time int64) (*models.Receipt, error) {
	var receipt models.Receipt
	err := s.db.NewSelect().Model(&receipt).
		Where("country = ? AND store_id = ? AND code = ? AND time = ?", country, storeID, code, time).
		Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (s *RowStore) InsertReceipt(ctx context.Context, receipt *models.Receipt) (int64, error) {
	_, err := s.db.NewInsert().Model(receipt).Exec(ctx)
	return receipt.ID, err
}

func (s *RowStore) UpdateReceipt(ctx context.Context, receipt *models.Receipt) error {
	_, err := s.db.NewUpdate().Model(receipt).WherePK().Exec(ctx)
	return err
}

func (s *RowStore) FindReceiptByID(ctx context.Context, receiptID int64) (*models.Receipt, error) {
	var receipt models.Receipt
	err := s.db.NewSelect().Model(&receipt).Where("id = ?", receiptID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (s *RowStore) DeleteReceipt(ctx context.Context, receiptID int64) error {
	_, err := s.db.NewDelete().Model((*models.Receipt)(nil)).Where("id = ?", receiptID).Exec(ctx)
	return err
}

func (s *RowStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx service.Storage) error) error {
	conn, ok := s.db.(*bun.DB)
	if !ok {
		// already inside a transaction
		return fn(ctx, s)
	}
	return conn.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &RowStore{db: tx})
	})
}

var _ service.Storage = (*RowStore)(nil)
