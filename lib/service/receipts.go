package service

import (
	"context"
	"database/sql"

	"github.com/sufhub/sufhub.go/common"
	"github.com/sufhub/sufhub.go/db/models"
)

func (svc *SufhubService) FindReceipt(ctx context.Context, receiptID int64) (*models.Receipt, error) {
	var receipt models.Receipt
	err := svc.DB.NewSelect().Model(&receipt).Relation("Store").Where("receipt.id = ?", receiptID).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (svc *SufhubService) Receipts(ctx context.Context, limit, offset int) ([]models.Receipt, error) {
	receipts := []models.Receipt{}
	q := svc.DB.NewSelect().Model(&receipts).Relation("Store").Order("time DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Scan(ctx)
	return receipts, err
}

// UpdateReceiptNote writes the one receipt field the user owns.
func (svc *SufhubService) UpdateReceiptNote(ctx context.Context, receiptID int64, note string) (*models.Receipt, error) {
	receipt, err := svc.FindReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	receipt.Note = note
	_, err = svc.DB.NewUpdate().Model(receipt).Column("note", "updated_at").WherePK().Exec(ctx)
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// DeleteReceipt removes a receipt and, when it was the store's last one, the
// store as well. Both deletes commit as one unit, and the whole thing holds
// the store's reconciliation lock: otherwise a concurrent scan could insert
// a new receipt between the orphan check and the store delete and be left
// pointing at a store that no longer exists.
func (svc *SufhubService) DeleteReceipt(ctx context.Context, receiptID int64) error {
	receipt, err := svc.Store.FindReceiptByID(ctx, receiptID)
	if err != nil {
		return err
	}
	if receipt == nil {
		return sql.ErrNoRows
	}
	store, err := svc.Store.FindStoreByID(ctx, receipt.StoreID)
	if err != nil {
		return err
	}
	if store == nil {
		return sql.ErrNoRows
	}

	lock := svc.reconcileLocks.forKey(store.Code + "/" + store.Country)
	lock.Lock()
	defer lock.Unlock()

	return svc.Store.RunInTx(ctx, func(ctx context.Context, tx Storage) error {
		if err := tx.DeleteReceipt(ctx, receiptID); err != nil {
			return err
		}
		remaining, err := tx.CountReceiptsByStore(ctx, receipt.StoreID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return tx.DeleteStore(ctx, receipt.StoreID)
		}
		return nil
	})
}

// RefreshReceipt retries portal enrichment for a receipt that is not yet
// fully synced, for example after a scan that happened without connectivity.
func (svc *SufhubService) RefreshReceipt(ctx context.Context, receiptID int64) (*models.Receipt, error) {
	receipt, err := svc.FindReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt.Status == common.StatusOnline {
		return receipt, nil
	}

	full, err := svc.Fetcher.FetchFullReceipt(ctx, receipt.URL)
	if err != nil {
		return nil, err
	}

	candidateStore := &models.Store{
		Status:       common.StatusOnline,
		Code:         receipt.Store.Code,
		Country:      receipt.Country,
		Name:         full.Store.Name,
		Municipality: full.Store.Municipality,
		City:         full.Store.City,
		Address:      full.Store.Address,
	}
	candidate := *receipt
	candidate.ID = 0
	candidate.Store = nil
	candidate.Note = ""
	candidate.Status = common.StatusOnline
	candidate.Text = full.Text

	// The row is not ONLINE yet, so reconciliation resolves to an
	// update-in-place on the same id.
	if _, err := svc.Reconcile(ctx, &candidate, candidateStore); err != nil {
		return nil, err
	}

	refreshed, err := svc.FindReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	svc.ReceiptPubSub.Publish(refreshed.Country, *refreshed)
	return refreshed, nil
}
