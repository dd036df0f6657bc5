package service

import (
	"context"
	"errors"
	"sync"

	"github.com/sufhub/sufhub.go/common"
	"github.com/sufhub/sufhub.go/db/models"
)

// ErrDuplicateReceipt is the definite negative outcome of reconciliation:
// the candidate matches a receipt that is already fully synced. It is not an
// error condition from the engine's perspective.
var ErrDuplicateReceipt = errors.New("receipt already recorded and fully synced")

// keyLocks serializes reconciliation per store natural key so that two
// concurrent candidates cannot both observe "absent" and double-insert.
// The record set is small, so entries are never evicted.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (kl *keyLocks) forKey(key string) *sync.Mutex {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	if kl.locks == nil {
		kl.locks = make(map[string]*sync.Mutex)
	}
	if kl.locks[key] == nil {
		kl.locks[key] = &sync.Mutex{}
	}
	return kl.locks[key]
}

// Reconcile merges a freshly decoded (receipt, store) candidate pair into the
// record set and returns the id of the receipt row it resolved to.
//
// A scan alone yields only the payload identifiers (OFFLINE); a later
// successful portal fetch yields full detail (ONLINE). The same natural key
// may therefore be written several times as detail becomes available, and
// the merge must never let a less-detailed candidate clobber a more-detailed
// row, nor let machine data overwrite the user-owned fields.
func (svc *SufhubService) Reconcile(ctx context.Context, receipt *models.Receipt, store *models.Store) (int64, error) {
	lock := svc.reconcileLocks.forKey(store.Code + "/" + store.Country)
	lock.Lock()
	defer lock.Unlock()

	var receiptID int64
	err := svc.Store.RunInTx(ctx, func(ctx context.Context, tx Storage) error {
		storeID, err := resolveStore(ctx, tx, store)
		if err != nil {
			return err
		}

		existing, err := tx.FindReceiptByKey(ctx, receipt.Country, storeID, receipt.Code, receipt.Time)
		if err != nil {
			return err
		}

		switch {
		case existing == nil:
			candidate := *receipt
			candidate.StoreID = storeID
			receiptID, err = tx.InsertReceipt(ctx, &candidate)
			return err
		case existing.Status == common.StatusOnline:
			// Already fully synced, nothing may touch it.
			return ErrDuplicateReceipt
		default:
			receiptID = existing.ID
			return tx.UpdateReceipt(ctx, mergeReceipt(existing, receipt, storeID))
		}
	})
	if err != nil {
		return 0, err
	}
	return receiptID, nil
}

// resolveStore makes sure the candidate's store exists and returns its id.
func resolveStore(ctx context.Context, tx Storage, store *models.Store) (int64, error) {
	existing, err := tx.FindStoreByKey(ctx, store.Code, store.Country)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		return tx.InsertStore(ctx, store)
	}
	if existing.Status == common.StatusOnline {
		// Authoritative row: no downgrade, no field overwrite.
		return existing.ID, nil
	}
	return existing.ID, tx.UpdateStore(ctx, mergeStore(existing, store))
}

// mergeStore applies the merge for a not-yet-ONLINE store: the name comes
// from the candidate (a successful fetch must replace whatever a placeholder
// left behind), the location fields keep their existing value when set, and
// the user-owned fields always come from the existing row.
func mergeStore(existing, candidate *models.Store) *models.Store {
	merged := *candidate
	merged.ID = existing.ID
	merged.UsersName = existing.UsersName
	merged.Note = existing.Note
	if merged.Name == "" {
		merged.Name = existing.Name
	}
	if existing.Municipality != "" {
		merged.Municipality = existing.Municipality
	}
	if existing.City != "" {
		merged.City = existing.City
	}
	if existing.Address != "" {
		merged.Address = existing.Address
	}
	merged.CreatedAt = existing.CreatedAt
	return &merged
}

// mergeReceipt overwrites all machine fields of a not-yet-ONLINE receipt
// from the candidate, keeping the existing id and the user-owned note.
func mergeReceipt(existing, candidate *models.Receipt, storeID int64) *models.Receipt {
	merged := *candidate
	merged.ID = existing.ID
	merged.StoreID = storeID
	merged.Note = existing.Note
	merged.CreatedAt = existing.CreatedAt
	return &merged
}
