package service

import (
	"context"
	"sync"

	"github.com/sufhub/sufhub.go/db/models"
)

// fakeStorage is an in-memory Storage used by the reconciliation and scan
// tests. Rows are copied on every read and write so tests cannot alias
// stored state through returned pointers.
type fakeStorage struct {
	mu            sync.Mutex
	stores        map[int64]*models.Store
	receipts      map[int64]*models.Receipt
	nextStoreID   int64
	nextReceiptID int64
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		stores:   make(map[int64]*models.Store),
		receipts: make(map[int64]*models.Receipt),
	}
}

func (f *fakeStorage) FindStoreByKey(ctx context.Context, code, country string) (*models.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.stores {
		if s.Code == code && s.Country == country {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStorage) InsertStore(ctx context.Context, store *models.Store) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextStoreID++
	copied := *store
	copied.ID = f.nextStoreID
	f.stores[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeStorage) UpdateStore(ctx context.Context, store *models.Store) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *store
	f.stores[copied.ID] = &copied
	return nil
}

func (f *fakeStorage) FindStoreByID(ctx context.Context, storeID int64) (*models.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stores[storeID]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStorage) DeleteStore(ctx context.Context, storeID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stores, storeID)
	return nil
}

func (f *fakeStorage) CountReceiptsByStore(ctx context.Context, storeID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.receipts {
		if r.StoreID == storeID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStorage) FindReceiptByKey(ctx context.Context, country string, storeID int64, code string, time int64) (*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.receipts {
		if r.Country == country && r.StoreID == storeID && r.Code == code && r.Time == time {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStorage) InsertReceipt(ctx context.Context, receipt *models.Receipt) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextReceiptID++
	copied := *receipt
	copied.ID = f.nextReceiptID
	f.receipts[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeStorage) UpdateReceipt(ctx context.Context, receipt *models.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *receipt
	f.receipts[copied.ID] = &copied
	return nil
}

func (f *fakeStorage) FindReceiptByID(ctx context.Context, receiptID int64) (*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[receiptID]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStorage) DeleteReceipt(ctx context.Context, receiptID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.receipts, receiptID)
	return nil
}

func (f *fakeStorage) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Storage) error) error {
	return fn(ctx, f)
}

func (f *fakeStorage) storeByID(id int64) *models.Store {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stores[id]; ok {
		copied := *s
		return &copied
	}
	return nil
}

func (f *fakeStorage) receiptByID(id int64) *models.Receipt {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[id]; ok {
		copied := *r
		return &copied
	}
	return nil
}

func (f *fakeStorage) storeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stores)
}

func (f *fakeStorage) receiptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.receipts)
}

func (f *fakeStorage) allReceipts() []*models.Receipt {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Receipt, 0, len(f.receipts))
	for _, r := range f.receipts {
		copied := *r
		out = append(out, &copied)
	}
	return out
}

var _ Storage = (*fakeStorage)(nil)
