package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziflex/lecho/v3"

	"github.com/sufhub/sufhub.go/common"
	"github.com/sufhub/sufhub.go/db/models"
)

func newTestService(storage Storage, fetcher ReceiptFetcher) *SufhubService {
	return New(
		&Config{ImportConcurrency: 4},
		nil,
		storage,
		fetcher,
		lecho.New(io.Discard),
	)
}

func offlineCandidate() (*models.Receipt, *models.Store) {
	receipt := &models.Receipt{
		Amount:  12345000,
		Unit:    "RSD",
		Country: "RS",
		Time:    1700000000,
		Code:    "1234",
		Status:  common.StatusOffline,
		Type:    "SALE",
		URL:     "https://suf.purs.gov.rs/v/?vl=abc",
	}
	store := &models.Store{
		Status:  common.StatusOffline,
		Code:    "RRRRRRRR-SSSSSSSS",
		Country: "RS",
	}
	return receipt, store
}

func onlineCandidate() (*models.Receipt, *models.Store) {
	receipt, store := offlineCandidate()
	receipt.Status = common.StatusOnline
	receipt.Text = "============\nFISKALNI RACUN\n============"
	store.Status = common.StatusOnline
	store.Name = "Prodavnica 42"
	store.Municipality = "Vracar"
	store.City = "Beograd"
	store.Address = "Njegoseva 1"
	return receipt, store
}

func TestReconcileInsertsNewPair(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, nil)

	receipt, store := offlineCandidate()
	id, err := svc.Reconcile(context.Background(), receipt, store)
	require.NoError(t, err)

	got := storage.receiptByID(id)
	require.NotNil(t, got)
	assert.Equal(t, common.StatusOffline, got.Status)
	assert.Equal(t, "1234", got.Code)
	assert.NotZero(t, got.StoreID)

	gotStore := storage.storeByID(got.StoreID)
	require.NotNil(t, gotStore)
	assert.Equal(t, "RRRRRRRR-SSSSSSSS", gotStore.Code)
	assert.Equal(t, "RS", gotStore.Country)
}

func TestReconcileUpgradesOfflineReceipt(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, nil)
	ctx := context.Background()

	receipt, store := offlineCandidate()
	firstID, err := svc.Reconcile(ctx, receipt, store)
	require.NoError(t, err)

	// the user annotates the offline row before the portal sync lands
	noted := storage.receiptByID(firstID)
	noted.Note = "lunch with the team"
	require.NoError(t, storage.UpdateReceipt(ctx, noted))

	online, onlineStore := onlineCandidate()
	secondID, err := svc.Reconcile(ctx, online, onlineStore)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)
	assert.Equal(t, 1, storage.receiptCount())

	got := storage.receiptByID(firstID)
	assert.Equal(t, common.StatusOnline, got.Status)
	assert.NotEmpty(t, got.Text)
	assert.Equal(t, "lunch with the team", got.Note)
}

func TestReconcileSignalsDuplicateWhenOnline(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, nil)
	ctx := context.Background()

	online, onlineStore := onlineCandidate()
	_, err := svc.Reconcile(ctx, online, onlineStore)
	require.NoError(t, err)

	again, againStore := onlineCandidate()
	_, err = svc.Reconcile(ctx, again, againStore)
	assert.ErrorIs(t, err, ErrDuplicateReceipt)
	assert.Equal(t, 1, storage.receiptCount())
}

func TestReconcileNeverDowngradesOnlineStore(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, nil)
	ctx := context.Background()

	online, onlineStore := onlineCandidate()
	id, err := svc.Reconcile(ctx, online, onlineStore)
	require.NoError(t, err)
	storeID := storage.receiptByID(id).StoreID

	// a second receipt from the same store scanned without connectivity
	offline, offlineStore := offlineCandidate()
	offline.Code = "1235"
	_, err = svc.Reconcile(ctx, offline, offlineStore)
	require.NoError(t, err)

	got := storage.storeByID(storeID)
	assert.Equal(t, common.StatusOnline, got.Status)
	assert.Equal(t, "Prodavnica 42", got.Name)
	assert.Equal(t, "Beograd", got.City)
	assert.Equal(t, 1, storage.storeCount())
}

func TestReconcileFillsMissingStoreFields(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, nil)
	ctx := context.Background()

	first, firstStore := offlineCandidate()
	firstStore.Municipality = "Vracar"
	_, err := svc.Reconcile(ctx, first, firstStore)
	require.NoError(t, err)

	partial, partialStore := offlineCandidate()
	partial.Code = "1235"
	partialStore.Status = common.StatusOnlineFailure
	partialStore.Municipality = "Novi Beograd"
	partialStore.City = "Beograd"
	id, err := svc.Reconcile(ctx, partial, partialStore)
	require.NoError(t, err)

	got := storage.storeByID(storage.receiptByID(id).StoreID)
	assert.Equal(t, "Beograd", got.City, "empty field adopts the candidate value")
	assert.Equal(t, "Vracar", got.Municipality, "set field keeps the existing value")
	assert.Equal(t, common.StatusOnlineFailure, got.Status)
}

func TestReconcileAdoptsAuthorityName(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, nil)
	ctx := context.Background()

	// a scan without connectivity records the store with no name
	offline, offlineStore := offlineCandidate()
	id, err := svc.Reconcile(ctx, offline, offlineStore)
	require.NoError(t, err)
	storeID := storage.receiptByID(id).StoreID
	assert.Empty(t, storage.storeByID(storeID).Name)

	// the later successful fetch must hand the store its real name
	online, onlineStore := onlineCandidate()
	online.Code = "1235"
	_, err = svc.Reconcile(ctx, online, onlineStore)
	require.NoError(t, err)

	got := storage.storeByID(storeID)
	assert.Equal(t, "Prodavnica 42", got.Name)
	assert.Equal(t, common.StatusOnline, got.Status)
}

func TestReconcileProtectsUserOwnedStoreFields(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, nil)
	ctx := context.Background()

	offline, offlineStore := offlineCandidate()
	id, err := svc.Reconcile(ctx, offline, offlineStore)
	require.NoError(t, err)

	annotated := storage.storeByID(storage.receiptByID(id).StoreID)
	annotated.UsersName = "Corner shop"
	annotated.Note = "loyalty card 991"
	require.NoError(t, storage.UpdateStore(ctx, annotated))

	second, secondStore := offlineCandidate()
	second.Code = "1235"
	secondStore.Name = "Some other machine name"
	_, err = svc.Reconcile(ctx, second, secondStore)
	require.NoError(t, err)

	got := storage.storeByID(annotated.ID)
	assert.Equal(t, "Corner shop", got.UsersName)
	assert.Equal(t, "loyalty card 991", got.Note)
}

func TestReconcileSameKeyConcurrently(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			receipt, store := offlineCandidate()
			_, err := svc.Reconcile(context.Background(), receipt, store)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, storage.storeCount())
	assert.Equal(t, 1, storage.receiptCount())
}

func TestReconcileKeepsCountrySeparate(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, nil)
	ctx := context.Background()

	rs, rsStore := offlineCandidate()
	_, err := svc.Reconcile(ctx, rs, rsStore)
	require.NoError(t, err)

	ba, baStore := offlineCandidate()
	ba.Country = "BA"
	ba.Unit = "BAM"
	baStore.Country = "BA"
	_, err = svc.Reconcile(ctx, ba, baStore)
	require.NoError(t, err)

	assert.Equal(t, 2, storage.storeCount())
	assert.Equal(t, 2, storage.receiptCount())
}
