package service

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufhub/sufhub.go/common"
	"github.com/sufhub/sufhub.go/scraper"
)

// fakeFetcher returns a canned portal result, or err when set.
type fakeFetcher struct {
	full  *scraper.FullReceipt
	err   error
	calls int
}

func (f *fakeFetcher) FetchFullReceipt(ctx context.Context, url string) (*scraper.FullReceipt, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.full, nil
}

func portalReceipt() *scraper.FullReceipt {
	return &scraper.FullReceipt{
		Text: "============\nFISKALNI RACUN\n============",
		Store: scraper.StoreDetails{
			Name:         "Prodavnica 42",
			Municipality: "Vracar",
			City:         "Beograd",
			Address:      "Njegoseva 1",
		},
	}
}

// scanURL builds a valid Serbian verification URL with the given receipt
// counter, so successive calls produce distinct natural keys.
func scanURL(t *testing.T, totalTx uint32) string {
	t.Helper()
	body := make([]byte, 44)
	body[0] = 3
	copy(body[1:9], "RRRRRRRR")
	copy(body[9:17], "SSSSSSSS")
	binary.LittleEndian.PutUint32(body[17:], totalTx)
	binary.LittleEndian.PutUint32(body[21:], 1)
	binary.LittleEndian.PutUint64(body[25:], 12345000)
	binary.BigEndian.PutUint64(body[33:], 1700000000)
	sum := md5.Sum(body)
	data := append(body, sum[:]...)
	return "https://suf.purs.gov.rs/v/?vl=" + base64.StdEncoding.EncodeToString(data)
}

func TestProcessScanOnline(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, &fakeFetcher{full: portalReceipt()})

	result, err := svc.ProcessScan(context.Background(), scanURL(t, 100))
	require.NoError(t, err)
	require.False(t, result.Duplicate)
	require.NoError(t, result.EnrichErr)

	got := storage.receiptByID(result.ReceiptID)
	require.NotNil(t, got)
	assert.Equal(t, common.StatusOnline, got.Status)
	assert.Contains(t, got.Text, "FISKALNI RACUN")

	gotStore := storage.storeByID(got.StoreID)
	assert.Equal(t, common.StatusOnline, gotStore.Status)
	assert.Equal(t, "Prodavnica 42", gotStore.Name)
}

func TestProcessScanFetchFailureFallsBackToOffline(t *testing.T) {
	storage := newFakeStorage()
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: connection refused", scraper.ErrNetwork)}
	svc := newTestService(storage, fetcher)

	result, err := svc.ProcessScan(context.Background(), scanURL(t, 101))
	require.NoError(t, err, "a fetch failure must not fail the scan")
	assert.ErrorIs(t, result.EnrichErr, scraper.ErrNetwork)

	got := storage.receiptByID(result.ReceiptID)
	require.NotNil(t, got)
	assert.Equal(t, common.StatusOffline, got.Status)
	assert.Empty(t, got.Text)

	gotStore := storage.storeByID(got.StoreID)
	assert.Equal(t, "RRRRRRRR-SSSSSSSS", gotStore.Code)
	assert.Empty(t, gotStore.Name, "the placeholder carries only the natural key")
}

func TestProcessScanUpgradeHandsStoreItsName(t *testing.T) {
	storage := newFakeStorage()
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: connection refused", scraper.ErrNetwork)}
	svc := newTestService(storage, fetcher)
	ctx := context.Background()

	first, err := svc.ProcessScan(ctx, scanURL(t, 104))
	require.NoError(t, err)
	storeID := storage.receiptByID(first.ReceiptID).StoreID

	// connectivity comes back, the rescan reaches the portal
	fetcher.err = nil
	fetcher.full = portalReceipt()
	second, err := svc.ProcessScan(ctx, scanURL(t, 104))
	require.NoError(t, err)
	require.False(t, second.Duplicate)
	assert.Equal(t, first.ReceiptID, second.ReceiptID)

	got := storage.storeByID(storeID)
	assert.Equal(t, "Prodavnica 42", got.Name)
	assert.Equal(t, common.StatusOnline, got.Status)
}

func TestProcessScanExtractFailureMarksOnlineFailure(t *testing.T) {
	storage := newFakeStorage()
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: receipt markup not found", scraper.ErrExtract)}
	svc := newTestService(storage, fetcher)

	result, err := svc.ProcessScan(context.Background(), scanURL(t, 102))
	require.NoError(t, err)
	assert.ErrorIs(t, result.EnrichErr, scraper.ErrExtract)

	got := storage.receiptByID(result.ReceiptID)
	assert.Equal(t, common.StatusOnlineFailure, got.Status)
	assert.Equal(t, common.StatusOnlineFailure, storage.storeByID(got.StoreID).Status)
}

func TestProcessScanDecodeFailureWritesNothing(t *testing.T) {
	storage := newFakeStorage()
	fetcher := &fakeFetcher{full: portalReceipt()}
	svc := newTestService(storage, fetcher)

	_, err := svc.ProcessScan(context.Background(), "https://evil.example.com/v/?vl=abc")
	require.Error(t, err)
	assert.Zero(t, fetcher.calls)
	assert.Equal(t, 0, storage.receiptCount())
	assert.Equal(t, 0, storage.storeCount())
}

func TestProcessScanDuplicate(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, &fakeFetcher{full: portalReceipt()})
	ctx := context.Background()

	url := scanURL(t, 103)
	first, err := svc.ProcessScan(ctx, url)
	require.NoError(t, err)
	require.NotZero(t, first.ReceiptID)

	second, err := svc.ProcessScan(ctx, url)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Zero(t, second.ReceiptID)
	assert.Equal(t, 1, storage.receiptCount())
}

func TestImportLines(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, &fakeFetcher{full: portalReceipt()})

	lines := []string{
		scanURL(t, 200),
		"",
		scanURL(t, 201),
		"   ",
		scanURL(t, 200), // repeated scan of the first receipt
		"not-a-receipt-url",
	}

	summary, err := svc.ImportLines(context.Background(), lines)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, summary.Items, 4, "blank lines are dropped")
	assert.Equal(t, 2, storage.receiptCount())
	assert.Equal(t, 1, storage.storeCount())
}

func TestImportLinesWithoutConfiguredConcurrency(t *testing.T) {
	storage := newFakeStorage()
	svc := newTestService(storage, &fakeFetcher{full: portalReceipt()})
	svc.Config.ImportConcurrency = 0

	summary, err := svc.ImportLines(context.Background(), []string{
		scanURL(t, 300),
		scanURL(t, 301),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Imported)
}
