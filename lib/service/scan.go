package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sufhub/sufhub.go/common"
	"github.com/sufhub/sufhub.go/db/models"
	"github.com/sufhub/sufhub.go/scraper"
	"github.com/sufhub/sufhub.go/taxcore"
	"golang.org/x/sync/errgroup"
)

type ScanResult struct {
	ReceiptID int64
	Duplicate bool
	Receipt   *taxcore.SimpleReceipt
	// EnrichErr is the portal fetch failure, if any. The receipt was still
	// recorded; callers surface this as a warning, not a failure.
	EnrichErr error
}

// ProcessScan runs the full pipeline for one scanned code: decode the
// payload, enrich it from the portal when possible, and reconcile the
// resulting pair. Decode failures abort before anything is written;
// enrichment failures downgrade the candidate instead of aborting, because
// a decoded receipt is always worth recording.
func (svc *SufhubService) ProcessScan(ctx context.Context, rawURL string) (*ScanResult, error) {
	simple, err := taxcore.Decode(rawURL)
	if err != nil {
		return nil, err
	}

	receipt, store, enrichErr := svc.buildCandidate(ctx, simple)

	receiptID, err := svc.Reconcile(ctx, receipt, store)
	if errors.Is(err, ErrDuplicateReceipt) {
		return &ScanResult{Duplicate: true, Receipt: simple}, nil
	}
	if err != nil {
		return nil, err
	}

	receipt.ID = receiptID
	svc.ReceiptPubSub.Publish(receipt.Country, *receipt)

	return &ScanResult{ReceiptID: receiptID, Receipt: simple, EnrichErr: enrichErr}, nil
}

// buildCandidate turns a decoded payload into a persistable (receipt, store)
// pair. When the portal fetch fails the pair degrades to a placeholder:
// OFFLINE when the portal was never reached, ONLINE_FAILURE when it answered
// but the page could not be used.
func (svc *SufhubService) buildCandidate(ctx context.Context, simple *taxcore.SimpleReceipt) (*models.Receipt, *models.Store, error) {
	// the placeholder carries only the natural key; the name stays empty
	// until the portal supplies it
	storeCode := simple.StoreCode()
	store := &models.Store{
		Status:  common.StatusOffline,
		Code:    storeCode,
		Country: string(simple.Country),
	}

	status := common.StatusOffline
	text := ""

	full, err := svc.Fetcher.FetchFullReceipt(ctx, simple.URL)
	switch {
	case err == nil:
		store = &models.Store{
			Status:       common.StatusOnline,
			Code:         storeCode,
			Country:      string(simple.Country),
			Name:         full.Store.Name,
			Municipality: full.Store.Municipality,
			City:         full.Store.City,
			Address:      full.Store.Address,
		}
		status = common.StatusOnline
		text = full.Text
	case errors.Is(err, scraper.ErrExtract):
		svc.Logger.Warnf("Portal page for %s could not be extracted: %v", storeCode, err)
		status = common.StatusOnlineFailure
		store.Status = common.StatusOnlineFailure
	default:
		svc.Logger.Warnf("Portal fetch for %s failed, recording offline: %v", storeCode, err)
	}

	receipt := &models.Receipt{
		Amount:        simple.TotalAmount,
		Unit:          string(simple.Unit),
		Country:       string(simple.Country),
		Time:          simple.Timestamp,
		Code:          simple.ReceiptCode(),
		PurchaserCode: simple.BuyerID,
		Status:        status,
		Type:          string(simple.TransactionType),
		Text:          text,
		URL:           simple.URL,
	}
	return receipt, store, err
}

type ImportItem struct {
	Line      string `json:"line"`
	ReceiptID int64  `json:"receipt_id,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}

type ImportSummary struct {
	Imported   int          `json:"imported"`
	Duplicates int          `json:"duplicates"`
	Failed     int          `json:"failed"`
	Items      []ImportItem `json:"items"`
}

// ImportLines runs the scan pipeline over a batch of receipt URLs, one per
// line. Items fail individually, never the batch; per-key locking inside
// Reconcile keeps concurrent lines for the same store safe.
func (svc *SufhubService) ImportLines(ctx context.Context, lines []string) (*ImportSummary, error) {
	items := make([]ImportItem, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, ImportItem{Line: line})
	}

	concurrency := svc.Config.ImportConcurrency
	if concurrency < 1 {
		// SetLimit(0) would make every Go call block forever
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	summary := &ImportSummary{}

	for i := range items {
		i := i
		g.Go(func() error {
			result, err := svc.ProcessScan(ctx, items[i].Line)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				items[i].Error = err.Error()
				summary.Failed++
			case result.Duplicate:
				items[i].Duplicate = true
				summary.Duplicates++
			default:
				items[i].ReceiptID = result.ReceiptID
				summary.Imported++
			}
			return nil
		})
	}
	// Per-item errors are recorded above; the group never carries one.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.Items = items
	return summary, nil
}
