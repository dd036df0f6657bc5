package service

import (
	"context"

	"github.com/sufhub/sufhub.go/scraper"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
)

// ReceiptFetcher is the portal scraper boundary. A fetch failure is never
// fatal for a scan: the pipeline falls back to a placeholder candidate.
type ReceiptFetcher interface {
	FetchFullReceipt(ctx context.Context, url string) (*scraper.FullReceipt, error)
}

type SufhubService struct {
	Config        *Config
	DB            *bun.DB
	Store         Storage
	Fetcher       ReceiptFetcher
	Logger        *lecho.Logger
	ReceiptPubSub *Pubsub

	reconcileLocks keyLocks
}

func New(config *Config, db *bun.DB, store Storage, fetcher ReceiptFetcher, logger *lecho.Logger) *SufhubService {
	return &SufhubService{
		Config:        config,
		DB:            db,
		Store:         store,
		Fetcher:       fetcher,
		Logger:        logger,
		ReceiptPubSub: NewPubsub(),
	}
}
