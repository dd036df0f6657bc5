package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Receipt : Receipt Model
// One fiscal receipt as decoded from its QR payload, possibly enriched with
// the portal's full text. Natural key: (country, store_id, code, time).
type Receipt struct {
	bun.BaseModel `bun:"table:receipts"`

	ID int64 `json:"id" bun:",pk,autoincrement"`
	// Amount is the raw scaled integer; divide by 10000 for the human value.
	Amount  int64  `json:"amount" bun:",notnull"`
	Unit    string `json:"unit" bun:",notnull"`
	Country string `json:"country" bun:",notnull"`
	// Time is the payload timestamp in seconds since epoch.
	Time    int64  `json:"time" bun:",notnull"`
	StoreID int64  `json:"store_id" bun:"store_id,notnull"`
	Store   *Store `json:"-" bun:"rel:belongs-to,join:store_id=id"`
	// Code identifies the receipt within its store (total transaction counter).
	Code          string `json:"code" bun:",notnull"`
	PurchaserCode string `json:"purchaser_code,omitempty" bun:",nullzero"`
	Status        string `json:"status" bun:",notnull"`
	Type          string `json:"type" bun:",notnull"`
	// Text is the full receipt body from the portal, empty until fetched.
	Text string `json:"text,omitempty" bun:",nullzero"`
	URL  string `json:"url" bun:",notnull"`
	// Note is owned by the user editor and is never machine-written.
	Note string `json:"note,omitempty" bun:",nullzero"`

	CreatedAt time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt bun.NullTime `json:"updated_at"`
}

func (r *Receipt) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		r.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Receipt)(nil)
