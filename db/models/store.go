package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Store : Store Model
// A business that issued at least one receipt. Natural key: (code, country).
type Store struct {
	bun.BaseModel `bun:"table:stores"`

	ID     int64  `json:"id" bun:",pk,autoincrement"`
	Status string `json:"status" bun:",notnull"`
	// Code is derived from the payload signer ids as "requestedBy-signedBy".
	Code    string `json:"code" bun:",notnull"`
	Country string `json:"country" bun:",notnull"`
	// Name is the authority-provided business name.
	Name string `json:"name" bun:",nullzero"`
	// UsersName is owned by the user editor and is never machine-written.
	UsersName    string `json:"users_name" bun:"users_name,nullzero"`
	Municipality string `json:"municipality" bun:",nullzero"`
	City         string `json:"city" bun:",nullzero"`
	Address      string `json:"address" bun:",nullzero"`
	// Note is owned by the user editor and is never machine-written.
	Note string `json:"note" bun:",nullzero"`

	CreatedAt time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt bun.NullTime `json:"updated_at"`
}

func (s *Store) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		s.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Store)(nil)
