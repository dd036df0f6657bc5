package migrations

import (
	"context"

	"github.com/sufhub/sufhub.go/db/models"
	"github.com/uptrace/bun"
)

/* Since this init will reflect the latest model fields when run on a fresh db
make sure that when you add/remove columns in subsequent migrations
IfNotExists/IfExists is used, otherwise it's going to result in errors. */
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {

		if _, err := db.NewCreateTable().Model((*models.Store)(nil)).Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().
			Model((*models.Receipt)(nil)).
			ForeignKey(`("store_id") REFERENCES "stores" ("id")`).
			Exec(ctx); err != nil {
			return err
		}

		// Natural keys. Reconciliation relies on these staying unique.
		if _, err := db.NewCreateIndex().
			Model((*models.Store)(nil)).
			Index("stores_code_country_idx").
			Column("code", "country").
			Unique().
			Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateIndex().
			Model((*models.Receipt)(nil)).
			Index("receipts_natural_key_idx").
			Column("country", "store_id", "code", "time").
			Unique().
			Exec(ctx); err != nil {
			return err
		}

		return nil
	}, nil)
}
