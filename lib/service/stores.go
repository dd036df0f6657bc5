package service

import (
	"context"

	"github.com/sufhub/sufhub.go/db/models"
)

func (svc *SufhubService) FindStore(ctx context.Context, storeID int64) (*models.Store, error) {
	var store models.Store
	err := svc.DB.NewSelect().Model(&store).Where("id = ?", storeID).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (svc *SufhubService) Stores(ctx context.Context) ([]models.Store, error) {
	stores := []models.Store{}
	err := svc.DB.NewSelect().Model(&stores).Order("name ASC").Scan(ctx)
	return stores, err
}

// UpdateStoreUserFields writes the two store fields the user owns. The
// reconciliation engine never touches them, so this is their only writer.
func (svc *SufhubService) UpdateStoreUserFields(ctx context.Context, storeID int64, usersName, note string) (*models.Store, error) {
	store, err := svc.FindStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	store.UsersName = usersName
	store.Note = note
	_, err = svc.DB.NewUpdate().Model(store).Column("users_name", "note", "updated_at").WherePK().Exec(ctx)
	if err != nil {
		return nil, err
	}
	return store, nil
}
