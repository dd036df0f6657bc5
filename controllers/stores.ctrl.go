package controllers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sufhub/sufhub.go/lib/responses"
	"github.com/sufhub/sufhub.go/lib/service"
)

// StoreController : Store controller struct
type StoreController struct {
	svc *service.SufhubService
}

func NewStoreController(svc *service.SufhubService) *StoreController {
	return &StoreController{svc: svc}
}

type UpdateStoreRequestBody struct {
	UsersName string `json:"users_name"`
	Note      string `json:"note"`
}

func (controller *StoreController) GetStores(c echo.Context) error {
	stores, err := controller.svc.Stores(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("Failed to list stores: %v", err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	return c.JSON(http.StatusOK, stores)
}

func (controller *StoreController) GetStore(c echo.Context) error {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	store, err := controller.svc.FindStore(c.Request().Context(), storeID)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, store)
}

// UpdateStore writes the user-owned store fields. The authority fields are
// only ever written by reconciliation.
func (controller *StoreController) UpdateStore(c echo.Context) error {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	var body UpdateStoreRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load store request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	store, err := controller.svc.UpdateStoreUserFields(c.Request().Context(), storeID, body.UsersName, body.Note)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, store)
}

func storeError(c echo.Context, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(responses.NotFoundError.HttpStatusCode, responses.NotFoundError)
	}
	c.Logger().Errorf("Store request failed: %v", err)
	return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
}
