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

// ReceiptController : Receipt controller struct
type ReceiptController struct {
	svc *service.SufhubService
}

func NewReceiptController(svc *service.SufhubService) *ReceiptController {
	return &ReceiptController{svc: svc}
}

type UpdateReceiptNoteRequestBody struct {
	Note string `json:"note"`
}

// GetReceipts returns the recorded receipts, newest first.
func (controller *ReceiptController) GetReceipts(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	receipts, err := controller.svc.Receipts(c.Request().Context(), limit, offset)
	if err != nil {
		c.Logger().Errorf("Failed to list receipts: %v", err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	return c.JSON(http.StatusOK, receipts)
}

func (controller *ReceiptController) GetReceipt(c echo.Context) error {
	receiptID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	receipt, err := controller.svc.FindReceipt(c.Request().Context(), receiptID)
	if err != nil {
		return receiptError(c, err)
	}
	return c.JSON(http.StatusOK, receipt)
}

// UpdateReceiptNote writes the user-owned note. Machine fields are only ever
// written by reconciliation.
func (controller *ReceiptController) UpdateReceiptNote(c echo.Context) error {
	receiptID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	var body UpdateReceiptNoteRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load note request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	receipt, err := controller.svc.UpdateReceiptNote(c.Request().Context(), receiptID, body.Note)
	if err != nil {
		return receiptError(c, err)
	}
	return c.JSON(http.StatusOK, receipt)
}

// DeleteReceipt removes a receipt; its store goes with it when no other
// receipt references it.
func (controller *ReceiptController) DeleteReceipt(c echo.Context) error {
	receiptID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if err := controller.svc.DeleteReceipt(c.Request().Context(), receiptID); err != nil {
		return receiptError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RefreshReceipt retries portal enrichment for a not-yet-synced receipt.
func (controller *ReceiptController) RefreshReceipt(c echo.Context) error {
	receiptID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	receipt, err := controller.svc.RefreshReceipt(c.Request().Context(), receiptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(responses.NotFoundError.HttpStatusCode, responses.NotFoundError)
		}
		c.Logger().Errorf("Failed to refresh receipt %d: %v", receiptID, err)
		resp := responses.Classify(err)
		return c.JSON(resp.HttpStatusCode, resp)
	}
	return c.JSON(http.StatusOK, receipt)
}

func receiptError(c echo.Context, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(responses.NotFoundError.HttpStatusCode, responses.NotFoundError)
	}
	c.Logger().Errorf("Receipt request failed: %v", err)
	return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
}
