package controllers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/sufhub/sufhub.go/lib/responses"
	"github.com/sufhub/sufhub.go/lib/service"
)

// QRController : QR render controller struct
type QRController struct {
	svc *service.SufhubService
}

func NewQRController(svc *service.SufhubService) *QRController {
	return &QRController{svc: svc}
}

// ReceiptQR renders the stored verification URL back into a QR PNG, so a
// recorded receipt can be re-scanned or shared.
func (controller *QRController) ReceiptQR(c echo.Context) error {
	receiptID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	receipt, err := controller.svc.FindReceipt(c.Request().Context(), receiptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(responses.NotFoundError.HttpStatusCode, responses.NotFoundError)
		}
		c.Logger().Errorf("Failed to load receipt %d: %v", receiptID, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}

	png, err := qrcode.Encode(receipt.URL, qrcode.Medium, 512)
	if err != nil {
		c.Logger().Errorf("Failed to render QR for receipt %d: %v", receiptID, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
