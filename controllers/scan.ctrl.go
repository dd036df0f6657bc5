package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sufhub/sufhub.go/lib/responses"
	"github.com/sufhub/sufhub.go/lib/service"
)

// ScanController : Scan controller struct
type ScanController struct {
	svc *service.SufhubService
}

func NewScanController(svc *service.SufhubService) *ScanController {
	return &ScanController{svc: svc}
}

type ScanRequestBody struct {
	URL string `json:"url" validate:"required,url"`
}

type ScanResponseBody struct {
	ReceiptID       int64   `json:"receipt_id,omitempty"`
	Duplicate       bool    `json:"duplicate"`
	Message         string  `json:"message,omitempty"`
	StoreCode       string  `json:"store_code"`
	ReceiptCode     string  `json:"receipt_code"`
	Amount          float64 `json:"amount"`
	Unit            string  `json:"unit"`
	Country         string  `json:"country"`
	Time            int64   `json:"time"`
	InvoiceType     string  `json:"invoice_type"`
	TransactionType string  `json:"transaction_type"`
}

// Scan decodes one receipt verification URL and reconciles it into the
// record set. Decode failures come back classified; a duplicate is a normal
// 200 with the duplicate flag set.
func (controller *ScanController) Scan(c echo.Context) error {
	var body ScanRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load scan request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid scan request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	result, err := controller.svc.ProcessScan(c.Request().Context(), body.URL)
	if err != nil {
		c.Logger().Errorf("Failed to process scanned receipt: %v", err)
		resp := responses.Classify(err)
		return c.JSON(resp.HttpStatusCode, resp)
	}

	response := &ScanResponseBody{
		ReceiptID:       result.ReceiptID,
		Duplicate:       result.Duplicate,
		StoreCode:       result.Receipt.StoreCode(),
		ReceiptCode:     result.Receipt.ReceiptCode(),
		Amount:          result.Receipt.HumanAmount(),
		Unit:            string(result.Receipt.Unit),
		Country:         string(result.Receipt.Country),
		Time:            result.Receipt.Timestamp,
		InvoiceType:     string(result.Receipt.InvoiceType),
		TransactionType: string(result.Receipt.TransactionType),
	}
	if result.Duplicate {
		response.Message = responses.DuplicateEntryMessage
	} else if result.EnrichErr != nil {
		// recorded without portal detail, tell the caller why
		response.Message = responses.Classify(result.EnrichErr).Message
	}
	return c.JSON(http.StatusOK, response)
}
