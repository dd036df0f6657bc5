package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sufhub/sufhub.go/lib/responses"
	"github.com/sufhub/sufhub.go/lib/service"
)

// ImportController : Import controller struct
type ImportController struct {
	svc *service.SufhubService
}

func NewImportController(svc *service.SufhubService) *ImportController {
	return &ImportController{svc: svc}
}

type ImportRequestBody struct {
	Lines []string `json:"lines" validate:"required,min=1"`
}

// Import runs the scan pipeline over a batch of verification URLs, one per
// line. Accepts either a JSON body with a lines array or a plain-text body.
// Items fail individually; the batch itself always completes.
func (controller *ImportController) Import(c echo.Context) error {
	var lines []string

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		var body ImportRequestBody
		if err := c.Bind(&body); err != nil {
			c.Logger().Errorf("Failed to load import request body: %v", err)
			return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
		}
		if err := c.Validate(&body); err != nil {
			c.Logger().Errorf("Invalid import request body: %v", err)
			return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
		}
		lines = body.Lines
	} else {
		raw, err := io.ReadAll(c.Request().Body)
		if err != nil {
			c.Logger().Errorf("Failed to read import body: %v", err)
			return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
		}
		lines = strings.Split(string(raw), "\n")
	}

	summary, err := controller.svc.ImportLines(c.Request().Context(), lines)
	if err != nil {
		c.Logger().Errorf("Failed to import receipts: %v", err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	return c.JSON(http.StatusOK, summary)
}
