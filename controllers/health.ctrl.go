package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type HealthController struct {
}

func NewHealthController() *HealthController {
	return &HealthController{}
}

type HealthResponse struct {
	Result string `json:"result"`
}

func (controller *HealthController) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, &HealthResponse{Result: "ok"})
}
