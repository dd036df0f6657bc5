package transport

import (
	"github.com/labstack/echo/v4"
	"github.com/sufhub/sufhub.go/controllers"
	"github.com/sufhub/sufhub.go/lib/service"
)

func RegisterEndpoints(svc *service.SufhubService, e *echo.Echo, strictRateLimitMiddleware echo.MiddlewareFunc, adminMw echo.MiddlewareFunc, logMw echo.MiddlewareFunc) {
	scanCtrl := controllers.NewScanController(svc)
	importCtrl := controllers.NewImportController(svc)
	receiptCtrl := controllers.NewReceiptController(svc)
	storeCtrl := controllers.NewStoreController(svc)
	qrCtrl := controllers.NewQRController(svc)

	e.GET("/v2/health", controllers.NewHealthController().Health)

	// ingest endpoints hit the portal, keep them on the strict limiter
	e.POST("/v2/scan", scanCtrl.Scan, strictRateLimitMiddleware, adminMw, logMw)
	e.POST("/v2/import", importCtrl.Import, strictRateLimitMiddleware, adminMw, logMw)
	e.POST("/v2/receipts/:id/refresh", receiptCtrl.RefreshReceipt, strictRateLimitMiddleware, adminMw, logMw)

	e.GET("/v2/receipts", receiptCtrl.GetReceipts, logMw)
	e.GET("/v2/receipts/:id", receiptCtrl.GetReceipt, logMw)
	e.PUT("/v2/receipts/:id/note", receiptCtrl.UpdateReceiptNote, adminMw, logMw)
	e.DELETE("/v2/receipts/:id", receiptCtrl.DeleteReceipt, adminMw, logMw)

	// the QR render is deterministic per receipt, cache it
	cacheClient := CreateCacheClient()
	e.GET("/v2/receipts/:id/qr", qrCtrl.ReceiptQR, cacheClient.Middleware(), logMw)

	e.GET("/v2/stores", storeCtrl.GetStores, logMw)
	e.GET("/v2/stores/:id", storeCtrl.GetStore, logMw)
	e.PUT("/v2/stores/:id", storeCtrl.UpdateStore, adminMw, logMw)
}
