package responses

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/sufhub/sufhub.go/scraper"
	"github.com/sufhub/sufhub.go/taxcore"
)

type ErrorResponse struct {
	Error          bool   `json:"error"`
	Code           int    `json:"code"`
	Message        string `json:"message"`
	HttpStatusCode int    `json:"-"`
}

var GeneralServerError = ErrorResponse{
	Error:          true,
	Code:           6,
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: 500,
}

var BadArgumentsError = ErrorResponse{
	Error:          true,
	Code:           8,
	Message:        "Bad arguments",
	HttpStatusCode: 400,
}

var UnsupportedProviderError = ErrorResponse{
	Error:          true,
	Code:           10,
	Message:        "This receipt was issued by a tax authority we do not support",
	HttpStatusCode: 422,
}

var MalformedURLError = ErrorResponse{
	Error:          true,
	Code:           11,
	Message:        "This does not look like a receipt verification link",
	HttpStatusCode: 422,
}

var UnsupportedVersionError = ErrorResponse{
	Error:          true,
	Code:           12,
	Message:        "The receipt payload uses a version we do not understand yet",
	HttpStatusCode: 422,
}

var ChecksumError = ErrorResponse{
	Error:          true,
	Code:           13,
	Message:        "The receipt payload is corrupted (checksum mismatch)",
	HttpStatusCode: 422,
}

var DecodeError = ErrorResponse{
	Error:          true,
	Code:           14,
	Message:        "The receipt payload could not be decoded",
	HttpStatusCode: 422,
}

var CertificateError = ErrorResponse{
	Error:          true,
	Code:           15,
	Message:        "Could not verify the tax portal's certificate. The receipt was saved and can be refreshed later",
	HttpStatusCode: 502,
}

var NetworkError = ErrorResponse{
	Error:          true,
	Code:           16,
	Message:        "The tax portal could not be reached. The receipt was saved and can be refreshed later",
	HttpStatusCode: 502,
}

var NotFoundError = ErrorResponse{
	Error:          true,
	Code:           17,
	Message:        "No such record",
	HttpStatusCode: 404,
}

// DuplicateEntryMessage accompanies the non-error duplicate outcome. It is
// informational: scanning an already-synced receipt is a normal event.
const DuplicateEntryMessage = "This receipt is already recorded"

// Classify maps every failure the scan pipeline can produce to its response.
// The mapping is total: anything unknown falls back to the general error.
func Classify(err error) ErrorResponse {
	switch {
	case errors.Is(err, taxcore.ErrUnsupportedProvider):
		return UnsupportedProviderError
	case errors.Is(err, taxcore.ErrMalformedURL):
		return MalformedURLError
	case errors.Is(err, taxcore.ErrUnsupportedVersion):
		return UnsupportedVersionError
	case errors.Is(err, taxcore.ErrChecksum):
		return ChecksumError
	case errors.Is(err, taxcore.ErrDecode):
		return DecodeError
	case errors.Is(err, scraper.ErrCertificate):
		return CertificateError
	case errors.Is(err, scraper.ErrNetwork), errors.Is(err, scraper.ErrExtract):
		return NetworkError
	default:
		return GeneralServerError
	}
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Logger().Error(err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetExtra("RequestID", c.Response().Header().Get(echo.HeaderXRequestID))
			hub.CaptureException(err)
		})
	}
	if he, ok := err.(*echo.HTTPError); ok {
		c.JSON(he.Code, he.Message)
	} else {
		c.JSON(http.StatusInternalServerError, GeneralServerError)
	}
}
