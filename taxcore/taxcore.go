// Package taxcore decodes the binary receipt payload embedded in the QR
// verification URLs issued by the TaxCore fiscalization systems ("suf"
// portals). Decoding is pure: no I/O happens here.
package taxcore

import (
	"errors"
	"strconv"
)

// SupportedVersion is the only payload version this decoder understands.
const SupportedVersion = 3

// VerifyPath is the fixed path every verification URL carries.
const VerifyPath = "/v/"

// PayloadQueryKey is the query parameter holding the base64 payload.
const PayloadQueryKey = "vl"

var (
	ErrUnsupportedProvider = errors.New("unsupported tax provider")
	ErrMalformedURL        = errors.New("malformed receipt url")
	ErrUnsupportedVersion  = errors.New("unsupported payload version")
	ErrChecksum            = errors.New("payload checksum mismatch")
	ErrDecode              = errors.New("payload decode error")
)

type MonetaryUnit string

const (
	UnitRSD MonetaryUnit = "RSD" // Serbia
	UnitBAM MonetaryUnit = "BAM" // Bosnia
)

type Country string

const (
	CountryRS Country = "RS"
	CountryBA Country = "BA"
)

type InvoiceType string

const (
	InvoiceTypeNormal   InvoiceType = "NORMAL"
	InvoiceTypePerforma InvoiceType = "PERFORMA"
	InvoiceTypeCopy     InvoiceType = "COPY"
	InvoiceTypeTraining InvoiceType = "TRAINING"
	InvoiceTypeAdvance  InvoiceType = "ADVANCE"
)

type TransactionType string

const (
	TransactionTypeSale   TransactionType = "SALE"
	TransactionTypeRefund TransactionType = "REFUND"
)

var invoiceTypes = map[byte]InvoiceType{
	0: InvoiceTypeNormal,
	1: InvoiceTypePerforma,
	2: InvoiceTypeCopy,
	3: InvoiceTypeTraining,
	4: InvoiceTypeAdvance,
}

var transactionTypes = map[byte]TransactionType{
	0: TransactionTypeSale,
	1: TransactionTypeRefund,
}

// InvoiceTypeFromCode maps the single-byte wire code to its invoice type.
func InvoiceTypeFromCode(code byte) (InvoiceType, error) {
	t, ok := invoiceTypes[code]
	if !ok {
		return "", ErrDecode
	}
	return t, nil
}

// TransactionTypeFromCode maps the single-byte wire code to its transaction type.
func TransactionTypeFromCode(code byte) (TransactionType, error) {
	t, ok := transactionTypes[code]
	if !ok {
		return "", ErrDecode
	}
	return t, nil
}

type provider struct {
	Country Country
	Unit    MonetaryUnit
}

// providers maps the issuing authority's host to its country and currency.
// Country and unit happen to be 1:1 today but are kept separate because a
// future authority may decouple them.
var providers = map[string]provider{
	"suf.purs.gov.rs":         {CountryRS, UnitRSD},
	"suf.poreskaupravars.org": {CountryBA, UnitBAM},
}

// SimpleReceipt is the decoded QR payload. It is constructed once per scanned
// code and consumed immediately; it is never persisted directly.
type SimpleReceipt struct {
	RequestedBy             string
	SignedBy                string
	TotalTransactions       uint32
	TotalTransactionsOfType uint32
	// TotalAmount is the raw scaled integer. Divide by 10000 for the human amount.
	TotalAmount     int64
	Timestamp       int64 // seconds since epoch
	InvoiceType     InvoiceType
	TransactionType TransactionType
	BuyerID         string // empty when not present in the payload

	Unit    MonetaryUnit
	Country Country
	URL     string
}

// StoreCode is the natural store identifier derived from the two signer ids.
func (r *SimpleReceipt) StoreCode() string {
	return r.RequestedBy + "-" + r.SignedBy
}

// ReceiptCode is the natural receipt identifier within a store.
func (r *SimpleReceipt) ReceiptCode() string {
	return strconv.FormatUint(uint64(r.TotalTransactions), 10)
}

// HumanAmount converts the raw scaled amount to currency units.
func (r *SimpleReceipt) HumanAmount() float64 {
	return HumanAmount(r.TotalAmount)
}

// HumanAmount converts a raw scaled amount to currency units. The scale is
// fixed at 1/10000 for every supported currency.
func HumanAmount(amount int64) float64 {
	return float64(amount) / 10000
}
