package taxcore

import (
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"net/url"
	"strings"
)

// Layout of the decoded payload. All integers are little-endian except the
// timestamp, which the authority emits big-endian. The final 16 bytes are an
// MD5 digest over everything before them.
const (
	offVersion         = 0
	offRequestedBy     = 1
	offSignedBy        = 9
	offTotalTx         = 17
	offTotalTxOfType   = 21
	offTotalAmount     = 25
	offTimestamp       = 33
	offInvoiceType     = 41
	offTransactionType = 42
	offBuyerIDLen      = 43
	offBuyerID         = 44
	checksumLen        = md5.Size
	minPayloadLen      = offBuyerID + checksumLen
)

// Decode parses a receipt verification URL into a SimpleReceipt. Each gate is
// hard: the first failure wins and nothing is partially decoded.
func Decode(rawURL string) (*SimpleReceipt, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}

	prov, ok := providers[u.Host]
	if !ok {
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedProvider, u.Host)
	}

	if u.Path != VerifyPath {
		return nil, fmt.Errorf("%w: expected path %q, got %q", ErrMalformedURL, VerifyPath, u.Path)
	}

	payload := rawQueryValue(u.RawQuery, PayloadQueryKey)
	if payload == "" {
		return nil, fmt.Errorf("%w: missing %q query parameter", ErrMalformedURL, PayloadQueryKey)
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	if data[offVersion] != SupportedVersion {
		return nil, fmt.Errorf("%w: expected version %d, got %d", ErrUnsupportedVersion, SupportedVersion, data[offVersion])
	}
	if len(data) < minPayloadLen {
		return nil, fmt.Errorf("%w: payload too short (%d bytes)", ErrDecode, len(data))
	}

	body, digest := data[:len(data)-checksumLen], data[len(data)-checksumLen:]
	sum := md5.Sum(body)
	if !bytes.Equal(sum[:], digest) {
		return nil, fmt.Errorf("%w: expected %x, got %x", ErrChecksum, digest, sum)
	}

	invoiceType, err := InvoiceTypeFromCode(data[offInvoiceType])
	if err != nil {
		return nil, fmt.Errorf("%w: unknown invoice type %d", ErrDecode, data[offInvoiceType])
	}
	transactionType, err := TransactionTypeFromCode(data[offTransactionType])
	if err != nil {
		return nil, fmt.Errorf("%w: unknown transaction type %d", ErrDecode, data[offTransactionType])
	}

	buyerLen := int(data[offBuyerIDLen])
	if offBuyerID+buyerLen > len(body) {
		return nil, fmt.Errorf("%w: buyer id length %d exceeds payload", ErrDecode, buyerLen)
	}

	return &SimpleReceipt{
		RequestedBy:             string(data[offRequestedBy:offSignedBy]),
		SignedBy:                string(data[offSignedBy:offTotalTx]),
		TotalTransactions:       binary.LittleEndian.Uint32(data[offTotalTx:]),
		TotalTransactionsOfType: binary.LittleEndian.Uint32(data[offTotalTxOfType:]),
		TotalAmount:             int64(binary.LittleEndian.Uint64(data[offTotalAmount:])),
		// The timestamp is the one big-endian field in the record. Receipts
		// are signed against this byte order, so it stays as-is.
		Timestamp:       int64(binary.BigEndian.Uint64(data[offTimestamp:])),
		InvoiceType:     invoiceType,
		TransactionType: transactionType,
		BuyerID:         string(data[offBuyerID : offBuyerID+buyerLen]),
		Unit:            prov.Unit,
		Country:         prov.Country,
		URL:             rawURL,
	}, nil
}

// rawQueryValue extracts a query value without percent-unescaping. The
// payload is base64 and may contain '+', which url.ParseQuery would turn
// into a space.
func rawQueryValue(rawQuery, key string) string {
	for _, pair := range strings.Split(rawQuery, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if k == key {
			return v
		}
	}
	return ""
}

// decodeBase64 accepts the standard alphabet with or without padding.
func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
