// Package scraper fetches the authority's human-readable receipt page and
// extracts the full receipt text plus the issuing store's details. The
// extraction is best-effort: the page layout is not a contract.
package scraper

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html"
)

var (
	// ErrCertificate marks a TLS verification failure against the portal.
	ErrCertificate = errors.New("portal certificate error")
	// ErrNetwork marks any other transport-level failure.
	ErrNetwork = errors.New("portal network error")
	// ErrExtract marks a page that was fetched but did not contain the
	// expected receipt markup.
	ErrExtract = errors.New("portal page extraction failed")
)

// Element ids and markers on the portal's verification page.
const (
	idShopName     = "shopFullNameLabel"
	idMunicipality = "administrativeUnitLabel"
	idCity         = "cityLabel"
	idAddress      = "addressLabel"
	receiptStyle   = "font-family:monospace"
)

type StoreDetails struct {
	Name         string
	Municipality string
	City         string
	Address      string
}

type FullReceipt struct {
	Text  string
	Store StoreDetails
}

type Scraper struct {
	client  *http.Client
	retries uint64
}

func New(timeout time.Duration, retries uint64) *Scraper {
	return &Scraper{
		client:  &http.Client{Timeout: timeout},
		retries: retries,
	}
}

// FetchFullReceipt loads the verification page behind url and extracts the
// receipt body and store details. Transport failures are retried with
// exponential backoff; certificate failures are not, since they will not
// resolve on their own.
func (s *Scraper) FetchFullReceipt(ctx context.Context, url string) (*FullReceipt, error) {
	var full *FullReceipt

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrNetwork, err))
		}
		resp, err := s.client.Do(req)
		if err != nil {
			if isCertError(err) {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrCertificate, err))
			}
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: portal returned status %d", ErrNetwork, resp.StatusCode)
		}

		doc, err := html.Parse(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrExtract, err))
		}

		full, err = extract(doc)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.retries), ctx))
	if err != nil {
		return nil, err
	}
	return full, nil
}

func isCertError(err error) bool {
	var unknownAuthority x509.UnknownAuthorityError
	var invalid x509.CertificateInvalidError
	var hostname x509.HostnameError
	var verification *tls.CertificateVerificationError
	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &invalid) ||
		errors.As(err, &hostname) ||
		errors.As(err, &verification)
}

func extract(doc *html.Node) (*FullReceipt, error) {
	full := &FullReceipt{}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch attrValue(n, "id") {
			case idShopName:
				full.Store.Name = strings.TrimSpace(textContent(n))
			case idMunicipality:
				full.Store.Municipality = strings.TrimSpace(textContent(n))
			case idCity:
				full.Store.City = strings.TrimSpace(textContent(n))
			case idAddress:
				full.Store.Address = strings.TrimSpace(textContent(n))
			}
			if n.Data == "pre" && strings.Contains(attrValue(n, "style"), receiptStyle) && full.Text == "" {
				full.Text = normalizeReceiptText(textContent(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if full.Store.Name == "" || full.Text == "" {
		return nil, fmt.Errorf("%w: receipt markup not found", ErrExtract)
	}
	return full, nil
}

// normalizeReceiptText strips the indentation the portal adds before the
// separator lines so the fixed-width body lines up again.
func normalizeReceiptText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		switch trimmed[0] {
		case '=', '<':
			lines[i] = trimmed
		}
	}
	return strings.Join(lines, "\n")
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
