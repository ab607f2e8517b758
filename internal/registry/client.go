package registry

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ansanalytics/internal/dataprocessing"
	apperrors "ansanalytics/internal/errors"
	"ansanalytics/pkg/contracts/domain"
)

var (
	// ErrRegistryUnavailable is returned when the registry could not be
	// reached (connection failure or timeout)
	ErrRegistryUnavailable = errors.New("registry unavailable")

	// ErrMalformedRegistry is returned when the registry body lacks a
	// required column
	ErrMalformedRegistry = errors.New("malformed registry")
)

// Source registry columns, matched case-insensitively
const (
	headerRegistryID = "REGISTRO_OPERADORA"
	headerTaxID      = "CNPJ"
	headerLegalName  = "Razao_Social"
	headerCategory   = "Modalidade"
	headerRegion     = "UF"
)

var requiredHeaders = []string{headerRegistryID, headerTaxID, headerLegalName, headerCategory, headerRegion}

// Client downloads the registry snapshot
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a registry client. A zero timeout leaves the request
// bounded only by ctx.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "registry_client")),
	}
}

// Fetch downloads and parses the registry. Connection failures and timeouts
// wrap ErrRegistryUnavailable; a non-2xx status and an unparseable body are
// reported as other errors.
func (c *Client) Fetch(ctx context.Context) ([]domain.RegistryRecord, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid registry URL", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("registry request failed", fmt.Errorf("%w: %w", ErrRegistryUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("registry returned status %d", resp.StatusCode), nil).
			WithContext("url", c.url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError("registry body read failed", fmt.Errorf("%w: %w", ErrRegistryUnavailable, err))
	}

	records, err := ParseRegistry(body)
	if err != nil {
		return nil, apperrors.NewParsingError("registry parse failed", err)
	}

	c.logger.InfoContext(ctx, "registry fetched",
		slog.Int("records", len(records)),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)))

	return records, nil
}

// ParseRegistry decodes a ';'-delimited registry body. Invalid UTF-8 bytes
// are replaced rather than rejected.
func ParseRegistry(body []byte) ([]domain.RegistryRecord, error) {
	text := strings.ToValidUTF8(string(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))), "\uFFFD")

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty body", ErrMalformedRegistry)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(requiredHeaders))
	for i, name := range header {
		name = strings.TrimSpace(name)
		for _, want := range requiredHeaders {
			if _, seen := index[want]; !seen && strings.EqualFold(name, want) {
				index[want] = i
			}
		}
	}
	for _, want := range requiredHeaders {
		if _, ok := index[want]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrMalformedRegistry, want)
		}
	}

	records := make([]domain.RegistryRecord, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", len(records)+1, err)
		}

		cell := func(column string) string {
			if i := index[column]; i < len(row) {
				return row[i]
			}
			return ""
		}

		records = append(records, domain.RegistryRecord{
			RegistryID: dataprocessing.StripFloatSuffix(cell(headerRegistryID)),
			TaxID:      dataprocessing.StripFloatSuffix(cell(headerTaxID)),
			LegalName:  dataprocessing.NormalizeText(cell(headerLegalName)),
			Category:   dataprocessing.NormalizeText(cell(headerCategory)),
			Region:     dataprocessing.NormalizeText(cell(headerRegion)),
		})
	}

	return records, nil
}
