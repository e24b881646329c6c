// Package sheets is the spreadsheet backend adapter. Each entity kind maps
// to a fixed range of rows in a named tab (header row 1, data from row 2).
// Updates locate the target row with a linear scan of the id column; inserts
// append at the end of the range. There is no transactionality across rows.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/halaqahq/halaqa/internal/config"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// TokenSource yields a valid access credential for the Sheets API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Adapter struct {
	http    *http.Client
	baseURL string
	runtime *config.Runtime
	tokens  TokenSource
}

type Option func(*Adapter)

// WithBaseURL overrides the Sheets API endpoint. Used in tests.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = u }
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.http = c }
}

func New(rt *config.Runtime, tokens TokenSource, opts ...Option) *Adapter {
	a := &Adapter{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
		runtime: rt,
		tokens:  tokens,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// valueRange is the Sheets API body for reads and writes.
type valueRange struct {
	Values [][]any `json:"values"`
}

func (a *Adapter) call(ctx context.Context, method, path string, body any) (*valueRange, error) {
	spreadsheetID := a.runtime.SpreadsheetID()
	if spreadsheetID == "" {
		return nil, fmt.Errorf("no spreadsheet configured")
	}

	token, err := a.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets credential: %w", err)
	}

	var reqBody io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding sheets request: %w", err)
		}

		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method,
		fmt.Sprintf("%s/%s/%s", a.baseURL, spreadsheetID, path), reqBody)
	if err != nil {
		return nil, fmt.Errorf("building sheets request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling sheets API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sheets API: %d %s", resp.StatusCode, msg)
	}

	var vr valueRange
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding sheets response: %w", err)
	}

	return &vr, nil
}

func (a *Adapter) getValues(ctx context.Context, rng string) ([][]any, error) {
	vr, err := a.call(ctx, http.MethodGet, "values/"+url.PathEscape(rng), nil)
	if err != nil {
		return nil, err
	}

	return vr.Values, nil
}

func (a *Adapter) appendRow(ctx context.Context, rng string, row []any) error {
	path := fmt.Sprintf("values/%s:append?valueInputOption=USER_ENTERED", url.PathEscape(rng))
	_, err := a.call(ctx, http.MethodPost, path, valueRange{Values: [][]any{row}})

	return err
}

func (a *Adapter) putRow(ctx context.Context, rng string, row []any) error {
	path := fmt.Sprintf("values/%s?valueInputOption=USER_ENTERED", url.PathEscape(rng))
	_, err := a.call(ctx, http.MethodPut, path, valueRange{Values: [][]any{row}})

	return err
}

// findRowByID returns the 1-based sheet row whose id column matches id, or
// -1. Data starts at row 2; the scan is linear in the sheet size.
func (a *Adapter) findRowByID(ctx context.Context, tab, id string) (int, error) {
	rows, err := a.getValues(ctx, tab+"!A2:A")
	if err != nil {
		return -1, err
	}

	for i, row := range rows {
		if len(row) > 0 && cellString(row[0]) == id {
			return i + 2, nil
		}
	}

	return -1, nil
}
