package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/odyssey-erp/stockboard/internal/sheets")

// TokenSource yields bearer tokens for the values API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token returns the static value.
func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// Observer receives the outcome of every values API call.
type Observer interface {
	ObserveSheetsCall(op string, duration time.Duration, err error)
}

// ClientConfig groups Client dependencies.
type ClientConfig struct {
	BaseURL       string
	SpreadsheetID string
	Timeout       time.Duration
	Tokens        TokenSource
	Observer      Observer
	HTTPClient    *http.Client
}

// Client implements ValueStore over the spreadsheet values REST API.
type Client struct {
	http          *resty.Client
	spreadsheetID string
	tokens        TokenSource
	observer      Observer
}

var _ ValueStore = (*Client)(nil)

type valueRange struct {
	Range          string  `json:"range,omitempty"`
	MajorDimension string  `json:"majorDimension,omitempty"`
	Values         [][]any `json:"values"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewClient builds a values API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("sheets: spreadsheet id required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("sheets: token source required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	rc := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}
	return &Client{http: rc, spreadsheetID: cfg.SpreadsheetID, tokens: cfg.Tokens, observer: cfg.Observer}, nil
}

// Get reads ref. Numbers come back unformatted so that locale grouping never
// reaches the row codec. Cells typed as dates arrive as serial numbers, which
// analytics.ParseDate understands.
func (c *Client) Get(ctx context.Context, ref string) ([][]string, error) {
	var result valueRange
	err := c.do(ctx, "get", ref, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetQueryParam("valueRenderOption", "UNFORMATTED_VALUE").
			SetQueryParam("dateTimeRenderOption", "SERIAL_NUMBER").
			SetResult(&result).
			Get("/v4/spreadsheets/{spreadsheetId}/values/{range}")
	})
	if err != nil {
		return nil, err
	}
	rows := make([][]string, len(result.Values))
	for i, row := range result.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = formatCell(v)
		}
		rows[i] = cells
	}
	return rows, nil
}

// Append adds rows after the last row of the table addressed by ref.
func (c *Client) Append(ctx context.Context, ref string, rows [][]any) error {
	return c.do(ctx, "append", ref, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetQueryParams(map[string]string{
				"valueInputOption": "RAW",
				"insertDataOption": "INSERT_ROWS",
			}).
			SetBody(valueRange{MajorDimension: "ROWS", Values: rows}).
			Post("/v4/spreadsheets/{spreadsheetId}/values/{range}:append")
	})
}

// Update overwrites the cells addressed by ref.
func (c *Client) Update(ctx context.Context, ref string, rows [][]any) error {
	return c.do(ctx, "update", ref, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetQueryParam("valueInputOption", "RAW").
			SetBody(valueRange{Range: ref, MajorDimension: "ROWS", Values: rows}).
			Put("/v4/spreadsheets/{spreadsheetId}/values/{range}")
	})
}

func (c *Client) do(ctx context.Context, op, ref string, send func(*resty.Request) (*resty.Response, error)) (err error) {
	ctx, span := tracer.Start(ctx, "sheets.values."+op, trace.WithAttributes(
		attribute.String("sheets.range", ref),
	))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if c.observer != nil {
			c.observer.ObserveSheetsCall(op, time.Since(start), err)
		}
	}()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("sheets: %s %s: token: %w", op, ref, err)
	}
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParams(map[string]string{
			"spreadsheetId": c.spreadsheetID,
			"range":         ref,
		}).
		SetError(&apiError{})
	resp, err := send(req)
	if err != nil {
		return fmt.Errorf("sheets: %s %s: %w", op, ref, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if apiErr, ok := resp.Error().(*apiError); ok && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return fmt.Errorf("sheets: %s %s: status %d: %s", op, ref, resp.StatusCode(), msg)
	}
	return nil
}
