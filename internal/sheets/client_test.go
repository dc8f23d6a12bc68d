package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	op  string
	err error
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (o *recordingObserver) ObserveSheetsCall(op string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, recordedCall{op: op, err: err})
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v4/spreadsheets/sheet-1/values/Products!A2:L1000", r.URL.Path)
		require.Equal(t, "UNFORMATTED_VALUE", r.URL.Query().Get("valueRenderOption"))
		require.Equal(t, "SERIAL_NUMBER", r.URL.Query().Get("dateTimeRenderOption"))
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"range":"Products!A2:L1000","values":[["product_1","Widget","W-1","Parts",10,5,50,2.5,4,"Acme","2025-01-01T00:00:00.000Z","active"]]}`)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client, err := NewClient(ClientConfig{BaseURL: srv.URL, SpreadsheetID: "sheet-1", Tokens: StaticToken("tok"), Observer: obs})
	require.NoError(t, err)

	rows, err := client.Get(context.Background(), ProductsLayout.ReadRange())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "10", rows[0][4])
	require.Equal(t, "2.5", rows[0][7])
	require.Len(t, obs.calls, 1)
	require.Equal(t, "get", obs.calls[0].op)
	require.NoError(t, obs.calls[0].err)
}

func TestClientAppendAndUpdate(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies = map[string]valueRange{}
		query  = map[string]string{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body valueRange
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		bodies[r.Method] = body
		query[r.Method] = r.URL.RawQuery
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL, SpreadsheetID: "sheet-1", Tokens: StaticToken("tok")})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, client.Append(ctx, ProductsLayout.AppendRange(), [][]any{{"product_1", "Widget"}}))
	require.NoError(t, client.Update(ctx, ProductsLayout.RowRange(0), [][]any{{"product_1", "Gadget"}}))

	require.Equal(t, "Widget", bodies[http.MethodPost].Values[0][1])
	require.Contains(t, query[http.MethodPost], "insertDataOption=INSERT_ROWS")
	require.Equal(t, "Gadget", bodies[http.MethodPut].Values[0][1])
	require.Equal(t, "Products!A2:L2", bodies[http.MethodPut].Range)
	require.Contains(t, query[http.MethodPut], "valueInputOption=RAW")
}

func TestClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client, err := NewClient(ClientConfig{BaseURL: srv.URL, SpreadsheetID: "sheet-1", Tokens: StaticToken("tok"), Observer: obs})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), ProductsLayout.ReadRange())
	require.ErrorContains(t, err, "status 403")
	require.ErrorContains(t, err, "does not have permission")
	require.Len(t, obs.calls, 1)
	require.Error(t, obs.calls[0].err)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(ClientConfig{Tokens: StaticToken("x")})
	require.Error(t, err)
	_, err = NewClient(ClientConfig{SpreadsheetID: "id"})
	require.Error(t, err)
}
