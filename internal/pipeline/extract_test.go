package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"apicsv/internal/httpx"
)

func serveJSON(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractParsesArrayOfObjects(t *testing.T) {
	srv := serveJSON(t, `[{"id":1,"name":"ada"},{"id":2,"name":"grace","active":true}]`)

	set, err := Extract(context.Background(), srv.Client(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if set.Len() != 2 {
		t.Fatalf("got %d records, want 2", set.Len())
	}
	if set.Records[0]["name"] != "ada" {
		t.Errorf("Records[0][name] = %v, want ada", set.Records[0]["name"])
	}
	if set.Records[0]["id"] != json.Number("1") {
		t.Errorf("Records[0][id] = %#v, want json.Number(1)", set.Records[0]["id"])
	}
	if set.Records[1]["active"] != true {
		t.Errorf("Records[1][active] = %v, want true", set.Records[1]["active"])
	}
}

func TestExtractColumnOrderIsFirstSeen(t *testing.T) {
	srv := serveJSON(t, `[{"b":1,"a":2},{"c":3,"a":4}]`)

	set, err := Extract(context.Background(), srv.Client(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := []string{"b", "a", "c"}
	if len(set.Columns) != len(want) {
		t.Fatalf("got columns %v, want %v", set.Columns, want)
	}
	for i := range want {
		if set.Columns[i] != want[i] {
			t.Errorf("Columns[%d] = %q, want %q", i, set.Columns[i], want[i])
		}
	}
}

func TestExtractPreservesNullValues(t *testing.T) {
	srv := serveJSON(t, `[{"a":1,"b":null}]`)

	set, err := Extract(context.Background(), srv.Client(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	v, ok := set.Records[0]["b"]
	if !ok {
		t.Fatal("null field should be present in the record")
	}
	if v != nil {
		t.Errorf("Records[0][b] = %#v, want nil", v)
	}
}

func TestExtractEmptyArray(t *testing.T) {
	srv := serveJSON(t, `[]`)

	set, err := Extract(context.Background(), srv.Client(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if set.Len() != 0 || len(set.Columns) != 0 {
		t.Errorf("expected empty set, got %d records, %d columns", set.Len(), len(set.Columns))
	}
}

func TestExtractFormatErrors(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"top-level object", `{"a":1}`},
		{"top-level string", `"hello"`},
		{"array of scalars", `[1,2,3]`},
		{"nested object value", `[{"a":{"b":1}}]`},
		{"nested array value", `[{"a":[1,2]}]`},
		{"not json at all", `<html>oops</html>`},
		{"truncated array", `[{"a":1}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := serveJSON(t, tc.body)

			_, err := Extract(context.Background(), srv.Client(), srv.URL, nil)

			var fmtErr *FormatError
			if !errors.As(err, &fmtErr) {
				t.Fatalf("expected *FormatError, got %T: %v", err, err)
			}
			if fmtErr.URL != srv.URL {
				t.Errorf("FormatError.URL = %q, want %q", fmtErr.URL, srv.URL)
			}
		})
	}
}

func TestExtractPropagatesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Extract(context.Background(), srv.Client(), srv.URL, nil)

	var netErr *httpx.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *httpx.NetworkError, got %T: %v", err, err)
	}
	if netErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", netErr.StatusCode)
	}
}
