package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"apicsv/internal/httpx"
	"apicsv/internal/record"
)

// Extract performs one GET against rawURL (with params merged into the query
// string) and parses the body as a JSON array of flat objects.
//
// Failures come back typed: *httpx.ConnectivityError for transport problems,
// *httpx.NetworkError for non-2xx statuses, *FormatError when the body is not
// an array of flat records.
func Extract(ctx context.Context, client *http.Client, rawURL string, params url.Values) (*record.Set, error) {
	body, err := httpx.Get(ctx, client, rawURL, params)
	if err != nil {
		return nil, err
	}

	set, err := parseRecords(body)
	if err != nil {
		return nil, &FormatError{URL: rawURL, Msg: "response is not a JSON array of flat records", Err: err}
	}
	return set, nil
}

// parseRecords walks the body token by token instead of unmarshalling into
// []map[string]any, so the first-seen order of field names survives into the
// CSV header. Numbers are kept as json.Number to preserve their literal form.
func parseRecords(body []byte) (*record.Set, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("top-level value is %s, want array", tokenName(tok))
	}

	set := &record.Set{}
	for dec.More() {
		rec, err := parseObject(dec, set)
		if err != nil {
			return nil, err
		}
		set.Records = append(set.Records, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return set, nil
}

func parseObject(dec *json.Decoder, set *record.Set) (record.Record, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("array element is %s, want object", tokenName(tok))
	}

	rec := record.Record{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %s, want string", tokenName(keyTok))
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		if _, nested := valTok.(json.Delim); nested {
			return nil, fmt.Errorf("field %q holds a nested value, want scalar", key)
		}

		rec[key] = valTok
		set.AddColumn(key)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return rec, nil
}

func tokenName(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{', '}':
			return "an object"
		default:
			return "an array"
		}
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", tok)
	}
}
