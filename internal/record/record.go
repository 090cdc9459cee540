package record

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Record is one flat row extracted from the API: field name -> scalar value.
// Values are what encoding/json produces with UseNumber: string, json.Number,
// bool or nil. Field sets vary across records of the same Set.
type Record map[string]any

// Set is an ordered collection of records treated as a table.
// Columns is the union of all field names in first-seen order; it has to be
// tracked separately because Go maps (and unmarshalled JSON objects) lose
// key order.
type Set struct {
	Columns []string
	Records []Record
}

// AddColumn appends name to the column union if it is not already present.
func (s *Set) AddColumn(name string) {
	for _, c := range s.Columns {
		if c == name {
			return
		}
	}
	s.Columns = append(s.Columns, name)
}

// Len returns the number of records in the set.
func (s *Set) Len() int {
	return len(s.Records)
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Fingerprint returns a canonical string for full-row equality checks.
// Key presence matters: a field holding JSON null and an absent field
// produce different fingerprints.
func Fingerprint(r Record) string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(valueToken(r[k]))
		b.WriteByte(';')
	}
	return b.String()
}

func valueToken(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return "s" + strconv.Quote(val)
	case json.Number:
		return "n" + val.String()
	case bool:
		return "b" + strconv.FormatBool(val)
	default:
		// should not happen for flat JSON scalars
		return "?"
	}
}

// Render converts a field value to its CSV cell text. Numbers keep their
// original literal form, strings pass through untouched.
func Render(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
