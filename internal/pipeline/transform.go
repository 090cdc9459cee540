package pipeline

import (
	"time"

	"apicsv/internal/record"
)

const (
	// Sentinel replaces missing and null field values.
	Sentinel = "N/A"

	// TimestampField is the column stamped on every record of a run.
	TimestampField = "extraction_timestamp"

	timestampLayout = "2006-01-02 15:04:05"
)

// Transformer cleans an extracted record set. It does no I/O; given the same
// input and clock it always produces the same output.
type Transformer struct {
	Sentinel string           // defaults to Sentinel
	Now      func() time.Time // defaults to time.Now
}

// Apply deduplicates, fills gaps and stamps the extraction time.
//
// Deduplication runs before gap filling on purpose: two rows that differ only
// in a field one of them lacks (or holds as null) are distinct rows, even
// though both cells render as the sentinel afterwards.
func (t Transformer) Apply(in *record.Set) *record.Set {
	sentinel := t.Sentinel
	if sentinel == "" {
		sentinel = Sentinel
	}
	now := t.Now
	if now == nil {
		now = time.Now
	}
	stamp := now().Format(timestampLayout)

	out := &record.Set{Columns: append([]string(nil), in.Columns...)}
	seen := make(map[string]struct{}, len(in.Records))

	for _, rec := range in.Records {
		fp := record.Fingerprint(rec)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}

		clean := rec.Clone()
		for _, col := range in.Columns {
			if v, ok := clean[col]; !ok || v == nil {
				clean[col] = sentinel
			}
		}
		clean[TimestampField] = stamp
		out.Records = append(out.Records, clean)
	}

	out.AddColumn(TimestampField)
	return out
}
