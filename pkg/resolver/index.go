package resolver

import (
	"strings"
	"time"
)

// Record is one entry of the upstream reference list.
type Record struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type normalized struct {
	id     string
	name   string
	symbol string
}

// Index is an immutable lookup view over one reference snapshot.
type Index struct {
	source   []Record
	records  []normalized
	bySymbol map[string][]string
	byName   map[string]string
	position map[string]int
	storedAt time.Time
}

// Normalize lowercases and trims a symbol, name or query.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// BuildIndex derives an Index from records, keeping their order. Records
// without an id are skipped. Duplicate names resolve to the last record.
func BuildIndex(records []Record, storedAt time.Time) *Index {
	ix := &Index{
		source:   make([]Record, 0, len(records)),
		records:  make([]normalized, 0, len(records)),
		bySymbol: make(map[string][]string, len(records)),
		byName:   make(map[string]string, len(records)),
		position: make(map[string]int, len(records)),
		storedAt: storedAt,
	}
	for _, rec := range records {
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			continue
		}
		n := normalized{id: id, name: Normalize(rec.Name), symbol: Normalize(rec.Symbol)}
		if _, ok := ix.position[id]; !ok {
			ix.position[id] = len(ix.source)
		}
		ix.source = append(ix.source, rec)
		ix.records = append(ix.records, n)
		if n.symbol != "" {
			ix.bySymbol[n.symbol] = append(ix.bySymbol[n.symbol], id)
		}
		if n.name != "" {
			ix.byName[n.name] = id
		}
	}
	return ix
}

// Lookup resolves an already-normalized query. Priority:
// unique exact symbol, exact name, name substring, symbol substring.
func (ix *Index) Lookup(q string) (string, bool) {
	if ix == nil || q == "" {
		return "", false
	}
	if ids := ix.bySymbol[q]; len(ids) == 1 {
		return ids[0], true
	}
	if id, ok := ix.byName[q]; ok {
		return id, true
	}
	for _, rec := range ix.records {
		if strings.Contains(rec.name, q) {
			return rec.id, true
		}
	}
	for _, rec := range ix.records {
		if strings.Contains(rec.symbol, q) {
			return rec.id, true
		}
	}
	return "", false
}

// Candidates lists up to limit records matching q, ordered by the same
// priority as Lookup and deduplicated by id. Ambiguous exact symbols are
// included here since the caller picks among them.
func (ix *Index) Candidates(q string, limit int) []Record {
	if ix == nil || q == "" || limit <= 0 {
		return nil
	}
	seen := make(map[string]struct{}, limit)
	out := make([]Record, 0, limit)
	add := func(id string) bool {
		if _, ok := seen[id]; ok {
			return len(out) < limit
		}
		seen[id] = struct{}{}
		out = append(out, ix.source[ix.position[id]])
		return len(out) < limit
	}

	for _, id := range ix.bySymbol[q] {
		if !add(id) {
			return out
		}
	}
	if id, ok := ix.byName[q]; ok {
		if !add(id) {
			return out
		}
	}
	for _, rec := range ix.records {
		if strings.Contains(rec.name, q) && !add(rec.id) {
			return out
		}
	}
	for _, rec := range ix.records {
		if strings.Contains(rec.symbol, q) && !add(rec.id) {
			return out
		}
	}
	return out
}

// Len reports the number of indexed records.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.records)
}

// StoredAt is the cache timestamp of the snapshot the index was built from.
func (ix *Index) StoredAt() time.Time {
	if ix == nil {
		return time.Time{}
	}
	return ix.storedAt
}

// Records returns a copy of the snapshot in upstream order.
func (ix *Index) Records() []Record {
	if ix == nil {
		return nil
	}
	out := make([]Record, len(ix.source))
	copy(out, ix.source)
	return out
}
