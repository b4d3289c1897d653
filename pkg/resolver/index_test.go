package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC"},
		{ID: "ethereum", Name: "Ethereum", Symbol: "ETH"},
		{ID: "wrapped-bitcoin", Name: "Wrapped Bitcoin", Symbol: "WBTC"},
		{ID: "ethereum-classic-fork", Name: "Ethereum Classic Fork", Symbol: "eth"},
		{ID: "solana", Name: "Solana", Symbol: "SOL"},
		{ID: "", Name: "Ghost", Symbol: "GHOST"},
	}
}

func TestLookupPriority(t *testing.T) {
	ix := BuildIndex(sampleRecords(), time.Time{})

	tests := []struct {
		name  string
		query string
		id    string
		found bool
	}{
		{name: "unique exact symbol", query: "btc", id: "bitcoin", found: true},
		{name: "ambiguous symbol falls through to name substring", query: "eth", id: "ethereum", found: true},
		{name: "exact name", query: "wrapped bitcoin", id: "wrapped-bitcoin", found: true},
		{name: "name substring in snapshot order", query: "coin", id: "bitcoin", found: true},
		{name: "symbol substring", query: "wbt", id: "wrapped-bitcoin", found: true},
		{name: "skips records without id", query: "ghost", found: false},
		{name: "miss", query: "doge", found: false},
		{name: "empty", query: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ix.Lookup(tt.query)
			require.Equal(t, tt.found, ok)
			require.Equal(t, tt.id, id)
		})
	}
}

func TestLookupExactBeatsSubstring(t *testing.T) {
	ix := BuildIndex([]Record{
		{ID: "sol-wrapper", Name: "Solana Wrapper", Symbol: "SOLW"},
		{ID: "solana", Name: "Solana", Symbol: "SOL"},
	}, time.Time{})

	id, ok := ix.Lookup("sol")
	require.True(t, ok)
	require.Equal(t, "solana", id, "exact symbol must win over earlier substring")

	id, ok = ix.Lookup("solana")
	require.True(t, ok)
	require.Equal(t, "solana", id, "exact name must win over earlier substring")
}

func TestLookupAmbiguousSymbolSubstringUsesFirstSeen(t *testing.T) {
	ix := BuildIndex([]Record{
		{ID: "alpha-one", Name: "Alpha", Symbol: "XYZ"},
		{ID: "alpha-two", Name: "Beta", Symbol: "XYZ"},
	}, time.Time{})

	id, ok := ix.Lookup("xy")
	require.True(t, ok)
	require.Equal(t, "alpha-one", id)

	_, ok = ix.Lookup("xyz")
	require.True(t, ok, "ambiguous exact symbol still resolves through substring scan")
}

func TestBuildIndexDuplicateNamesLastWins(t *testing.T) {
	ix := BuildIndex([]Record{
		{ID: "first", Name: "Same", Symbol: "A"},
		{ID: "second", Name: "same ", Symbol: "B"},
	}, time.Time{})

	id, ok := ix.Lookup("same")
	require.True(t, ok)
	require.Equal(t, "second", id)
}

func TestCandidates(t *testing.T) {
	ix := BuildIndex(sampleRecords(), time.Time{})

	got := ix.Candidates("eth", 10)
	ids := make([]string, 0, len(got))
	for _, rec := range got {
		ids = append(ids, rec.ID)
	}
	require.Equal(t, []string{"ethereum", "ethereum-classic-fork"}, ids)

	require.Len(t, ix.Candidates("bitcoin", 1), 1)
	require.Nil(t, ix.Candidates("", 10))
	require.Nil(t, ix.Candidates("btc", 0))
}

func TestIndexRecordsCopy(t *testing.T) {
	ix := BuildIndex(sampleRecords(), time.Time{})
	records := ix.Records()
	require.Len(t, records, 5)
	records[0].ID = "mutated"
	require.Equal(t, "bitcoin", ix.Records()[0].ID)
}
