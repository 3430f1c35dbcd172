// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-finder/pkg/types"
)

func testStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := Open(types.CacheConfig{Dir: t.TempDir(), TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []types.Record {
	return []types.Record{
		{
			Title:    "Paper A",
			Year:     2021,
			DOI:      "10.1/a",
			Source:   types.SourceOpenAlex,
			Abstract: "Cached abstract text.",
		},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := testStore(t, time.Hour)
	ctx := context.Background()

	key := Key("gut microbiome", 2020, 2023, 100, "openalex-relevance",
		[]types.SourceType{types.SourceOpenAlex, types.SourcePubMed}, false)

	require.NoError(t, s.Put(ctx, key, sampleRecords()))

	entry, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Len(t, entry.Records, 1)
	assert.Equal(t, "Paper A", entry.Records[0].Title)
	// Abstracts round-trip through the cache.
	assert.Equal(t, "Cached abstract text.", entry.Records[0].Abstract)
	assert.WithinDuration(t, time.Now(), entry.FetchedAt, time.Minute)
}

func TestGetMiss(t *testing.T) {
	s := testStore(t, time.Hour)

	entry, err := s.Get(context.Background(), "no-such-key")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestPutReplacesExisting(t *testing.T) {
	s := testStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", sampleRecords()))
	require.NoError(t, s.Put(ctx, "k", []types.Record{{Title: "Updated"}}))

	entry, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Len(t, entry.Records, 1)
	assert.Equal(t, "Updated", entry.Records[0].Title)
}

func TestExpiredEntryIsEvicted(t *testing.T) {
	s := testStore(t, 10*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", sampleRecords()))
	time.Sleep(25 * time.Millisecond)

	entry, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, entry, "expired entry should read as a miss")
}

func TestOpenPrunesStaleEntries(t *testing.T) {
	cfg := types.CacheConfig{Dir: t.TempDir(), TTL: 10 * time.Millisecond}
	ctx := context.Background()

	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "stale", sampleRecords()))
	require.NoError(t, s.Close())

	time.Sleep(25 * time.Millisecond)

	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()

	entry, err := s.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestKeyNormalization(t *testing.T) {
	sources := []types.SourceType{types.SourceOpenAlex}

	a := Key("  CRISPR  ", 2020, 0, 100, "openalex-relevance", sources, false)
	b := Key("crispr", 2020, 0, 100, "openalex-relevance", sources, false)
	assert.Equal(t, a, b, "case and surrounding whitespace should not change the key")

	c := Key("crispr", 2021, 0, 100, "openalex-relevance", sources, false)
	assert.NotEqual(t, a, c, "different year ranges must key separately")

	d := Key("crispr", 2020, 0, 100, "openalex-cited", sources, false)
	assert.NotEqual(t, a, d, "different sort keys must key separately")
}

func TestKeySeparatesAbstractFetching(t *testing.T) {
	sources := []types.SourceType{types.SourcePubMed}

	// A search run without abstracts stores records with empty Abstract
	// fields; serving it to a later --abstracts run would silently lose
	// the abstracts. The two runs must key separately.
	plain := Key("crispr", 0, 0, 100, "pubmed-relevance", sources, false)
	withAbstracts := Key("crispr", 0, 0, 100, "pubmed-relevance", sources, true)
	assert.NotEqual(t, plain, withAbstracts)
}
