package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertymatch/internal/model"
)

func record(source string, pos int, name string) model.EmbeddingRecord {
	return model.EmbeddingRecord{
		ID:        model.RecordID(source, pos),
		Source:    source,
		Position:  pos,
		Content:   name,
		Embedding: []float32{float32(pos), 1},
		Metadata:  model.PropertyRecord{Name: name},
	}
}

// corpusContract exercises the behaviour every CorpusStore must share
func corpusContract(t *testing.T, store CorpusStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.ReplaceSource(ctx, "b-brochure", []model.EmbeddingRecord{
		record("b-brochure", 0, "Acacia"),
		record("b-brochure", 1, "Executive Residences"),
	}))
	require.NoError(t, store.ReplaceSource(ctx, "a-brochure", []model.EmbeddingRecord{
		record("a-brochure", 0, "Rosehill"),
	}))

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Rosehill", all[0].Metadata.Name)
	assert.Equal(t, "Acacia", all[1].Metadata.Name)
	assert.Equal(t, "Executive Residences", all[2].Metadata.Name)
	assert.Equal(t, []float32{1, 1}, all[2].Embedding)

	// Re-ingestion supersedes the old records wholesale
	require.NoError(t, store.ReplaceSource(ctx, "b-brochure", []model.EmbeddingRecord{
		record("b-brochure", 0, "Acacia Phase 2"),
	}))
	sources, err := store.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.SourceInfo{
		{Source: "a-brochure", Records: 1},
		{Source: "b-brochure", Records: 1},
	}, sources)

	all, err = store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Acacia Phase 2", all[1].Metadata.Name)
}

func TestMemoryCorpus(t *testing.T) {
	corpusContract(t, NewMemoryCorpus())
}

func TestMemoryCorpus_EmptyReplaceRemovesSource(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCorpus()
	require.NoError(t, store.ReplaceSource(ctx, "x", []model.EmbeddingRecord{record("x", 0, "A")}))
	require.NoError(t, store.ReplaceSource(ctx, "x", nil))

	sources, err := store.Sources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestDemoCorpus(t *testing.T) {
	records := DemoCorpus()
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, DemoSource, r.Source)
		assert.Equal(t, i, r.Position)
		assert.Equal(t, "Dubai Hills", r.Metadata.Location)
		assert.Equal(t, r.Metadata.PriceMin, r.Metadata.PriceMax)
	}
	assert.Equal(t, "dubai-hills-demo-000", records[0].ID)
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	state := model.ConversationState{
		SessionID:   "s1",
		Step:        "near",
		Preferences: model.UserPreferences{Near: []string{"School"}},
		UpdatedAt:   now,
	}
	require.NoError(t, store.Save(ctx, state))

	// Mutating the caller's copy must not leak into the store
	state.Preferences.Near[0] = "Metro"

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "near", loaded.Step)
	assert.Equal(t, []string{"School"}, loaded.Preferences.Near)

	now = now.Add(2 * time.Hour)
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound, "expired sessions are gone")

	require.NoError(t, store.Save(ctx, model.ConversationState{SessionID: "s2", UpdatedAt: now}))
	require.NoError(t, store.Delete(ctx, "s2"))
	assert.ErrorIs(t, store.Delete(ctx, "s2"), ErrSessionNotFound)
}
