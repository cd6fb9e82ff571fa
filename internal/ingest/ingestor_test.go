package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertymatch/internal/extract"
	"propertymatch/internal/model"
)

const dubaiHillsBrochure = `Dubai Hills Estate collection
Project Rosehill by Emaar
AED 2,310,000 | 1,419 sq ft | 2 BHK | Dubai Hills | Swimming Pool, Gym`

const secondPage = `Project Acacia - Park Heights
AED 3,850,000 | 1,322 sq ft | 2 bedrooms | Dubai Hills | pool, gym, security staff
Property Type: Apartment`

type failingSource struct{ err error }

func (s failingSource) Pages(context.Context) ([]string, error) { return nil, s.err }

func newTestIngestor() *Ingestor {
	return New(extract.New(), zerolog.Nop())
}

func TestIngest_SplitsRecordsAtBoundaries(t *testing.T) {
	records, err := newTestIngestor().Ingest(context.Background(), TextSource{dubaiHillsBrochure, secondPage})
	require.NoError(t, err)
	require.Len(t, records, 2)

	rosehill := records[0]
	assert.Equal(t, "Rosehill", rosehill.Name)
	assert.Equal(t, 2310000.0, rosehill.PriceMin)
	assert.Equal(t, "Dubai Hills", rosehill.Location)
	assert.Subset(t, []string(rosehill.Amenities), []string{"Swimming Pool", "Gym"})

	acacia := records[1]
	assert.Equal(t, "Acacia", acacia.Name)
	assert.Equal(t, 3850000.0, acacia.PriceMin)
	assert.Equal(t, 1322.0, acacia.SizeSqft)
	assert.Contains(t, []string(acacia.Amenities), "24/7 Security")
}

func TestIngest_NoBoundaryYieldsSingleGenericRecord(t *testing.T) {
	records, err := newTestIngestor().Ingest(context.Background(), TextSource{"Lovely 3 BHK villa in Mumbai, ₹ 2 Cr"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, extract.DefaultRecordName, records[0].Name)
	assert.Equal(t, 3, records[0].Bedrooms)
	assert.Equal(t, "Mumbai", records[0].Location)
	assert.Equal(t, 20000000.0, records[0].PriceMin)
}

func TestIngest_FailuresAreWholeDocument(t *testing.T) {
	ing := newTestIngestor()

	records, err := ing.Ingest(context.Background(), failingSource{err: fmt.Errorf("%w: page 3", ErrPageParse)})
	assert.ErrorIs(t, err, ErrPageParse)
	assert.Nil(t, records)

	_, err = ing.Ingest(context.Background(), PDFSource{Path: filepath.Join(t.TempDir(), "missing.pdf")})
	assert.ErrorIs(t, err, ErrSourceRead)

	_, err = ing.Ingest(context.Background(), PDFSource{Data: []byte("definitely not a pdf")})
	assert.ErrorIs(t, err, ErrPageParse)
}

func TestIngestBatch_ContinuesPastFailedDocuments(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "acacia.txt")
	require.NoError(t, os.WriteFile(good, []byte(secondPage), 0o644))

	results := newTestIngestor().IngestBatch(context.Background(), []Document{
		{ID: "missing", Source: SourceForPath(filepath.Join(dir, "missing.txt"))},
		{ID: "acacia", Source: SourceForPath(good)},
	})

	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, ErrSourceRead)
	assert.Empty(t, results[0].Records)
	require.NoError(t, results[1].Err)
	require.Len(t, results[1].Records, 1)
	assert.Equal(t, "Acacia", results[1].Records[0].Name)
}

func TestIngestBatch_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := newTestIngestor().IngestBatch(ctx, []Document{{ID: "a", Source: TextSource{"x"}}})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Rosehill by Emaar", "Rosehill"},
		{"Executive Residences, Dubai Hills", "Executive Residences"},
		{"Acacia - Park Heights", "Acacia"},
		{"Sobha Hartland Phase 2 Tower A Wing", "Sobha Hartland Phase 2 Tower"},
		{"skyline towers in the bay", "skyline towers"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanName(tt.raw))
		})
	}
}

func TestIngest_CaseChangingRunesInBoundaryName(t *testing.T) {
	for _, r := range []string{"Ⱥ", "İ"} {
		name := strings.Repeat(r, 20)
		page := "Project " + name + " by Emaar\nAED 2,310,000 | 2 BHK | Dubai Hills"

		var records []model.PropertyRecord
		require.NotPanics(t, func() {
			var err error
			records, err = newTestIngestor().Ingest(context.Background(), TextSource{page})
			require.NoError(t, err)
		})
		require.Len(t, records, 1)
		assert.Equal(t, name, records[0].Name)
		assert.True(t, strings.HasPrefix(records[0].Description, name))
		assert.Equal(t, 2310000.0, records[0].PriceMin)
	}

	assert.Equal(t, "Acacia", cleanName("Acacia BY Emaar"))
}

func TestSourceForPath(t *testing.T) {
	assert.IsType(t, PDFSource{}, SourceForPath("brochure.PDF"))
	assert.IsType(t, TextFileSource{}, SourceForPath("brochure.txt"))
}

func TestJoinFragments(t *testing.T) {
	assert.Equal(t, "Project Rosehill\nAED 2,310,000", joinFragments("  Project   Rosehill \n\n AED\t2,310,000\n"))
}
