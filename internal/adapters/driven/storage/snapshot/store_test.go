package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "scraped_data"))
	require.NoError(t, err)
	return s
}

func TestNewFileStore_EmptyDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestFileStore_SaveAndLatest(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	plans := []domain.CanonicalPlan{{
		Name:         "5G Get More",
		PriceDisplay: "$90/month",
		PriceNumeric: 90,
		DataDisplay:  "Unlimited",
		Features:     []string{"Unlimited premium data"},
		Provider:     "Verizon",
		Extra:        domain.NewExtra("contract", "No contract required"),
		SourceTag:    domain.SourceTagWebScraping,
	}}

	path, err := s.Save(ctx, domain.NewProviderSnapshot("Verizon", plans, at))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "verizon_20260304_050607.json"), path)

	latest, err := s.Latest(ctx, "Verizon")
	require.NoError(t, err)
	assert.Equal(t, 1, latest.PlanCount)
	assert.Equal(t, "5G Get More", latest.Plans[0].Name)
	assert.True(t, at.Equal(latest.ScrapedAt))
	v, ok := latest.Plans[0].Extra.Get("contract")
	assert.True(t, ok)
	assert.Equal(t, "No contract required", v)
}

func TestFileStore_LatestPicksGreatestTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.Save(ctx, domain.NewProviderSnapshot("AT&T", []domain.CanonicalPlan{{Name: "new"}}, base.Add(48*time.Hour)))
	require.NoError(t, err)
	_, err = s.Save(ctx, domain.NewProviderSnapshot("AT&T", []domain.CanonicalPlan{{Name: "old"}}, base))
	require.NoError(t, err)

	latest, err := s.Latest(ctx, "AT&T")
	require.NoError(t, err)
	assert.Equal(t, "new", latest.Plans[0].Name)
}

func TestFileStore_NeverOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := s.Save(ctx, domain.NewProviderSnapshot("Verizon", []domain.CanonicalPlan{{Name: "one"}}, at))
	require.NoError(t, err)
	second, err := s.Save(ctx, domain.NewProviderSnapshot("Verizon", []domain.CanonicalPlan{{Name: "two"}}, at))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "verizon_20260101_000001.json", filepath.Base(second))

	names, err := s.List(ctx, "Verizon")
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestFileStore_ListIgnoresOtherFiles(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.Save(ctx, domain.NewProviderSnapshot("T-Mobile", nil, at))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "t-mobile_notes.json"), []byte("{}"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "t-mobile_20260101_000000.txt"), []byte("x"), 0600))

	names, err := s.List(ctx, "T-Mobile")
	require.NoError(t, err)
	assert.Equal(t, []string{"t-mobile_20260101_000000.json"}, names)

	names, err = s.List(ctx, "T")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFileStore_LatestMissing(t *testing.T) {
	s := newStore(t)
	_, err := s.Latest(context.Background(), "Verizon")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileStore_Remove(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := s.Save(ctx, domain.NewProviderSnapshot("Verizon", nil, at.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}
	_, err := s.Save(ctx, domain.NewProviderSnapshot("AT&T", nil, at))
	require.NoError(t, err)

	n, err := s.Remove(ctx, "Verizon")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	names, err := s.List(ctx, "AT&T")
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestFileStore_SaveKeepsUnsafeNamesInDir(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	path, err := s.Save(ctx, domain.NewProviderSnapshot("../Outside", []domain.CanonicalPlan{{Name: "x"}}, at))

	require.NoError(t, err)
	assert.Equal(t, s.Dir(), filepath.Dir(path))
	assert.Equal(t, "___outside_20260101_000000.json", filepath.Base(path))

	latest, err := s.Latest(ctx, "../Outside")
	require.NoError(t, err)
	assert.Equal(t, "../Outside", latest.Provider)
}
