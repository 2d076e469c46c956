package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

func writeFeed(t *testing.T, dir, name, content string, mod time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestFetch_MissingDirIsEmpty(t *testing.T) {
	f, err := New(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)

	records, err := f.Fetch(context.Background(), domain.ProviderVerizon)

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFetch_ArrayForm(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "verizon.json", `[
		{"name": "Unlimited Welcome", "price": "$65/mo", "data": "Unlimited",
		 "features": ["5G access", 42], "provider": "Verizon",
		 "additional_info": {"contract": "none"}}
	]`, time.Now())
	f, err := New(dir)
	require.NoError(t, err)

	records, err := f.Fetch(context.Background(), "verizon")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Unlimited Welcome", records[0].Name)
	assert.Equal(t, []string{"5G access"}, records[0].Features)
	v, ok := records[0].Extra.Get("contract")
	assert.True(t, ok)
	assert.Equal(t, "none", v)
}

func TestFetch_ObjectFormFillsProvider(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "at&t.json", `{"plans": [{"name": "Unlimited Starter", "price": "$65"}]}`, time.Now())
	f, err := New(dir)
	require.NoError(t, err)

	records, err := f.Fetch(context.Background(), "AT&T")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ProviderATT, records[0].Provider)
}

func TestFetch_NewestFileWins(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	writeFeed(t, dir, "t-mobile_old.json", `[{"name": "Old", "provider": "T-Mobile"}]`, base)
	writeFeed(t, dir, "t-mobile_new.json", `[{"name": "New", "provider": "T-Mobile"}]`, base.Add(time.Hour))
	writeFeed(t, dir, ".t-mobile_hidden.json", `[{"name": "Hidden", "provider": "T-Mobile"}]`, base.Add(2*time.Hour))
	f, err := New(dir)
	require.NoError(t, err)

	records, err := f.Fetch(context.Background(), domain.ProviderTMobile)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "New", records[0].Name)
}

func TestFetch_MalformedFeed(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "verizon.json", `[{"name": `, time.Now())
	f, err := New(dir)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), domain.ProviderVerizon)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFetch_SkipsUndecodableRecords(t *testing.T) {
	dir := t.TempDir()
	writeFeed(t, dir, "verizon.json", `[
		{"name": "Start Unlimited", "price": 75},
		{"name": "Broken", "price": {"amount": 80}},
		{"name": "Play More", "price": "$80"}
	]`, time.Now())
	f, err := New(dir)
	require.NoError(t, err)

	records, err := f.Fetch(context.Background(), domain.ProviderVerizon)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Start Unlimited", records[0].Name)
	assert.Equal(t, "75", records[0].Price)
	assert.Equal(t, "Play More", records[1].Name)
}

func TestMatchesSlug(t *testing.T) {
	tests := []struct {
		name string
		slug string
		want bool
	}{
		{"verizon.json", "verizon", true},
		{"verizon_20240301.json", "verizon", true},
		{"verizonx.json", "verizon", false},
		{"verizon.txt", "verizon", false},
		{".verizon.json", "verizon", false},
		{"t-mobile.json", "t", false},
		{"verizon.json", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesSlug(tt.name, tt.slug))
		})
	}
}

func TestProviderFor(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"verizon.json", domain.ProviderVerizon, true},
		{"at&t_2024.json", domain.ProviderATT, true},
		{"t-mobile.json", domain.ProviderTMobile, true},
		{"mint_mobile.json", "mint", true},
		{".hidden.json", "", false},
		{"notes.txt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := providerFor(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	visible := filepath.Join(dir, "verizon.json")
	hidden := filepath.Join(dir, ".verizon.json")
	sub := filepath.Join(dir, "archive.json")
	require.NoError(t, os.WriteFile(visible, []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(hidden, []byte("[]"), 0o644))
	require.NoError(t, os.Mkdir(sub, 0o755))

	tests := []struct {
		name     string
		path     string
		op       fsnotify.Op
		provider string
		changed  bool
	}{
		{"create", visible, fsnotify.Create, domain.ProviderVerizon, true},
		{"write", visible, fsnotify.Write, domain.ProviderVerizon, true},
		{"chmod ignored", visible, fsnotify.Chmod, "", false},
		{"remove ignored", filepath.Join(dir, "gone.json"), fsnotify.Remove, "", false},
		{"hidden ignored", hidden, fsnotify.Write, "", false},
		{"directory ignored", sub, fsnotify.Create, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, changed := handleFsEvent(fsnotify.Event{Name: tt.path, Op: tt.op})
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.provider, provider)
		})
	}
}

func TestWatch_ReportsChangedProvider(t *testing.T) {
	dir := t.TempDir()
	f, err := New(dir, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := f.Watch(ctx)
	require.NoError(t, err)

	writeFeed(t, dir, "verizon_1.json", `[]`, time.Now())
	writeFeed(t, dir, "verizon_2.json", `[]`, time.Now())

	select {
	case p := <-events:
		assert.Equal(t, domain.ProviderVerizon, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no watch event")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatch_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "feeds")
	f, err := New(dir)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err = f.Watch(ctx)

	require.NoError(t, err)
	assert.DirExists(t, dir)
}
