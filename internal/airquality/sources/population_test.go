package sources

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/air-quality-zones/internal/airquality"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestDirRepository_ListsOnlyJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `[[1,2],[3,4]]`)
	writeFile(t, dir, "a.json", `[[5,6],[7,8]]`)
	writeFile(t, dir, "notes.txt", "ignore me")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	repo := NewDirRepository(dir)
	ids, err := repo.ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, ids)

	grid, err := repo.Load(context.Background(), "a.json")
	require.NoError(t, err)
	assert.Equal(t, 2, grid.N)
	assert.Equal(t, 8.0, grid.At(1, 1))
}

func TestDirRepository_MissingDirIsEmpty(t *testing.T) {
	repo := NewDirRepository(filepath.Join(t.TempDir(), "absent"))
	ids, err := repo.ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDirRepository_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ragged.json", `[[1,2],[3]]`)
	writeFile(t, dir, "garbage.json", `{"not":"a grid"}`)
	repo := NewDirRepository(dir)

	_, err := repo.Load(context.Background(), "ragged.json")
	require.ErrorIs(t, err, airquality.ErrInvalidInput)

	_, err = repo.Load(context.Background(), "garbage.json")
	require.ErrorIs(t, err, airquality.ErrInvalidInput)

	_, err = repo.Load(context.Background(), "missing.json")
	require.ErrorIs(t, err, airquality.ErrNoDataAvailable)

	_, err = repo.Load(context.Background(), "../ragged.json")
	require.ErrorIs(t, err, airquality.ErrInvalidInput)
}

func TestPopulationProvider_EmptyPool(t *testing.T) {
	p := NewPopulationProvider(NewMemoryRepository(), nil)

	_, _, err := p.Sample(context.Background(), 3)
	require.ErrorIs(t, err, airquality.ErrNoDataAvailable)

	p = NewPopulationProvider(NewDirRepository(t.TempDir()), nil)
	_, _, err = p.Sample(context.Background(), 3)
	require.ErrorIs(t, err, airquality.ErrNoDataAvailable)
}

func TestPopulationProvider_SamplesEveryDataset(t *testing.T) {
	repo := NewMemoryRepository()
	want := map[string]bool{}
	for i := 0; i < 3; i++ {
		g := airquality.NewGrid(3)
		g.Set(0, 0, float64(i))
		want[repo.Add(g)] = true
	}

	p := NewPopulationProvider(repo, rand.New(rand.NewPCG(11, 12)))
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		grid, id, err := p.Sample(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, 3, grid.N)
		seen[id] = true
	}
	assert.Equal(t, want, seen)
}

func TestPopulationProvider_RejectsWrongDimension(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Add(airquality.NewGrid(4))

	_, _, err := NewPopulationProvider(repo, nil).Sample(context.Background(), 5)
	require.ErrorIs(t, err, airquality.ErrInvalidInput)
}

func TestPopulationProvider_RejectsNegativeDensity(t *testing.T) {
	repo := NewMemoryRepository()
	g := airquality.NewGrid(2)
	g.Set(1, 0, -3)
	repo.Add(g)

	_, _, err := NewPopulationProvider(repo, nil).Sample(context.Background(), 2)
	require.ErrorIs(t, err, airquality.ErrInvalidInput)
}

func TestMemoryRepository_StoresCopies(t *testing.T) {
	repo := NewMemoryRepository()
	g := airquality.NewGrid(2)
	id := repo.Add(g)
	g.Set(0, 0, 42)

	loaded, err := repo.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0.0, loaded.At(0, 0))

	_, err = repo.Load(context.Background(), "nope")
	require.ErrorIs(t, err, airquality.ErrNoDataAvailable)
}
