package sources

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-zones/internal/airquality"
)

// DatasetRepository is the pool of pre-generated population datasets.
type DatasetRepository interface {
	// ListAvailable returns the ids of every dataset, in a stable order.
	ListAvailable(ctx context.Context) ([]string, error)
	// Load returns the dataset with the given id.
	Load(ctx context.Context, id string) (airquality.Grid, error)
}

// DirRepository serves datasets stored as JSON files (an array of rows) in a directory.
type DirRepository struct {
	dir string
}

// NewDirRepository creates a repository over dir. A missing directory is an empty pool.
func NewDirRepository(dir string) *DirRepository {
	return &DirRepository{dir: dir}
}

// ListAvailable returns the names of the *.json files in the directory.
func (r *DirRepository) ListAvailable(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "population: list %s", r.dir)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Load decodes one dataset file.
func (r *DirRepository) Load(_ context.Context, id string) (airquality.Grid, error) {
	if id != filepath.Base(id) {
		return airquality.Grid{}, eris.Wrapf(airquality.ErrInvalidInput, "population: bad dataset id %q", id)
	}
	data, err := os.ReadFile(filepath.Join(r.dir, id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return airquality.Grid{}, eris.Wrapf(airquality.ErrNoDataAvailable, "population: dataset %q not found", id)
		}
		return airquality.Grid{}, eris.Wrapf(err, "population: read %s", id)
	}

	var grid airquality.Grid
	if err := json.Unmarshal(data, &grid); err != nil {
		if errors.Is(err, airquality.ErrInvalidInput) {
			return airquality.Grid{}, eris.Wrapf(err, "population: dataset %q", id)
		}
		return airquality.Grid{}, eris.Wrapf(airquality.ErrInvalidInput, "population: decode %s: %v", id, err)
	}
	return grid, nil
}

// MemoryRepository holds datasets in process, keyed by generated ids.
type MemoryRepository struct {
	mu       sync.RWMutex
	datasets map[string]airquality.Grid
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{datasets: make(map[string]airquality.Grid)}
}

// Add stores a copy of grid and returns its id.
func (r *MemoryRepository) Add(grid airquality.Grid) string {
	id := uuid.NewString()
	stored := airquality.Grid{N: grid.N, Cells: append([]float64(nil), grid.Cells...)}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[id] = stored
	return id
}

// ListAvailable returns every dataset id, sorted.
func (r *MemoryRepository) ListAvailable(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.datasets))
	for id := range r.datasets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Load returns a copy of the dataset.
func (r *MemoryRepository) Load(_ context.Context, id string) (airquality.Grid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.datasets[id]
	if !ok {
		return airquality.Grid{}, eris.Wrapf(airquality.ErrNoDataAvailable, "population: dataset %q not found", id)
	}
	return airquality.Grid{N: g.N, Cells: append([]float64(nil), g.Cells...)}, nil
}

// PopulationProvider draws one dataset uniformly at random per call. Selection is memoryless.
type PopulationProvider struct {
	repo DatasetRepository

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPopulationProvider creates a provider over repo. A nil rng uses a randomly seeded source.
func NewPopulationProvider(repo DatasetRepository, rng *rand.Rand) *PopulationProvider {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &PopulationProvider{repo: repo, rng: rng}
}

// Sample returns a random n x n dataset.
func (p *PopulationProvider) Sample(ctx context.Context, n int) (airquality.Grid, string, error) {
	ids, err := p.repo.ListAvailable(ctx)
	if err != nil {
		return airquality.Grid{}, "", err
	}
	if len(ids) == 0 {
		return airquality.Grid{}, "", eris.Wrap(airquality.ErrNoDataAvailable, "population: no datasets")
	}

	p.mu.Lock()
	id := ids[p.rng.IntN(len(ids))]
	p.mu.Unlock()

	grid, err := p.repo.Load(ctx, id)
	if err != nil {
		return airquality.Grid{}, "", err
	}
	if grid.N != n {
		return airquality.Grid{}, "", eris.Wrapf(airquality.ErrInvalidInput,
			"population: dataset %q is %dx%d, want %dx%d", id, grid.N, grid.N, n, n)
	}
	for i, v := range grid.Cells {
		if v < 0 {
			return airquality.Grid{}, "", eris.Wrapf(airquality.ErrInvalidInput,
				"population: dataset %q has negative density %g at [%d][%d]", id, v, i/n, i%n)
		}
	}

	zap.L().Debug("population dataset sampled", zap.String("dataset", id), zap.Int("pool", len(ids)))
	return grid, id, nil
}
