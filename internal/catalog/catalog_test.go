package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mistakeknot/interscout/internal/logger"
	"github.com/mistakeknot/interscout/internal/rank"
	"github.com/mistakeknot/interscout/internal/registry"
)

const readmeURL = "https://example.test/README.md"

const readme = `## Reference Servers

- **[Git](src/git)** - Tools to read, search, and manipulate Git repositories
- **[Memory](src/memory)** - Knowledge graph-based persistent memory

### Community Servers

- **[GitHub Actions](https://github.com/someone/gha-mcp)** - Inspect git workflows
- **[Weather](https://github.com/someone/weather)** - Forecasts
`

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Fetch(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

func newFinder(t *testing.T, src DocumentSource) *Finder {
	return NewFinder(src, readmeURL, rank.NewScorer(rank.DefaultWeights()), logger.NewTestLogger(t))
}

func TestFindRanksMatches(t *testing.T) {
	src := new(mockSource)
	src.On("Fetch", mock.Anything, readmeURL).Return(readme, nil)

	results, err := newFinder(t, src).Find(context.Background(), Options{Query: "git"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Git", results[0].Name)
	assert.Equal(t, registry.TypeReference, results[0].Type)
	assert.Equal(t, "GitHub Actions", results[1].Name)
	assert.Greater(t, results[0].Relevance, results[1].Relevance)
	src.AssertExpectations(t)
}

func TestFindFiltersByType(t *testing.T) {
	src := new(mockSource)
	src.On("Fetch", mock.Anything, readmeURL).Return(readme, nil)

	results, err := newFinder(t, src).Find(context.Background(), Options{Query: "git", Type: "Community"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "GitHub Actions", results[0].Name)
}

func TestFindEmptyQueryListsByName(t *testing.T) {
	src := new(mockSource)
	src.On("Fetch", mock.Anything, readmeURL).Return(readme, nil)

	results, err := newFinder(t, src).Find(context.Background(), Options{Limit: 3})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Git", results[0].Name)
	assert.Equal(t, "GitHub Actions", results[1].Name)
	assert.Equal(t, "Memory", results[2].Name)
}

func TestFindNoMatchesIsEmpty(t *testing.T) {
	src := new(mockSource)
	src.On("Fetch", mock.Anything, readmeURL).Return(readme, nil)

	results, err := newFinder(t, src).Find(context.Background(), Options{Query: "kubernetes"})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFindSkeletonSkipsFetch(t *testing.T) {
	src := new(mockSource)

	results, err := newFinder(t, src).Find(context.Background(), Options{Query: "MCPSkeleton"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, registry.Skeleton().Name, results[0].Name)
	src.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestFindRejectsUnknownType(t *testing.T) {
	src := new(mockSource)

	_, err := newFinder(t, src).Find(context.Background(), Options{Query: "git", Type: "vendor"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown server type")
}

func TestFindPropagatesFetchError(t *testing.T) {
	src := new(mockSource)
	src.On("Fetch", mock.Anything, readmeURL).Return("", errors.New("network down"))

	_, err := newFinder(t, src).Find(context.Background(), Options{Query: "git"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network down")
}

func TestBest(t *testing.T) {
	src := new(mockSource)
	src.On("Fetch", mock.Anything, readmeURL).Return(readme, nil)
	f := newFinder(t, src)

	best, ok, err := f.Best(context.Background(), "memory")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Memory", best.Name)

	_, ok, err = f.Best(context.Background(), "nothing-matches")
	require.NoError(t, err)
	assert.False(t, ok)
}
