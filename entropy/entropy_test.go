package entropy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFastSourcesProduceData(t *testing.T) {
	for _, src := range DefaultFastSources() {
		t.Run(src.Name(), func(t *testing.T) {
			s, err := src.Sample(context.Background())
			require.NoError(t, err)
			assert.NotEmpty(t, s.Data)
			assert.GreaterOrEqual(t, s.Quality, 0)
		})
	}
}

func TestCPUFeatureSourceNeverClaimsQuality(t *testing.T) {
	s, err := CPUFeatureSource{}.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Quality, "capability detection alone is not entropy")
}

func TestDefaultSlowSourcesProduceData(t *testing.T) {
	for _, src := range DefaultSlowSources() {
		t.Run(src.Name(), func(t *testing.T) {
			s, err := src.Sample(context.Background())
			require.NoError(t, err)
			assert.NotEmpty(t, s.Data)
		})
	}
}

// TestDefaultSlowSourcesReachQualityTargetInOnePass covers the quality-
// budget half of spec.md §8 scenario S1: a single slow poll over this
// platform's default slow sources, combined with a single fast poll, must
// reach the §4.2 quality target of 100 without any caller-supplied
// AddEntropy help.
func TestDefaultSlowSourcesReachQualityTargetInOnePass(t *testing.T) {
	total := 0
	for _, src := range DefaultFastSources() {
		s, err := src.Sample(context.Background())
		require.NoError(t, err)
		total += s.Quality
	}
	for _, src := range DefaultSlowSources() {
		s, err := src.Sample(context.Background())
		require.NoError(t, err)
		total += s.Quality
	}
	assert.GreaterOrEqual(t, total, 100, "default sources must reach full quality in a single poll pass")
}

func TestExternalCommandWorkerGatherProducesFixedSizeDigest(t *testing.T) {
	w := DefaultExternalCommandWorker()
	if w == nil {
		t.Skip("no worker command for this platform")
	}
	s, err := w.Gather(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.Data, 32) // sha256 digest size
}

func TestExternalCommandWorkerRejectsEmptyCommand(t *testing.T) {
	w := &ExternalCommandWorker{}
	_, err := w.Gather(context.Background())
	assert.ErrorIs(t, err, ErrWorkerUnavailable)
}
