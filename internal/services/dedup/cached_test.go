package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/killallgit/vidsum/internal/services/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCachedRemote_CachesHitsOnly(t *testing.T) {
	hits := cache.NewMemoryCache(10)
	defer hits.Stop()

	remote := new(MockRemoteStore)
	remote.On("FindByURL", mock.Anything, testURL).Return(true, nil).Once()
	remote.On("FindByURL", mock.Anything, "https://www.youtube.com/watch?v=new").Return(false, nil).Twice()

	cached := NewCachedRemote(remote, hits, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		found, err := cached.FindByURL(ctx, testURL)
		require.NoError(t, err)
		assert.True(t, found)
	}
	for i := 0; i < 2; i++ {
		found, err := cached.FindByURL(ctx, "https://www.youtube.com/watch?v=new")
		require.NoError(t, err)
		assert.False(t, found)
	}

	remote.AssertExpectations(t)
}

func TestCachedRemote_ErrorNotCached(t *testing.T) {
	hits := cache.NewMemoryCache(10)
	defer hits.Stop()

	remote := new(MockRemoteStore)
	remote.On("Configured").Return(true)
	remote.On("FindByURL", mock.Anything, testURL).Return(false, errors.New("boom")).Once()
	remote.On("FindByURL", mock.Anything, testURL).Return(true, nil).Once()

	cached := NewCachedRemote(remote, hits, time.Hour)

	_, err := cached.FindByURL(context.Background(), testURL)
	assert.Error(t, err)

	gate := NewGate(cached, nil, 0)
	assert.Equal(t, SourceRemote, gate.Check(context.Background(), testURL, testID))
	assert.True(t, hits.Has(context.Background(), testURL))
}
