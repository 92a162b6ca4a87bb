package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkhorn/inkhorn/internal/ngram"
)

func TestDescribeStyle(t *testing.T) {
	t.Parallel()
	m := trainOn(t, 2, 1,
		"The dragon flew over the mountain. The dragon roared loudly.",
		"The knight fought the dragon bravely.",
	)

	s := DescribeStyle(m, 2)
	require.True(t, s.Trained)
	require.Equal(t, 2, s.Order)
	require.Equal(t, 11, s.VocabularySize) // 10 words + terminal punctuation
	require.Equal(t, 2, s.Documents)
	require.Equal(t, 3, s.Sentences)

	// "the" (5) then "dragon" (3); punctuation tokens are excluded.
	require.Equal(t, []WordFrequency{
		{Word: "the", Count: 5},
		{Word: "dragon", Count: 3},
	}, s.TopWords)

	require.Greater(t, s.AvgSentenceLength, 0.0)
	require.Len(t, s.ContextsPerOrder, 2)
}

func TestDescribeStyleUntrained(t *testing.T) {
	t.Parallel()
	s := DescribeStyle(ngram.Dumb(), 5)
	require.False(t, s.Trained)
	require.Zero(t, s.VocabularySize)
	require.Empty(t, s.TopWords)
}
