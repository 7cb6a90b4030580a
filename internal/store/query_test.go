package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeerrors "github.com/lorekit/lorestore/internal/errors"
)

func TestEscapeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"thunder", `"thunder"`},
		{`"quoted"`, `"quoted"`},
		{`a "b" c`, `"a b c"`},
		{`wild* -not field:x (or)`, `"wild* -not field:x (or)"`},
		{"", `""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeQuery(tt.in))
	}
}

func TestSearch_SpecialSyntaxTreatedAsLiteral(t *testing.T) {
	c := newCorpus(t)
	c.write(t, "a.md", "plain words about resonance")
	c.reindex(t, false)

	// None of these may surface an FTS5 parse error.
	for _, q := range []string{
		`"resonance"`,
		`reso* AND nance`,
		`-resonance`,
		`field:resonance`,
		`(resonance OR thunder)`,
		`reso"nance`,
		`:: ** ()`,
	} {
		_, err := c.store.Search(context.Background(), q, 5)
		assert.NoError(t, err, "query %q", q)
	}
}

func TestSearch_PhraseSemantics(t *testing.T) {
	c := newCorpus(t)
	c.write(t, "a.md", "the field resonates with thunder")
	c.write(t, "b.md", "thunder rolls over the field")
	c.reindex(t, false)

	// As a literal phrase, word order matters.
	results, err := c.store.Search(context.Background(), "resonates with thunder", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "field resonates")
}

func TestSearch_RankingFavorsTermFrequency(t *testing.T) {
	c := newCorpus(t)
	c.write(t, "many.md",
		"thunder thunder thunder thunder thunder echoes in the valley below")
	c.write(t, "once.md",
		"a single clap of thunder was heard in the valley below today")
	c.reindex(t, false)

	results, err := c.store.Search(context.Background(), "thunder", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, results[0], "thunder thunder")
}

func TestSearch_TopKBoundsResults(t *testing.T) {
	c := newCorpus(t)
	for _, name := range []string{"a.md", "b.md", "c.md", "d.md"} {
		c.write(t, name, "every file mentions lightning somewhere")
	}
	c.reindex(t, false)

	results, err := c.store.Search(context.Background(), "lightning", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_InvalidTopK(t *testing.T) {
	c := newCorpus(t)

	for _, topK := range []int{0, -3} {
		_, err := c.store.Search(context.Background(), "anything", topK)
		require.Error(t, err)
		assert.Equal(t, storeerrors.ErrCodeInvalidTopK, storeerrors.GetCode(err))
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	c := newCorpus(t)
	c.write(t, "a.md", "content exists")
	c.reindex(t, false)

	for _, q := range []string{"", "   ", `""`} {
		results, err := c.store.Search(context.Background(), q, 5)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestSearch_NoMatchesIsNotAnError(t *testing.T) {
	c := newCorpus(t)
	c.write(t, "a.md", "nothing relevant here")
	c.reindex(t, false)

	results, err := c.store.Search(context.Background(), "xylophone", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestSearch_StemmingViaPorterTokenizer(t *testing.T) {
	c := newCorpus(t)
	c.write(t, "a.md", "the field resonates with thunder")
	c.reindex(t, false)

	// porter stemmer maps resonating -> resonates.
	results, err := c.store.Search(context.Background(), "resonating", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestSearch_LongQueryTruncatedOnlyInLogs(t *testing.T) {
	c := newCorpus(t)
	c.write(t, "a.md", strings.Repeat("verbose ", 50)+"ending")
	c.reindex(t, false)

	long := strings.Repeat("verbose ", 30)
	results, err := c.store.Search(context.Background(), long, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}
