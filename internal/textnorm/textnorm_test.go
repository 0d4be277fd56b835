package textnorm_test

import (
	"testing"

	"funding_digest/internal/textnorm"

	"github.com/stretchr/testify/require"
)

func TestApostrophes(t *testing.T) {
	require.Equal(t, "Sweden's Lovable", textnorm.Apostrophes("Sweden’s Lovable"))
	require.Equal(t, "Sweden's Lovable", textnorm.Apostrophes("Swedenʼs Lovable"))
	require.Equal(t, "sweden's lovable", textnorm.Fold("Sweden‘s LOVABLE"))
}

func TestKeywordSet_SubstringMode(t *testing.T) {
	set := textnorm.NewKeywordSet([]string{"AI", "series a", " ", "ai"}, textnorm.Substring)
	require.Equal(t, 2, set.Len())

	require.True(t, set.MatchAny("the ceo said nothing"))
	require.True(t, set.MatchAny("closes series a round"))
	require.False(t, set.MatchAny("nothing relevant here"))
}

func TestKeywordSet_WordMode(t *testing.T) {
	set := textnorm.NewKeywordSet([]string{"ai", "series a"}, textnorm.Word)

	require.False(t, set.MatchAny("the ceo said nothing"))
	require.True(t, set.MatchAny("swedish ai startup"))
	require.True(t, set.MatchAny("(ai) startup"))
	require.True(t, set.MatchAny("ai"))
	require.False(t, set.MatchAny("series abc"))
	require.True(t, set.MatchAny("a series a, led by"))
}

func TestKeywordSet_Matches(t *testing.T) {
	set := textnorm.NewKeywordSet([]string{"fintech", "payments", "crypto"}, textnorm.Substring)
	require.Equal(t, []string{"fintech", "payments"}, set.Matches("fintech for payments"))
	require.Empty(t, set.Matches("biotech"))
}

func TestContainsWord_NonASCIIBoundaries(t *testing.T) {
	require.True(t, textnorm.ContainsWord("startup i malmö får pengar", "malmö"))
	require.False(t, textnorm.ContainsWord("malmöbaserade", "malmö"))
	require.False(t, textnorm.ContainsWord("", "x"))
}

func TestContainsWord_PaddedKeyword(t *testing.T) {
	require.True(t, textnorm.ContainsWord(" for its ai assistant ", " ai "))
	require.True(t, textnorm.ContainsWord(" ai-powered lending ", " ai-"))
	require.False(t, textnorm.ContainsWord(" raises money ", " ai "))
	require.True(t, textnorm.ContainsWord("x-ai", "-ai"))
	require.False(t, textnorm.ContainsWord("x-air", "-ai"))
}

func TestParseMatchMode(t *testing.T) {
	mode, err := textnorm.ParseMatchMode("")
	require.NoError(t, err)
	require.Equal(t, textnorm.Substring, mode)

	mode, err = textnorm.ParseMatchMode(" WORD ")
	require.NoError(t, err)
	require.Equal(t, textnorm.Word, mode)

	_, err = textnorm.ParseMatchMode("regex")
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", textnorm.Truncate("short", 10))
	require.Equal(t, "hello", textnorm.Truncate("hello world", 8))
	require.Equal(t, "åäö", textnorm.Truncate("åäöåäö", 3))
	require.Equal(t, "", textnorm.Truncate("abc", 0))
}
