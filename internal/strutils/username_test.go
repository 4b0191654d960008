package strutils_test

import (
	"testing"

	"github.com/lumen-gg/standing/internal/strutils"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUsername(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Cookiezi", "cookiezi"},
		{"spaces to underscores", "White Cat", "white_cat"},
		{"trims", "  padded name ", "padded_name"},
		{"already safe", "some_user", "some_user"},
		{"empty", "", ""},
		{"mixed", " Mixed Case_Name ", "mixed_case_name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.expected, strutils.NormalizeUsername(tc.input))
		})
	}
}

func TestMixesSpacesAndUnderscores(t *testing.T) {
	t.Parallel()

	require.True(t, strutils.MixesSpacesAndUnderscores("a b_c"))
	require.False(t, strutils.MixesSpacesAndUnderscores("a b c"))
	require.False(t, strutils.MixesSpacesAndUnderscores("a_b_c"))
	require.False(t, strutils.MixesSpacesAndUnderscores("abc"))
}
