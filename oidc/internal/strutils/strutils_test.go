package strutils

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrListContains(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	haystack := []string{
		"code",
		"token",
		"id_token",
	}
	require.False(StrListContains(haystack, "saml"))
	require.True(StrListContains(haystack, "id_token"))
}

func TestRemoveDuplicatesStable(t *testing.T) {
	type tCase struct {
		input           []string
		expect          []string
		caseInsensitive bool
	}

	tCases := []tCase{
		{[]string{}, []string{}, false},
		{[]string{}, []string{}, true},
		{[]string{"openid", "profile", "openid"}, []string{"openid", "profile"}, false},
		{[]string{"Email", "profile", "email"}, []string{"Email", "profile", "email"}, false},
		{[]string{"Email", "profile", "email"}, []string{"Email", "profile"}, true},
		{[]string{" ", "groups", "email", "groups"}, []string{"groups", "email"}, false},
		{[]string{"A ", " a", " a ", "b"}, []string{"A ", "b"}, true},
		{[]string{"A ", " a", " a ", "b"}, []string{"A ", " a", "b"}, false},
	}

	for _, tc := range tCases {
		actual := RemoveDuplicatesStable(tc.input, tc.caseInsensitive)

		if !reflect.DeepEqual(actual, tc.expect) {
			t.Fatalf("Bad testcase %#v, expected %v, got %v", tc, tc.expect, actual)
		}
	}
}
