package selection

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLegacy(t *testing.T) {
	tests := []struct {
		name          string
		response      string
		maxIdentifier int
		want          []int
	}{
		{name: "rank and identifier pairs", response: "1. 3\n2. 1\n3. 7", maxIdentifier: 7, want: []int{3, 1, 7}},
		{name: "implausible numbers dropped", response: "1. 3 (2023)\n2. 1\n3. 7", maxIdentifier: 7, want: []int{3, 1, 7}},
		{name: "prose around list", response: "My picks:\n1) 12 - great\n2) 5\n3) 40", maxIdentifier: 40, want: []int{12, 5, 40}},
		{name: "duplicates kept once", response: "1. 4\n2. 4\n3. 2", maxIdentifier: 9, want: []int{4, 2}},
		{name: "no numbers", response: "I cannot rank these.", maxIdentifier: 9, want: nil},
		{name: "single number", response: "5", maxIdentifier: 9, want: nil},
		{name: "embedded digits are not tokens", response: "1. v2a\n2. 6", maxIdentifier: 9, want: []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractLegacy(tt.response, tt.maxIdentifier)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractLegacy() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseIdentifiers_Structured(t *testing.T) {
	valid := map[int]struct{}{3: {}, 5: {}, 8: {}, 13: {}}

	tests := []struct {
		name     string
		response string
		want     []int
		wantErr  error
		badID    int
	}{
		{name: "plain object", response: `{"ranking":[8,3,13]}`, want: []int{8, 3, 13}},
		{name: "object in prose", response: "Sure!\n```json\n{\"ranking\": [5, 8, 3]}\n```", want: []int{5, 8, 3}},
		{name: "more than three", response: `{"ranking":[13,8,5,3]}`, want: []int{13, 8, 5}},
		{name: "duplicates", response: `{"ranking":[5,5,3]}`, want: []int{5, 3}},
		{name: "outside group", response: `{"ranking":[8,21,3]}`, wantErr: ErrParseAmbiguity, badID: 21},
		{name: "empty ranking", response: `{"ranking":[]}`, wantErr: ErrParseAmbiguity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIdentifiers(tt.response, valid, 13)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.badID != 0 {
					var pe *ParseError
					require.True(t, errors.As(err, &pe))
					assert.Equal(t, tt.badID, pe.Identifier)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIdentifiers_LegacyFallback(t *testing.T) {
	valid := map[int]struct{}{1: {}, 3: {}, 7: {}}

	got, err := ParseIdentifiers("1. 3\n2. 1\n3. 7", valid, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 7}, got)

	t.Run("filters to the group", func(t *testing.T) {
		got, err := ParseIdentifiers("1. 3\n2. 5\n3. 7", valid, 7)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 7}, got)
	})

	t.Run("keeps every listed identifier", func(t *testing.T) {
		wide := map[int]struct{}{1: {}, 3: {}, 5: {}, 7: {}}
		got, err := ParseIdentifiers("1. 3\n2. 1\n3. 7\n4. 5", wide, 7)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 1, 7, 5}, got)
	})

	t.Run("object without ranking uses heuristic", func(t *testing.T) {
		got, err := ParseIdentifiers("{\"note\": \"x\"}\n1. 7\n2. 1", valid, 7)
		require.NoError(t, err)
		assert.Equal(t, []int{7, 1}, got)
	})

	t.Run("nothing usable", func(t *testing.T) {
		_, err := ParseIdentifiers("All of them are great.", valid, 7)
		assert.ErrorIs(t, err, ErrParseAmbiguity)
	})
}

func TestParseError_Error(t *testing.T) {
	err := &ParseError{Identifier: 42, Reason: "not a member of the ranked group"}
	assert.Equal(t, "ranking identifier 42 rejected: not a member of the ranked group", err.Error())
}
