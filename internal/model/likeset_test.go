package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLikes(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want LikeSet
	}{
		{"nil", nil, LikeSet{}},
		{"null text", "null", LikeSet{}},
		{"empty text", "", LikeSet{}},
		{"postgres literal", "{u1,u2}", LikeSet{"u1", "u2"}},
		{"postgres literal bytes", []byte("{u1,u2}"), LikeSet{"u1", "u2"}},
		{"postgres empty", "{}", LikeSet{}},
		{"postgres quoted", `{"user one","a\"b",u3}`, LikeSet{"user one", `a"b`, "u3"}},
		{"postgres null element", "{u1,NULL}", LikeSet{"u1"}},
		{"json string", `["u1","u2"]`, LikeSet{"u1", "u2"}},
		{"bracketed unquoted", "[u1, u2]", LikeSet{"u1", "u2"}},
		{"slice", []string{"u1", "u2"}, LikeSet{"u1", "u2"}},
		{"any slice", []any{"u1", 3, "u2"}, LikeSet{"u1", "u2"}},
		{"duplicates collapse", []string{"u1", "u1", "u2"}, LikeSet{"u1", "u2"}},
		{"garbage", "not-a-list", LikeSet{}},
		{"unterminated quote", `{"u1}`, LikeSet{}},
		{"wrong type", 42, LikeSet{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeLikes(tt.in))
		})
	}
}

func TestLikeSetEquivalentEncodings(t *testing.T) {
	fromLiteral := DecodeLikes("{u1,u2}")
	fromJSON := DecodeLikes(`["u1","u2"]`)
	fromArray := DecodeLikes([]string{"u1", "u2"})

	assert.ElementsMatch(t, fromArray, fromLiteral)
	assert.ElementsMatch(t, fromArray, fromJSON)
	assert.Empty(t, DecodeLikes(nil))
}

func TestLikeSetValueRoundTrip(t *testing.T) {
	in := LikeSet{"u1", `we"ird`, `back\slash`, "u1"}
	v, err := in.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"u1","we\"ird","back\\slash"}`, v)

	var out LikeSet
	require.NoError(t, out.Scan(v))
	assert.Equal(t, LikeSet{"u1", `we"ird`, `back\slash`}, out)
}

func TestLikeSetNilValue(t *testing.T) {
	var s LikeSet
	v, err := s.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestLikeSetToggle(t *testing.T) {
	s := LikeSet{"u1"}

	s, liked := s.Toggle("u2")
	assert.True(t, liked)
	assert.Equal(t, LikeSet{"u1", "u2"}, s)

	s, liked = s.Toggle("u2")
	assert.False(t, liked)
	assert.Equal(t, LikeSet{"u1"}, s)
}

func TestLikeSetJSON(t *testing.T) {
	var nilSet LikeSet
	b, err := json.Marshal(nilSet)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))

	var c struct {
		Likes LikeSet `json:"likes"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"likes":"{u1,u2}"}`), &c))
	assert.Equal(t, LikeSet{"u1", "u2"}, c.Likes)

	require.NoError(t, json.Unmarshal([]byte(`{"likes":null}`), &c))
	assert.Equal(t, LikeSet{}, c.Likes)
}
