package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationSet_ToggleRoundTripIsByteIdentical(t *testing.T) {
	s := NewRelationSet()
	s.Add("u1", "a1")
	s.Add("u2", "a1")
	before, err := json.Marshal(s)
	require.NoError(t, err)

	require.True(t, s.Add("u1", "a2"))
	require.True(t, s.Remove("u1", "a2"))
	require.True(t, s.Add("u3", "a9"))
	require.True(t, s.Remove("u3", "a9"))

	after, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestRelationSet_AddIsIdempotent(t *testing.T) {
	s := NewRelationSet()
	assert.True(t, s.Add("u1", "a1"))
	assert.False(t, s.Add("u1", "a1"))
	assert.Equal(t, []string{"a1"}, s.Members("u1"))
	assert.Equal(t, 1, s.Count("a1"))
}

func TestRelationSet_RemoveTarget(t *testing.T) {
	s := NewRelationSet()
	s.Add("u1", "a1")
	s.Add("u1", "a2")
	s.Add("u2", "a1")

	assert.Equal(t, 2, s.RemoveTarget("a1"))
	assert.Equal(t, 0, s.Count("a1"))
	assert.Equal(t, []string{"a2"}, s.Members("u1"))
	assert.Empty(t, s.Members("u2"))
}

func TestRelationSet_DecodesLegacyArray(t *testing.T) {
	var s RelationSet
	require.NoError(t, json.Unmarshal([]byte(`["a1","a2","a1"]`), &s))
	assert.Equal(t, []string{"a1", "a2"}, s.Members(LegacyOwner))
}

func TestRelationSet_DecodesPerUserObject(t *testing.T) {
	var s RelationSet
	require.NoError(t, json.Unmarshal([]byte(`{"u1":["a1"],"u2":[]}`), &s))
	assert.True(t, s.Contains("u1", "a1"))
	assert.Len(t, s.Owners(), 1)
}

func TestArticle_DecodesLegacyAuthor(t *testing.T) {
	var a Article
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","author":{"id":"user_1","name":"Ann"},"status":"draft","likes":3}`), &a))
	assert.Equal(t, "user_1", a.AuthorID)
	assert.True(t, a.IsDraft)
	assert.Equal(t, 3, a.LikesCount)
}
