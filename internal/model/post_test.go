package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPost_Accessors(t *testing.T) {
	tests := []struct {
		post Post
		kind PostKind
	}{
		{JobPost(&Job{ID: "j1", BuyerEmail: "b@example.com"}), PostJob},
		{InternshipPost(&Internship{ID: "j1", BuyerEmail: "b@example.com"}), PostInternship},
		{ProblemPost(&Problem{ID: "j1", BuyerEmail: "b@example.com"}), PostProblem},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.post.Kind)
			assert.Equal(t, "j1", tt.post.ID())
			assert.Equal(t, "b@example.com", tt.post.BuyerEmail())
		})
	}

	assert.Empty(t, Post{}.ID())
}

func TestPost_JSONCarriesOnlyOneVariant(t *testing.T) {
	b, err := json.Marshal(ProblemPost(&Problem{ID: "p1", Title: "Route planning"}))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.JSONEq(t, `"PROBLEM"`, string(raw["kind"]))
	assert.Contains(t, raw, "problem")
	assert.NotContains(t, raw, "job")
	assert.NotContains(t, raw, "internship")
}
