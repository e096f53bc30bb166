package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_WithoutLargeFiles(t *testing.T) {
	small := make([]byte, LargeFileThreshold)
	large := make([]byte, LargeFileThreshold+1)
	p := &Project{Files: []ProjectFile{
		{Filename: "small.bin", Data: small, Size: int64(len(small))},
		{Filename: "large.bin", Data: large, Size: int64(len(large))},
	}}

	out := p.WithoutLargeFiles(LargeFileThreshold)

	require.Len(t, out.Files, 2)
	assert.Len(t, out.Files[0].Data, LargeFileThreshold, "a file exactly at the threshold keeps its bytes")
	assert.Nil(t, out.Files[1].Data)
	assert.Equal(t, int64(LargeFileThreshold+1), out.Files[1].Size, "metadata survives")
	assert.NotNil(t, p.Files[1].Data, "receiver is untouched")
}

func TestProject_WithoutFileData(t *testing.T) {
	p := &Project{Files: []ProjectFile{{Filename: "a.txt", Data: []byte("x"), Size: 1}}}

	out := p.WithoutFileData()

	assert.Nil(t, out.Files[0].Data)
	assert.Equal(t, "a.txt", out.Files[0].Filename)
}

func TestProject_File(t *testing.T) {
	p := &Project{Files: []ProjectFile{{Filename: "README.md"}, {Filename: "main.go"}}}

	f, ok := p.File("main.go")
	require.True(t, ok)
	assert.Equal(t, "main.go", f.Filename)

	_, ok = p.File("readme.md")
	assert.False(t, ok, "names match exactly")
}

func TestProject_Matching(t *testing.T) {
	p := &Project{
		Name:         "Online Shop",
		Description:  "Cart and checkout",
		Technologies: []string{"go", "vue"},
	}

	tests := []struct {
		name    string
		techs   []string
		keyword string
		want    bool
	}{
		{"no criteria", nil, "", true},
		{"any technology", []string{"rust", "vue"}, "", true},
		{"no technology", []string{"rust"}, "", false},
		{"keyword in name", nil, "SHOP", true},
		{"keyword in description", nil, "checkout", true},
		{"keyword missing", nil, "blog", false},
		{"both must hold", []string{"go"}, "blog", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.MatchesTechnologies(tt.techs) && p.MatchesKeyword(tt.keyword)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHackathon_Seats(t *testing.T) {
	h := &Hackathon{MaxParticipants: 2, Participants: []string{"a@example.com"}}

	assert.True(t, h.IsParticipant("a@example.com"))
	assert.False(t, h.IsParticipant("b@example.com"))
	assert.False(t, h.IsFull())

	h.Participants = append(h.Participants, "b@example.com")
	assert.True(t, h.IsFull())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" buyer ")
	assert.True(t, ok)
	assert.Equal(t, RoleBuyer, r)

	_, ok = ParseRole("owner")
	assert.False(t, ok)
}
