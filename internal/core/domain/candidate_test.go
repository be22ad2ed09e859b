package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCandidateProfile_HasSkill tests case-insensitive skill lookup
func TestCandidateProfile_HasSkill(t *testing.T) {
	p := CandidateProfile{Skills: []string{"Kubernetes", "Go", "PostgreSQL"}}

	assert.True(t, p.HasSkill("kubernetes"))
	assert.True(t, p.HasSkill("GO"))
	assert.False(t, p.HasSkill("Rust"))
	assert.False(t, CandidateProfile{}.HasSkill("Go"))
}

// TestCandidateFilter_Matches tests listing filters
func TestCandidateFilter_Matches(t *testing.T) {
	profile := CandidateProfile{
		ID:          "doc-1",
		Namespace:   "batch-1",
		RecruiterID: "rec-1",
		Name:        "Jane Doe",
		Skills:      []string{"Kubernetes", "Go"},
	}

	tests := []struct {
		name     string
		filter   CandidateFilter
		expected bool
	}{
		{name: "empty filter matches", filter: CandidateFilter{}, expected: true},
		{name: "matching namespace", filter: CandidateFilter{Namespace: "batch-1"}, expected: true},
		{name: "other namespace", filter: CandidateFilter{Namespace: "batch-2"}, expected: false},
		{name: "matching recruiter", filter: CandidateFilter{RecruiterID: "rec-1"}, expected: true},
		{name: "other recruiter", filter: CandidateFilter{RecruiterID: "rec-2"}, expected: false},
		{name: "skill case-insensitive", filter: CandidateFilter{Skill: "go"}, expected: true},
		{name: "missing skill", filter: CandidateFilter{Skill: "Rust"}, expected: false},
		{name: "name prefix", filter: CandidateFilter{NamePrefix: "jan"}, expected: true},
		{name: "wrong prefix", filter: CandidateFilter{NamePrefix: "doe"}, expected: false},
		{name: "all fields match", filter: CandidateFilter{Namespace: "batch-1", Skill: "kubernetes", NamePrefix: "Jane"}, expected: true},
		{name: "one field rejects", filter: CandidateFilter{Namespace: "batch-1", Skill: "Rust"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter.Matches(profile))
		})
	}
}
