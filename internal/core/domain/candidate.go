package domain

import (
	"strings"
	"time"
)

// CandidateProfile is the recruiter-facing record derived from one
// indexed document. The mapping is 1:1: the profile ID equals the source
// document ID.
type CandidateProfile struct {
	// ID equals the source DocumentID.
	ID string

	// Namespace is the batch the source document belongs to.
	Namespace string

	// RecruiterID is the identity that uploaded the source document.
	RecruiterID string

	// Name is the candidate's name as extracted, or a filename-derived
	// fallback.
	Name string

	// Title is the most recent role title, when extraction found one.
	Title string

	// Company is the most recent employer, when extraction found one.
	Company string

	// Skills are extracted skill keywords.
	Skills []string

	// ExperienceYears is total professional experience, 0 when unknown.
	ExperienceYears int

	// Summary is a short extracted description.
	Summary string

	// Snippets are leading excerpts of the resume for list views.
	Snippets []string

	// SourceFilename is the original upload filename.
	SourceFilename string

	// CreatedAt is when the profile was derived.
	CreatedAt time.Time
}

// HasSkill reports whether the profile lists the skill, case-insensitive.
func (p CandidateProfile) HasSkill(skill string) bool {
	for _, s := range p.Skills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

// CandidateFilter narrows a profile listing. Zero-valued fields match
// everything.
type CandidateFilter struct {
	// Namespace restricts to one batch.
	Namespace string

	// RecruiterID restricts to one uploader identity.
	RecruiterID string

	// Skill requires the profile to list the skill (case-insensitive).
	Skill string

	// NamePrefix requires the candidate name to start with the prefix
	// (case-insensitive).
	NamePrefix string
}

// Matches reports whether a profile passes the filter.
func (f CandidateFilter) Matches(p CandidateProfile) bool {
	if f.Namespace != "" && p.Namespace != f.Namespace {
		return false
	}
	if f.RecruiterID != "" && p.RecruiterID != f.RecruiterID {
		return false
	}
	if f.Skill != "" && !p.HasSkill(f.Skill) {
		return false
	}
	if f.NamePrefix != "" && !strings.HasPrefix(strings.ToLower(p.Name), strings.ToLower(f.NamePrefix)) {
		return false
	}
	return true
}

// CandidatePage is one page of a filtered listing.
type CandidatePage struct {
	// Candidates are the page's profiles, ordered by creation time.
	Candidates []CandidateProfile

	// Page is the 1-based page number.
	Page int

	// PageSize is the requested page size.
	PageSize int

	// Total is the filtered count across all pages.
	Total int
}
