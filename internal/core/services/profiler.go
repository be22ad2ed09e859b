package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
	"github.com/rescout-labs/rescout/internal/core/ports/driving"
	"github.com/rescout-labs/rescout/internal/logger"
)

// Profiler configuration.
const (
	// profileTimeout bounds one profile derivation, LLM call included.
	profileTimeout = 60 * time.Second

	// profileTextLimit caps resume text sent to the extraction prompt.
	profileTextLimit = 8000

	// profileSnippets is how many leading excerpts a profile carries.
	profileSnippets = 3
)

// yearRangePattern matches employment year ranges like "2015 - 2019",
// "2015–present". The heuristic fallback estimates experience from the
// earliest year mentioned.
var yearRangePattern = regexp.MustCompile(`\b(19[5-9]\d|20[0-4]\d)\s*[-–—]\s*((?:19[5-9]\d|20[0-4]\d)|[Pp]resent|[Cc]urrent|[Nn]ow)`)

// CandidateProfiler derives recruiter-facing profiles from indexed
// documents. It subscribes to the coordinator's status events and runs
// strictly downstream: a profile failure never touches document status,
// and the pipeline never waits for it. The mapping is 1:1 - the profile
// ID equals the source document ID.
type CandidateProfiler struct {
	ingest         driving.IngestService
	docStore       driven.DocumentStore
	candidateStore driven.CandidateStore
	llm            driven.LLMService
	prompts        driven.PromptStore

	stopOnce sync.Once
	cancel   func()
	done     chan struct{}
}

// NewCandidateProfiler creates the profiler. The llm is optional - if
// nil, extraction falls back to filename and year-range heuristics.
func NewCandidateProfiler(
	ingest driving.IngestService,
	docStore driven.DocumentStore,
	candidateStore driven.CandidateStore,
	llm driven.LLMService,
	prompts driven.PromptStore,
) *CandidateProfiler {
	return &CandidateProfiler{
		ingest:         ingest,
		docStore:       docStore,
		candidateStore: candidateStore,
		llm:            llm,
		prompts:        prompts,
		done:           make(chan struct{}),
	}
}

// Start subscribes to ingestion status events and derives a profile
// for every document that reaches Indexed. Call Close to stop.
func (p *CandidateProfiler) Start() {
	events, cancel := p.ingest.Watch()
	p.cancel = cancel

	go func() {
		defer close(p.done)
		for event := range events {
			if event.To != domain.StatusIndexed {
				continue
			}
			p.profile(event.DocumentID)
		}
	}()
}

// Close unsubscribes and waits for the in-flight derivation.
func (p *CandidateProfiler) Close() error {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
			<-p.done
		}
	})
	return nil
}

// profile derives and stores one candidate profile.
func (p *CandidateProfiler) profile(documentID string) {
	ctx, cancel := context.WithTimeout(context.Background(), profileTimeout)
	defer cancel()

	doc, err := p.docStore.GetDocument(ctx, documentID)
	if err != nil {
		logger.Warn("Profile derivation: load document %s: %v", documentID, err)
		return
	}

	profile := p.derive(ctx, doc)

	chunks, err := p.docStore.GetChunks(ctx, documentID)
	if err != nil {
		logger.Warn("Profile derivation: load chunks for %s: %v", documentID, err)
	}
	for i := 0; i < len(chunks) && i < profileSnippets; i++ {
		profile.Snippets = append(profile.Snippets, snippet(chunks[i].Text))
	}
	if profile.Summary == "" && len(profile.Snippets) > 0 {
		profile.Summary = profile.Snippets[0]
	}

	if err := p.candidateStore.SaveCandidate(ctx, profile); err != nil {
		logger.Warn("Profile derivation: save profile for %s: %v", documentID, err)
		return
	}
	logger.Info("Derived candidate profile %s (%s)", profile.ID, profile.Name)
}

// derive builds the profile fields, preferring structured LLM
// extraction and falling back to heuristics when the LLM is missing,
// failing, or returns malformed JSON.
func (p *CandidateProfiler) derive(ctx context.Context, doc *domain.Document) *domain.CandidateProfile {
	profile := &domain.CandidateProfile{
		ID:             doc.ID,
		Namespace:      doc.Namespace,
		RecruiterID:    doc.RecruiterID,
		SourceFilename: doc.Filename,
		CreatedAt:      time.Now(),
	}

	if p.llm != nil {
		if extracted, err := p.extractLLM(ctx, doc.ExtractedText); err == nil {
			profile.Name = extracted.Name
			profile.Title = extracted.Title
			profile.Company = extracted.Company
			profile.Skills = extracted.Skills
			profile.ExperienceYears = extracted.ExperienceYears
			profile.Summary = extracted.Summary
		} else {
			logger.Warn("LLM profile extraction for %s failed, using heuristics: %v", doc.ID, err)
		}
	}

	if profile.Name == "" {
		profile.Name = nameFromFilename(doc.Filename)
	}
	if profile.ExperienceYears == 0 {
		profile.ExperienceYears = experienceFromText(doc.ExtractedText, time.Now().Year())
	}

	return profile
}

// extractedProfile is the strict-JSON shape the extraction prompt asks
// the model for.
type extractedProfile struct {
	Name            string   `json:"name"`
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experience_years"`
	Summary         string   `json:"summary"`
}

func (p *CandidateProfiler) extractLLM(ctx context.Context, text string) (*extractedProfile, error) {
	template, err := p.prompts.Load(driven.PromptProfileExtract)
	if err != nil {
		return nil, fmt.Errorf("load extraction prompt: %w", err)
	}

	if len(text) > profileTextLimit {
		text = text[:profileTextLimit]
	}

	raw, err := p.llm.Complete(ctx, []driven.ChatMessage{
		{Role: "user", Content: fmt.Sprintf(template, text)},
	}, driven.ChatOptions{MaxTokens: 512})
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	var extracted extractedProfile
	if err := json.Unmarshal([]byte(stripFences(raw)), &extracted); err != nil {
		return nil, fmt.Errorf("malformed profile JSON: %w", err)
	}
	return &extracted, nil
}

// stripFences removes a markdown code fence some models wrap JSON in
// despite instructions.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// nameFromFilename turns "jane_doe-resume.pdf" into "Jane Doe Resume".
func nameFromFilename(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stem = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(stem)

	words := strings.Fields(stem)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	if len(words) == 0 {
		return "Unknown"
	}
	return strings.Join(words, " ")
}

// experienceFromText estimates total experience as the span from the
// earliest employment year range found to the latest (or the current
// year for open-ended ranges). Returns 0 when no range is present.
func experienceFromText(text string, currentYear int) int {
	matches := yearRangePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0
	}

	earliest, latest := currentYear, 0
	for _, m := range matches {
		start, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if start < earliest {
			earliest = start
		}

		end := currentYear
		if y, err := strconv.Atoi(m[2]); err == nil {
			end = y
		}
		if end > latest {
			latest = end
		}
	}

	if latest <= earliest {
		return 0
	}
	years := latest - earliest
	if years > 60 {
		return 0
	}
	return years
}
