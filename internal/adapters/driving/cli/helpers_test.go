package cli

import (
	"context"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driving"
)

// testStubs are the fake services behind the command tree during tests.
type testStubs struct {
	ingest     *fakeIngestService
	search     *fakeSearchService
	candidates *fakeCandidateService
}

// setupTestServices swaps the package-level services for stubs and
// returns them with a restore function.
func setupTestServices() (*testStubs, func()) {
	oldIngest := ingestService
	oldSearch := searchService
	oldChat := chatService
	oldCandidates := candidateService

	stubs := &testStubs{
		ingest:     &fakeIngestService{},
		search:     &fakeSearchService{},
		candidates: &fakeCandidateService{},
	}
	ingestService = stubs.ingest
	searchService = stubs.search
	candidateService = stubs.candidates

	return stubs, func() {
		ingestService = oldIngest
		searchService = oldSearch
		chatService = oldChat
		candidateService = oldCandidates
	}
}

type fakeIngestService struct {
	submitID     string
	submitStatus domain.DocumentStatus
	submitErr    error
	lastUpload   domain.UploadRequest

	statusInfo *driving.DocumentStatusInfo
	statusErr  error
}

func (f *fakeIngestService) Submit(_ context.Context, req domain.UploadRequest) (string, domain.DocumentStatus, error) {
	f.lastUpload = req
	return f.submitID, f.submitStatus, f.submitErr
}

func (f *fakeIngestService) GetStatus(context.Context, string) (*driving.DocumentStatusInfo, error) {
	return f.statusInfo, f.statusErr
}

func (f *fakeIngestService) Delete(context.Context, string) error { return nil }

func (f *fakeIngestService) Watch() (<-chan domain.StatusEvent, func()) {
	ch := make(chan domain.StatusEvent)
	close(ch)
	return ch, func() {}
}

func (f *fakeIngestService) Wait(context.Context, string) (*driving.DocumentStatusInfo, error) {
	return f.statusInfo, f.statusErr
}

type fakeSearchService struct {
	resp    *domain.SearchResponse
	err     error
	lastReq domain.SearchRequest
}

func (f *fakeSearchService) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	f.lastReq = req
	if f.resp == nil && f.err == nil {
		return &domain.SearchResponse{QueryID: "q-test"}, nil
	}
	return f.resp, f.err
}

type fakeCandidateService struct {
	page    *domain.CandidatePage
	profile *domain.CandidateProfile
	err     error
}

func (f *fakeCandidateService) List(context.Context, domain.CandidateFilter, int, int) (*domain.CandidatePage, error) {
	if f.page == nil && f.err == nil {
		return &domain.CandidatePage{Page: 1, PageSize: 20}, nil
	}
	return f.page, f.err
}

func (f *fakeCandidateService) Get(context.Context, string) (*domain.CandidateProfile, error) {
	return f.profile, f.err
}
