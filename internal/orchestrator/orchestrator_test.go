package orchestrator

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/careerforge/internal/common"
	"github.com/bobmcallan/careerforge/internal/interfaces"
	"github.com/bobmcallan/careerforge/internal/models"
	"github.com/bobmcallan/careerforge/internal/queue/memory"
	"github.com/bobmcallan/careerforge/internal/specialist"
	"github.com/bobmcallan/careerforge/internal/trace"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory interfaces.JobStore used to exercise the
// orchestrator without a SurrealDB connection.
type fakeStore struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[string]*models.Job)}
}

func (s *fakeStore) Create(_ context.Context, owner string, kind models.JobKind, input json.RawMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.jobs[id] = &models.Job{ID: id, Owner: owner, Kind: kind, Status: models.JobStatusPending, Input: input, CreatedAt: time.Now()}
	return id, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id string, to models.JobStatus, update interfaces.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if !models.CanTransition(job.Status, to) {
		return interfaces.ErrIllegalTransition
	}
	job.Status = to
	job.Error = update.Error
	if to == models.JobStatusProcessing {
		job.StartedAt = update.StartedAt
	} else {
		job.CompletedAt = update.CompletedAt
	}
	return nil
}

func (s *fakeStore) UpdatePayload(_ context.Context, id string, slot models.PayloadSlot, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	v := value
	job.SetPayload(slot, &v)
	return nil
}

func (s *fakeStore) ReadPayload(_ context.Context, id string, slot models.PayloadSlot) (*json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return job.Payload(slot), nil
}

func (s *fakeStore) UpdateProgress(_ context.Context, id string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	job.Progress = progress
	return nil
}

var _ interfaces.JobStore = (*fakeStore)(nil)

type fakeExtractor struct{ profile json.RawMessage }

func (f *fakeExtractor) Invoke(_ context.Context, req models.ExtractorRequest) (models.ExtractorResponse, error) {
	return models.ExtractorResponse{Success: true, Profile: f.profile}, nil
}

type fakeAnalyzer struct {
	resp models.AnalyzerResponse
}

func (f *fakeAnalyzer) Invoke(_ context.Context, req models.AnalyzerRequest) (models.AnalyzerResponse, error) {
	return f.resp, nil
}

type fakeInterviewer struct{ calls int }

func (f *fakeInterviewer) Invoke(_ context.Context, req models.InterviewerRequest) (models.InterviewerResponse, error) {
	f.calls++
	return models.InterviewerResponse{Success: true, InterviewPack: json.RawMessage(`{"questions":[]}`)}, nil
}

type fakeCharter struct{}

func (f *fakeCharter) Invoke(_ context.Context, req models.CharterRequest) (models.CharterResponse, error) {
	return models.CharterResponse{Success: true, Charts: json.RawMessage(`{"series":[]}`)}, nil
}

func newTestOrchestrator(store interfaces.JobStore, specialists interfaces.Specialists) *Orchestrator {
	logger := common.NewSilentLogger()
	dispatcher := specialist.NewDispatcher(specialist.RetryPolicy{}, 1000, []string{
		string(specialistExtractor), string(specialistAnalyzer), string(specialistInterviewer), string(specialistCharter),
	}, logger)
	return New(store, memory.New(time.Minute), specialists, dispatcher, nil, nil, 5*time.Second, 10*time.Millisecond, logger)
}

func TestProcessJob_CVParse(t *testing.T) {
	store := newFakeStore()
	id, err := store.Create(context.Background(), "owner", models.JobKindCVParse, json.RawMessage(`{"cv_text":"Jane Doe, engineer"}`))
	require.NoError(t, err)

	orch := newTestOrchestrator(store, interfaces.Specialists{
		Extractor: &fakeExtractor{profile: json.RawMessage(`{"name":"Jane Doe"}`)},
	})

	ack, err := orch.processJob(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ack)

	job, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ExtractorPayload)
	assert.JSONEq(t, `{"cv_profile":{"name":"Jane Doe"}}`, string(*job.ExtractorPayload))
}

func TestProcessJob_FullAnalysis_BothTextsNoProfiles(t *testing.T) {
	store := newFakeStore()
	input := json.RawMessage(`{"cv_text":"cv text","job_text":"job text"}`)
	id, err := store.Create(context.Background(), "owner", models.JobKindFullAnalysis, input)
	require.NoError(t, err)

	interviewer := &fakeInterviewer{}
	orch := newTestOrchestrator(store, interfaces.Specialists{
		Extractor:   &fakeExtractor{profile: json.RawMessage(`{"field":"value"}`)},
		Analyzer:    &fakeAnalyzer{resp: models.AnalyzerResponse{Success: true, GapAnalysis: json.RawMessage(`{"gaps":[]}`)}},
		Interviewer: interviewer,
	})

	ack, err := orch.processJob(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ack)

	job, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	require.NotNil(t, job.ExtractorPayload)
	assert.JSONEq(t, `{"cv_profile":{"field":"value"},"job_profile":{"field":"value"}}`, string(*job.ExtractorPayload))
	require.NotNil(t, job.AnalyzerPayload)
	assert.JSONEq(t, `{"gap_analysis":{"gaps":[]}}`, string(*job.AnalyzerPayload))
	require.NotNil(t, job.InterviewerPayload)
	assert.JSONEq(t, `{"interview_pack":{"questions":[]}}`, string(*job.InterviewerPayload))
	assert.Equal(t, 1, interviewer.calls)
	assert.Equal(t, 100, job.Progress)
}

func TestProcessJob_FullAnalysis_ProfilesAlreadyPresentSkipsExtractor(t *testing.T) {
	store := newFakeStore()
	input := json.RawMessage(`{"cv_profile":{"name":"Jane"},"job_profile":{"title":"Engineer"}}`)
	id, err := store.Create(context.Background(), "owner", models.JobKindFullAnalysis, input)
	require.NoError(t, err)

	orch := newTestOrchestrator(store, interfaces.Specialists{
		Analyzer:    &fakeAnalyzer{resp: models.AnalyzerResponse{Success: true, GapAnalysis: json.RawMessage(`{"gaps":[]}`)}},
		Interviewer: &fakeInterviewer{},
	})

	ack, err := orch.processJob(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ack)

	job, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Nil(t, job.ExtractorPayload)
}

func TestProcessJob_AnalyzerPartialSuccessStillCompletes(t *testing.T) {
	store := newFakeStore()
	input := json.RawMessage(`{"cv_profile":{"name":"Jane"},"job_profile":{"title":"Engineer"}}`)
	id, err := store.Create(context.Background(), "owner", models.JobKindFullAnalysis, input)
	require.NoError(t, err)

	orch := newTestOrchestrator(store, interfaces.Specialists{
		Analyzer: &fakeAnalyzer{resp: models.AnalyzerResponse{
			Success:        true,
			GapAnalysis:    json.RawMessage(`{"gaps":[]}`),
			CVRewriteError: "rewrite backend unavailable",
		}},
		Interviewer: &fakeInterviewer{},
	})

	ack, err := orch.processJob(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ack)

	job, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	require.NotNil(t, job.AnalyzerPayload)
	assert.JSONEq(t, `{"gap_analysis":{"gaps":[]},"cv_rewrite_error":"rewrite backend unavailable"}`, string(*job.AnalyzerPayload))
}

func TestProcessJob_InterviewerOmittedByPlannerIsEnforced(t *testing.T) {
	store := newFakeStore()
	input := json.RawMessage(`{"cv_profile":{"name":"Jane"},"job_profile":{"title":"Engineer"}}`)
	id, err := store.Create(context.Background(), "owner", models.JobKindFullAnalysis, input)
	require.NoError(t, err)

	interviewer := &fakeInterviewer{}
	orch := newTestOrchestrator(store, interfaces.Specialists{
		Analyzer:    &fakeAnalyzer{resp: models.AnalyzerResponse{Success: true, GapAnalysis: json.RawMessage(`{"gaps":[]}`)}},
		Interviewer: interviewer,
	})

	// Run the full_analysis plan with its interviewer step dropped, as a
	// planner that omitted it would, then apply the post-plan enforcement.
	env, err := models.DecodeInput(input)
	require.NoError(t, err)
	plan, err := buildPlan(models.JobKindFullAnalysis, env)
	require.NoError(t, err)
	plan = plan[:len(plan)-1]
	wc := &workingContext{cvProfile: env.CVProfile, jobProfile: env.JobProfile}
	tracer := trace.New(nil, id)
	require.NoError(t, orch.runPlan(context.Background(), id, plan, env, wc, tracer, ""))
	assert.Equal(t, 0, interviewer.calls)

	err = orch.enforceInterviewerStep(context.Background(), id, env, wc, tracer, "")
	require.NoError(t, err)
	assert.Equal(t, 1, interviewer.calls)

	job, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, job.InterviewerPayload)
}

func TestProcessJob_RedeliveryOfAlreadyCompletedJobIsAcked(t *testing.T) {
	store := newFakeStore()
	id, err := store.Create(context.Background(), "owner", models.JobKindCVParse, json.RawMessage(`{"cv_text":"x"}`))
	require.NoError(t, err)
	require.NoError(t, store.UpdateStatus(context.Background(), id, models.JobStatusProcessing, interfaces.StatusUpdate{StartedAt: time.Now()}))
	require.NoError(t, store.UpdateStatus(context.Background(), id, models.JobStatusCompleted, interfaces.StatusUpdate{CompletedAt: time.Now()}))

	orch := newTestOrchestrator(store, interfaces.Specialists{Extractor: &fakeExtractor{}})

	ack, err := orch.processJob(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ack)
}

func TestProcessJob_UnknownJobIDIsAckedAsPoisonMessage(t *testing.T) {
	store := newFakeStore()
	orch := newTestOrchestrator(store, interfaces.Specialists{})

	ack, err := orch.processJob(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.True(t, ack)
}

func TestProcessJob_GetAnalytics(t *testing.T) {
	store := newFakeStore()
	id, err := store.Create(context.Background(), "owner", models.JobKindGetAnalytics, json.RawMessage(`{"applications_data":{},"user_id":"u1"}`))
	require.NoError(t, err)

	orch := newTestOrchestrator(store, interfaces.Specialists{Charter: &fakeCharter{}})

	ack, err := orch.processJob(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ack)

	job, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	require.NotNil(t, job.CharterPayload)
	assert.JSONEq(t, `{"charts":{"series":[]}}`, string(*job.CharterPayload))
}

func TestProcessJob_UnknownKindFails(t *testing.T) {
	store := &fakeStore{jobs: map[string]*models.Job{
		"bad-kind-job": {ID: "bad-kind-job", Kind: models.JobKind("no_such_kind"), Status: models.JobStatusPending, Input: json.RawMessage(`{}`)},
	}}
	orch := newTestOrchestrator(store, interfaces.Specialists{})

	ack, err := orch.processJob(context.Background(), "bad-kind-job")
	require.NoError(t, err)
	assert.True(t, ack)

	job, err := store.Get(context.Background(), "bad-kind-job")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "unknown kind")
	assert.Equal(t, 100, job.Progress)
}

func TestProcessJob_ProgressAdvancesPerStepAndReaches100(t *testing.T) {
	store := newFakeStore()
	input := json.RawMessage(`{"cv_profile":{"name":"Jane"},"job_profile":{"title":"Engineer"}}`)
	id, err := store.Create(context.Background(), "owner", models.JobKindFullAnalysis, input)
	require.NoError(t, err)

	orch := newTestOrchestrator(store, interfaces.Specialists{
		Analyzer:    &fakeAnalyzer{resp: models.AnalyzerResponse{Success: true, GapAnalysis: json.RawMessage(`{"gaps":[]}`)}},
		Interviewer: &fakeInterviewer{},
	})

	ack, err := orch.processJob(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ack)

	job, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
}
