package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docparser/constants"
	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/llm"
	"github.com/joseph-ayodele/docparser/internal/llm/llmtest"
	"github.com/joseph-ayodele/docparser/internal/loader"
	"github.com/joseph-ayodele/docparser/internal/pipeline"
	"github.com/joseph-ayodele/docparser/internal/repository"
	"github.com/joseph-ayodele/docparser/internal/testutil"
)

// mapLoader serves fixed text per path and falls back to the real loader.
type mapLoader struct {
	docs map[string][]string
	real *loader.Loader
}

func (m mapLoader) Load(ctx context.Context, path string) ([]string, error) {
	if segs, ok := m.docs[path]; ok {
		if _, err := loader.Resolve(path); err != nil {
			return nil, err
		}
		return segs, nil
	}
	return m.real.Load(ctx, path)
}

func newOrchestrator(client llm.InferenceClient, docs map[string][]string) (*Orchestrator, repository.JobRepository) {
	l := mapLoader{docs: docs, real: loader.NewFromConfig(common.ExtractConfig{}, nil, nil)}
	proc := pipeline.NewProcessor(nil, l, pipeline.NewClassifier(client, nil), pipeline.NewSummarizer(client, nil))
	jobs := repository.NewMemoryJobRepository(nil)
	return NewOrchestrator(proc, pipeline.NewAnswerer(client, nil), jobs, nil), jobs
}

func TestIngest_InvoiceScenario(t *testing.T) {
	stub := &llmtest.Stub{Classify: "Invoice", Summarize: "- Invoice #123\n- $500 due 2024-01-01"}
	orch, jobs := newOrchestrator(stub, map[string][]string{
		"invoice.pdf": {"Invoice #123, Due $500 on 2024-01-01"},
	})
	s := orch.NewSession("s1")

	out := s.Ingest(context.Background(), "invoice.pdf")
	assert.False(t, out.Failed())
	assert.Equal(t, "Invoice", out.DocType)

	snap := s.Snapshot()
	assert.Equal(t, PhaseReady, snap.Phase)
	require.NotNil(t, snap.State)
	assert.Equal(t, "Invoice", snap.State.DocType)
	assert.Equal(t, "Invoice #123, Due $500 on 2024-01-01", snap.State.Text)
	assert.Equal(t, "- Invoice #123\n- $500 due 2024-01-01", snap.State.Summary)
	assert.False(t, snap.Error.Visible)

	classifyPrompt := stub.Prompts()[0]
	assert.Contains(t, classifyPrompt, "Invoice #123, Due $500 on 2024-01-01")
	assert.Contains(t, classifyPrompt, "KYC Form")

	list, err := jobs.List(context.Background(), repository.JobFilter{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, constants.JobStatusReady, list[0].Status)
	assert.Equal(t, 36, list[0].TextChars)
}

func TestIngest_UnsupportedFormat(t *testing.T) {
	stub := &llmtest.Stub{Classify: "Invoice", Summarize: "- x"}
	orch, jobs := newOrchestrator(stub, nil)
	s := orch.NewSession("s2")

	out := s.Ingest(context.Background(), "readme.txt")
	require.True(t, out.Failed())
	assert.Equal(t, "Error: Unsupported file format. Please upload PDF or DOCX.", out.ErrorMessage)

	snap := s.Snapshot()
	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.Nil(t, snap.State)
	assert.True(t, snap.Error.Visible)
	assert.Contains(t, snap.Error.Message, "Unsupported file format.")
	assert.Zero(t, stub.Calls())

	list, err := jobs.List(context.Background(), repository.JobFilter{SessionID: "s2"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, constants.JobStatusFailed, list[0].Status)
	require.NotNil(t, list[0].ErrorKind)
	assert.Equal(t, string(common.KindUnsupportedFormat), *list[0].ErrorKind)
}

func TestIngest_NoFile(t *testing.T) {
	orch, _ := newOrchestrator(&llmtest.Stub{}, nil)
	s := orch.NewSession("")

	out := s.Ingest(context.Background(), "  ")
	assert.Equal(t, NoFileMessage, out.ErrorMessage)
	snap := s.Snapshot()
	assert.Equal(t, ErrorSurface{Visible: true, Message: "No file uploaded."}, snap.Error)
	assert.NotEmpty(t, snap.ID)
}

func TestIngest_RealDOCX(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteDOCX(t, dir, "loan.docx", "LOAN AGREEMENT", "Principal: $20,000", "Borrower: John Smith")
	stub := &llmtest.Stub{Classify: " Loan Document ", Summarize: "- $20,000 loan to John Smith"}
	orch, _ := newOrchestrator(stub, nil)
	s := orch.NewSession("docx")

	out := s.Ingest(context.Background(), path)
	require.False(t, out.Failed(), out.ErrorMessage)
	assert.Equal(t, "Loan Document", out.DocType)
	assert.Equal(t, "LOAN AGREEMENT\nPrincipal: $20,000\nBorrower: John Smith", s.Snapshot().State.Text)
}

func TestIngest_CorruptFileIsLoadFailure(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "broken.docx", []byte("not a zip"))
	orch, _ := newOrchestrator(&llmtest.Stub{}, nil)
	s := orch.NewSession("corrupt")

	out := s.Ingest(context.Background(), path)
	assert.True(t, strings.HasPrefix(out.ErrorMessage, "Error: Document load failed: "), out.ErrorMessage)
	assert.Nil(t, s.Snapshot().State)
}

func TestIngest_FailureNeverLeavesPartialState(t *testing.T) {
	stub := &llmtest.Stub{Classify: "Contract", Summarize: "- first"}
	orch, _ := newOrchestrator(stub, map[string][]string{
		"a.pdf": {"Contract between A and B"},
		"b.pdf": {"Second document"},
	})
	s := orch.NewSession("partial")

	require.False(t, s.Ingest(context.Background(), "a.pdf").Failed())
	require.NotNil(t, s.Snapshot().State)

	stub.SummarizeErr = errors.New("context length exceeded")
	out := s.Ingest(context.Background(), "b.pdf")
	require.True(t, out.Failed())
	assert.Empty(t, out.DocType)
	assert.Equal(t, "Error: Summarization inference failed: context length exceeded", out.ErrorMessage)

	snap := s.Snapshot()
	assert.Nil(t, snap.State, "failure clears the previous state")
	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.Equal(t, pipeline.UploadFirstMessage, s.Ask(context.Background(), "Who are the parties?"))
}

func TestIngest_SuccessReplacesState(t *testing.T) {
	stub := &llmtest.Stub{Classify: "Invoice", Summarize: "- one"}
	orch, _ := newOrchestrator(stub, map[string][]string{
		"one.pdf": {"first"},
		"two.pdf": {"second"},
	})
	s := orch.NewSession("replace")

	s.Ingest(context.Background(), "one.pdf")
	first := s.Snapshot().State

	stub.Classify, stub.Summarize = "Contract", "- two"
	s.Ingest(context.Background(), "two.pdf")
	second := s.Snapshot().State

	assert.Equal(t, &State{Text: "first", DocType: "Invoice", Summary: "- one"}, first)
	assert.Equal(t, &State{Text: "second", DocType: "Contract", Summary: "- two"}, second)
}

func TestIngest_ErrorSurfaceResetBeforeNewOutcome(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	stub := &llmtest.Stub{
		ClassifyErr: errors.New("ollama unreachable"),
		Before: func(ctx context.Context, p string) error {
			if strings.Contains(p, "second attempt") {
				close(entered)
				<-release
			}
			return nil
		},
	}
	orch, _ := newOrchestrator(stub, map[string][]string{
		"readme.txt": {"never loaded"},
		"next.pdf":   {"second attempt"},
	})
	s := orch.NewSession("reset")

	s.Ingest(context.Background(), "readme.txt")
	require.True(t, s.Snapshot().Error.Visible)

	done := make(chan Outcome)
	go func() { done <- s.Ingest(context.Background(), "next.pdf") }()

	<-entered
	mid := s.Snapshot()
	assert.Equal(t, PhaseIngesting, mid.Phase)
	assert.False(t, mid.Error.Visible, "stale error must be hidden while the new attempt runs")
	assert.Empty(t, mid.Error.Message)

	close(release)
	out := <-done
	assert.Equal(t, "Error: Classification inference failed: ollama unreachable", out.ErrorMessage)
	end := s.Snapshot()
	assert.True(t, end.Error.Visible)
	assert.Equal(t, out.ErrorMessage, end.Error.Message)
}

func TestAsk_BeforeUpload(t *testing.T) {
	stub := &llmtest.Stub{Answer: "unused"}
	orch, _ := newOrchestrator(stub, nil)
	s := orch.NewSession("ask")

	assert.Equal(t, "Upload a document first.", s.Ask(context.Background(), "What is the total?"))
	assert.Zero(t, stub.Calls())
}

func TestAsk_GroundedAndIdempotent(t *testing.T) {
	stub := &llmtest.Stub{Classify: "Insurance Policy", Summarize: "- flood cover", Answer: "Not found in document."}
	orch, _ := newOrchestrator(stub, map[string][]string{
		"policy.pdf": {"Policy covers flood damage up to $10,000."},
	})
	s := orch.NewSession("qa")
	require.False(t, s.Ingest(context.Background(), "policy.pdf").Failed())

	q := "What does the policy cover for fire?"
	first := s.Ask(context.Background(), q)
	second := s.Ask(context.Background(), q)
	assert.Equal(t, "Not found in document.", first)
	assert.Equal(t, first, second)

	prompts := stub.Prompts()
	require.Len(t, prompts, 4)
	assert.Equal(t, prompts[2], prompts[3])
	assert.Contains(t, prompts[2], "Policy covers flood damage up to $10,000.")
}

func TestAsk_InferenceErrorKeepsState(t *testing.T) {
	stub := &llmtest.Stub{Classify: "Invoice", Summarize: "- x", AnswerErr: errors.New("503 Service Unavailable")}
	orch, _ := newOrchestrator(stub, map[string][]string{"i.pdf": {"Invoice 9"}})
	s := orch.NewSession("qa-err")
	s.Ingest(context.Background(), "i.pdf")

	assert.Equal(t, "Error generating answer: 503 Service Unavailable", s.Ask(context.Background(), "total?"))
	snap := s.Snapshot()
	assert.Equal(t, PhaseReady, snap.Phase)
	assert.False(t, snap.Error.Visible)
	assert.NotNil(t, snap.State)
}

// labelClient answers classify prompts with the document text so results can be
// traced back to the attempt, blocking while the text is in hold.
type labelClient struct {
	hold map[string]chan struct{}
	seen chan string
}

func (c *labelClient) Invoke(ctx context.Context, p string) (string, error) {
	if !strings.HasPrefix(p, "Identify") {
		return "- summary", nil
	}
	doc := p[strings.LastIndex(p, "Document excerpt: ")+len("Document excerpt: "):]
	if c.seen != nil {
		c.seen <- doc
	}
	if ch, ok := c.hold[doc]; ok {
		select {
		case <-ch:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "type-of-" + doc, nil
}

func TestIngest_SupersededAttemptIsDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	client := &labelClient{hold: map[string]chan struct{}{"doc-A": releaseA}, seen: make(chan string, 4)}
	orch, jobs := newOrchestrator(client, map[string][]string{
		"a.pdf": {"doc-A"},
		"b.pdf": {"doc-B"},
	})
	s := orch.NewSession("race")

	doneA := make(chan Outcome)
	go func() { doneA <- s.Ingest(context.Background(), "a.pdf") }()
	require.Equal(t, "doc-A", <-client.seen)

	outB := s.Ingest(context.Background(), "b.pdf")
	<-client.seen
	assert.False(t, outB.Superseded)
	assert.Equal(t, "type-of-doc-B", outB.DocType)

	close(releaseA)
	outA := <-doneA
	assert.True(t, outA.Superseded)

	snap := s.Snapshot()
	require.NotNil(t, snap.State)
	assert.Equal(t, State{Text: "doc-B", DocType: "type-of-doc-B", Summary: "- summary"}, *snap.State)

	list, err := jobs.List(context.Background(), repository.JobFilter{SessionID: "race"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, constants.JobStatusReady, list[0].Status)
	assert.Equal(t, constants.JobStatusSuperseded, list[1].Status)
}

func TestAsk_ConcurrentWithIngest(t *testing.T) {
	stub := &llmtest.Stub{Classify: "Invoice", Summarize: "- s", Answer: "42"}
	orch, _ := newOrchestrator(stub, map[string][]string{"x.pdf": {"Invoice total 42"}})
	s := orch.NewSession("concurrent")
	s.Ingest(context.Background(), "x.pdf")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Ingest(context.Background(), "x.pdf")
		}()
		go func() {
			defer wg.Done()
			ans := s.Ask(context.Background(), "total?")
			assert.Contains(t, []string{"42", pipeline.UploadFirstMessage}, ans)
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, PhaseReady, snap.Phase)
	assert.Equal(t, &State{Text: "Invoice total 42", DocType: "Invoice", Summary: "- s"}, snap.State)
}

func TestIngest_CancelledContext(t *testing.T) {
	client := &labelClient{hold: map[string]chan struct{}{"slow": make(chan struct{})}}
	orch, jobs := newOrchestrator(llm.WithTimeout(client, 20*time.Millisecond), map[string][]string{"slow.pdf": {"slow"}})
	s := orch.NewSession("timeout")

	out := s.Ingest(context.Background(), "slow.pdf")
	require.True(t, out.Failed())
	assert.Contains(t, out.ErrorMessage, "deadline exceeded")

	list, err := jobs.List(context.Background(), repository.JobFilter{SessionID: "timeout"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, constants.JobStatusFailed, list[0].Status)
}

func TestBegin_HidesSurfaceBeforeRun(t *testing.T) {
	stub := &llmtest.Stub{Classify: "Invoice", Summarize: "- s"}
	orch, _ := newOrchestrator(stub, map[string][]string{"ok.pdf": {"Invoice 1"}})
	s := orch.NewSession("begin")

	s.Ingest(context.Background(), "bad.txt")
	require.True(t, s.Snapshot().Error.Visible)

	attempt := s.Begin("ok.pdf")
	snap := s.Snapshot()
	assert.Equal(t, PhaseIngesting, snap.Phase)
	assert.False(t, snap.Error.Visible)
	assert.Zero(t, stub.Calls(), "Begin does no work")

	out := attempt.Run(context.Background())
	assert.Equal(t, "Invoice", out.DocType)
	assert.Equal(t, PhaseReady, s.Snapshot().Phase)
}
