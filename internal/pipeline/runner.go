package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"listify/internal/domain"
	"listify/internal/genai"
	"listify/internal/imaging"
	"listify/internal/infra"
	"listify/internal/parser"
	"listify/internal/prompt"
)

// ContentGenerator is the structured-content capability the runner depends
// on.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, req genai.ContentRequest) (string, error)
}

// URLFetcher downloads a referenced product image for URL submissions.
type URLFetcher interface {
	FetchAsFile(ctx context.Context, rawURL string) (*imaging.File, error)
}

// Submission carries one generation request. Exactly one intake mode applies:
// an uploaded image, a reference URL, or a bare title.
type Submission struct {
	Title    string
	URL      string
	Keywords []string
	Locale   string
	Image    *imaging.File
}

// Snapshot is the poll-friendly view of a run.
type Snapshot struct {
	ID           string
	Stage        domain.Stage
	Locale       string
	Content      *domain.ProductContent
	Images       *domain.ImageSet
	ErrorKind    domain.ErrorKind
	ErrorMessage string
}

type run struct {
	id     string
	seq    uint64
	locale string

	mu      sync.Mutex
	stage   domain.Stage
	content *domain.ProductContent
	images  *domain.ImageSet
	errKind domain.ErrorKind
	errMsg  string
}

// Runner drives generation runs through their stages
// (idle -> content -> images -> done | error) and guards against superseded
// runs mutating shared state: each submission gets a monotonically increasing
// sequence number, the previous run's context is cancelled, and a run whose
// sequence is no longer current discards its own results silently.
type Runner struct {
	content     ContentGenerator
	coordinator *Coordinator
	fetcher     URLFetcher
	maxImageDim int
	logger      *infra.Logger

	mu         sync.Mutex
	nextSeq    uint64
	currentSeq uint64
	cancel     context.CancelFunc
	runs       map[string]*run
}

func NewRunner(content ContentGenerator, coordinator *Coordinator, fetcher URLFetcher, maxImageDim int, logger *infra.Logger) *Runner {
	return &Runner{
		content:     content,
		coordinator: coordinator,
		fetcher:     fetcher,
		maxImageDim: maxImageDim,
		logger:      logger,
		runs:        make(map[string]*run),
	}
}

// Submit starts a new asynchronous run and returns its ID. Any in-flight run
// is superseded: its context is cancelled and any results it still produces
// are discarded.
func (r *Runner) Submit(sub Submission) (string, error) {
	if strings.TrimSpace(sub.Title) == "" && strings.TrimSpace(sub.URL) == "" && sub.Image.IsZero() {
		return "", errors.New("pipeline: submission needs an image, a url, or a title")
	}

	rn := &run{
		id:     uuid.NewString(),
		locale: sub.Locale,
		stage:  domain.StageIdle,
	}
	ctx, cancel := context.WithCancel(context.Background())

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.nextSeq++
	rn.seq = r.nextSeq
	r.currentSeq = rn.seq
	r.cancel = cancel
	r.runs[rn.id] = rn
	r.mu.Unlock()

	r.logger.Info().Str("run_id", rn.id).Uint64("seq", rn.seq).Msg("pipeline: run submitted")
	go r.execute(ctx, rn, sub)
	return rn.id, nil
}

// Snapshot returns the current view of a run, including superseded ones.
func (r *Runner) Snapshot(id string) (Snapshot, bool) {
	r.mu.Lock()
	rn, ok := r.runs[id]
	r.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}
	rn.mu.Lock()
	defer rn.mu.Unlock()
	return Snapshot{
		ID:           rn.id,
		Stage:        rn.stage,
		Locale:       rn.locale,
		Content:      rn.content,
		Images:       rn.images,
		ErrorKind:    rn.errKind,
		ErrorMessage: rn.errMsg,
	}, true
}

func (r *Runner) execute(ctx context.Context, rn *run, sub Submission) {
	if !r.setStage(rn, domain.StageContent) {
		return
	}

	source, err := r.prepareSource(ctx, sub)
	if err != nil {
		r.fail(rn, err)
		return
	}

	input := prompt.ContentInput{
		Mode:     intakeMode(sub),
		Title:    sub.Title,
		URL:      sub.URL,
		Keywords: sub.Keywords,
		Locale:   sub.Locale,
	}
	raw, err := r.content.GenerateContent(ctx, genai.ContentRequest{
		Instruction: prompt.BuildContentInstruction(input),
		Attachment:  source,
		UseSearch:   input.Mode == prompt.ModeURL,
	})
	if err != nil {
		r.fail(rn, err)
		return
	}
	content, err := parser.Parse(raw)
	if err != nil {
		r.fail(rn, err)
		return
	}
	if !r.setContent(rn, content) {
		return
	}

	if source.IsZero() {
		r.finish(rn, &domain.ImageSet{})
		return
	}
	if !r.setStage(rn, domain.StageImages) {
		return
	}
	images := r.coordinator.GenerateImages(ctx, rn.id, content, source)
	r.finish(rn, images)
}

// prepareSource resolves the run's source photo: uploads are resized down to
// the model-friendly bound, URL submissions are fetched first. Text-only
// submissions return nil.
func (r *Runner) prepareSource(ctx context.Context, sub Submission) (*imaging.File, error) {
	if !sub.Image.IsZero() {
		return imaging.Resize(sub.Image, r.maxImageDim)
	}
	rawURL := strings.TrimSpace(sub.URL)
	if rawURL == "" {
		return nil, nil
	}
	file, err := r.fetcher.FetchAsFile(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return imaging.Resize(file, r.maxImageDim)
}

func intakeMode(sub Submission) prompt.Mode {
	switch {
	case !sub.Image.IsZero():
		return prompt.ModeImage
	case strings.TrimSpace(sub.URL) != "":
		return prompt.ModeURL
	default:
		return prompt.ModeText
	}
}

// setStage advances the run unless it has been superseded.
func (r *Runner) setStage(rn *run, stage domain.Stage) bool {
	if !r.isCurrent(rn.seq) {
		r.logger.Debug().Str("run_id", rn.id).Str("stage", string(stage)).Msg("pipeline: discarding stage for superseded run")
		return false
	}
	rn.mu.Lock()
	rn.stage = stage
	rn.mu.Unlock()
	return true
}

func (r *Runner) setContent(rn *run, content *domain.ProductContent) bool {
	if !r.isCurrent(rn.seq) {
		return false
	}
	rn.mu.Lock()
	rn.content = content
	rn.mu.Unlock()
	return true
}

func (r *Runner) finish(rn *run, images *domain.ImageSet) {
	if !r.isCurrent(rn.seq) {
		return
	}
	rn.mu.Lock()
	rn.images = images
	rn.stage = domain.StageDone
	rn.mu.Unlock()
	r.logger.Info().Str("run_id", rn.id).Msg("pipeline: run finished")
}

func (r *Runner) fail(rn *run, err error) {
	if !r.isCurrent(rn.seq) || errors.Is(err, context.Canceled) {
		return
	}
	kind := domain.ClassifyError(err)
	r.logger.Error().Err(err).Str("run_id", rn.id).Str("kind", string(kind)).Msg("pipeline: run failed")
	rn.mu.Lock()
	rn.stage = domain.StageError
	rn.errKind = kind
	rn.errMsg = domain.UserMessage(kind, rn.locale)
	rn.mu.Unlock()
}

func (r *Runner) isCurrent(seq uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return seq == r.currentSeq
}
