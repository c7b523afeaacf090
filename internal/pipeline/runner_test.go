package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"listify/internal/domain"
	"listify/internal/genai"
	"listify/internal/imaging"
	"listify/internal/storage"
)

const contentJSON = `{"name":"Caneca Térmica","description":"Mantém o café quente","category":"cozinha","price":79.9}`

type fakeContent struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
	reply func() (string, error)
}

func (f *fakeContent) GenerateContent(ctx context.Context, req genai.ContentRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	if f.reply != nil {
		return f.reply()
	}
	return contentJSON, nil
}

func pngSource(t *testing.T) *imaging.File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return &imaging.File{Name: "product.png", MIME: "image/png", Data: buf.Bytes()}
}

func newTestRunner(t *testing.T, content *fakeContent, images *fakeImages) *Runner {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	coordinator := NewCoordinator(images, store, discardLogger())
	return NewRunner(content, coordinator, imaging.NewFetcher(nil), 1024, discardLogger())
}

func waitForTerminal(t *testing.T, r *Runner, id string) Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		snap, ok := r.Snapshot(id)
		if !ok {
			t.Fatalf("run %s disappeared", id)
		}
		if snap.Stage.Terminal() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s never reached a terminal stage", id)
	return Snapshot{}
}

func TestRunnerTextOnlySubmission(t *testing.T) {
	content := &fakeContent{}
	images := &fakeImages{}
	r := newTestRunner(t, content, images)

	id, err := r.Submit(Submission{Title: "Caneca Térmica", Locale: "pt"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	snap := waitForTerminal(t, r, id)
	if snap.Stage != domain.StageDone {
		t.Fatalf("got stage %q: %+v", snap.Stage, snap)
	}
	if snap.Content == nil || snap.Content.Name != "Caneca Térmica" {
		t.Fatalf("unexpected content: %+v", snap.Content)
	}
	if !snap.Images.Empty() {
		t.Fatalf("text-only run must not attempt images: %+v", snap.Images)
	}
	if images.calls() != 0 {
		t.Fatalf("image generator called %d times", images.calls())
	}
}

func TestRunnerImageSubmissionRunsFanOut(t *testing.T) {
	content := &fakeContent{}
	images := &fakeImages{}
	r := newTestRunner(t, content, images)

	id, err := r.Submit(Submission{Image: pngSource(t), Locale: "pt"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	snap := waitForTerminal(t, r, id)
	if snap.Stage != domain.StageDone {
		t.Fatalf("got stage %q", snap.Stage)
	}
	if snap.Images.Empty() || snap.Images.Primary.Status != domain.SlotSucceeded {
		t.Fatalf("expected generated primary image: %+v", snap.Images)
	}
	if len(snap.Images.Slots) != 4 {
		t.Fatalf("got %d dependent slots, want 4", len(snap.Images.Slots))
	}
}

func TestRunnerRejectsEmptySubmission(t *testing.T) {
	r := newTestRunner(t, &fakeContent{}, &fakeImages{})
	if _, err := r.Submit(Submission{}); err == nil {
		t.Fatalf("empty submission should be rejected")
	}
}

func TestRunnerClassifiesFailures(t *testing.T) {
	tests := []struct {
		name     string
		reply    func() (string, error)
		wantKind domain.ErrorKind
	}{
		{
			name:     "policy block",
			reply:    func() (string, error) { return "", fmt.Errorf("call: %w", domain.ErrPolicyBlocked) },
			wantKind: domain.KindPolicy,
		},
		{
			name:     "credential failure",
			reply:    func() (string, error) { return "", fmt.Errorf("call: %w", domain.ErrCredentialMissing) },
			wantKind: domain.KindCredential,
		},
		{
			name:     "malformed output",
			reply:    func() (string, error) { return "no json here, sorry", nil },
			wantKind: domain.KindMalformed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRunner(t, &fakeContent{reply: tt.reply}, &fakeImages{})
			id, err := r.Submit(Submission{Title: "x", Locale: "pt"})
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			snap := waitForTerminal(t, r, id)
			if snap.Stage != domain.StageError {
				t.Fatalf("got stage %q", snap.Stage)
			}
			if snap.ErrorKind != tt.wantKind {
				t.Fatalf("got kind %q, want %q", snap.ErrorKind, tt.wantKind)
			}
			if snap.ErrorMessage != domain.UserMessage(tt.wantKind, "pt") {
				t.Fatalf("error message not localized: %q", snap.ErrorMessage)
			}
		})
	}
}

func TestRunnerSupersededRunDiscardsResults(t *testing.T) {
	gate := make(chan struct{})
	content := &fakeContent{gate: gate}
	r := newTestRunner(t, content, &fakeImages{})

	first, err := r.Submit(Submission{Title: "first"})
	if err != nil {
		t.Fatalf("Submit first: %v", err)
	}
	// The second submission supersedes the first while it is still blocked
	// inside content generation.
	second, err := r.Submit(Submission{Title: "second"})
	if err != nil {
		t.Fatalf("Submit second: %v", err)
	}
	close(gate)

	snap := waitForTerminal(t, r, second)
	if snap.Stage != domain.StageDone {
		t.Fatalf("second run: got stage %q", snap.Stage)
	}

	// Give the first run's goroutine time to observe its supersession.
	time.Sleep(50 * time.Millisecond)
	firstSnap, ok := r.Snapshot(first)
	if !ok {
		t.Fatalf("first run disappeared")
	}
	if firstSnap.Stage == domain.StageDone {
		t.Fatalf("superseded run must not complete: %+v", firstSnap)
	}
	if firstSnap.Content != nil {
		t.Fatalf("superseded run must not publish content")
	}
}
