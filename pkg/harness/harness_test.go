package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"testing"
	"time"

	"github.com/taigrr/tiltframe/pkg/render"
	"github.com/taigrr/tiltframe/pkg/rng"
)

func testConfig(cases int) Config {
	cfg := DefaultConfig()
	cfg.Cases = cases
	cfg.Seed = 42
	cfg.Width, cfg.Height = 64, 64
	return cfg
}

// quadrants always produces the same template and code.
var quadrants = GeneratorFunc(func(*rng.Rand) (string, image.Image, error) {
	tex := render.NewQuadrantTexture(32, 32, render.ColorRed, render.ColorGreen, render.ColorBlue, render.ColorYellow)
	return "quadrants", tex.Image, nil
})

// scripted returns its answers in order, one per scan.
type scripted struct {
	answers []string
	errs    []error
	frames  [][]byte
	n       int
}

func (s *scripted) Scan(img image.Image) (string, error) {
	i := s.n % len(s.answers)
	s.n++
	s.frames = append(s.frames, bytes.Clone(img.(*image.RGBA).Pix))
	time.Sleep(time.Millisecond)
	return s.answers[i], s.errs[i]
}

func TestRunTalliesResults(t *testing.T) {
	dec := &scripted{
		answers: []string{"quadrants", "nope", "", "quadrants"},
		errs:    []error{nil, nil, errors.New("no code found"), nil},
	}
	sum, err := NewRunner(testConfig(4), quadrants, dec).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.Cases != 4 || sum.Correct != 2 {
		t.Errorf("cases %d correct %d, want 4 and 2", sum.Cases, sum.Correct)
	}
	if sum.Errors[WrongRecognition] != 1 || sum.Errors["no code found"] != 1 {
		t.Errorf("errors = %v", sum.Errors)
	}
	if len(sum.Failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(sum.Failures))
	}
	for _, f := range sum.Failures {
		if f.Frame == nil {
			t.Errorf("failure %d kept no frame", f.Index)
		}
	}
	if sum.MeanTime() < time.Millisecond || sum.MeanTime() != sum.TotalTime/2 {
		t.Errorf("mean time = %v for total %v", sum.MeanTime(), sum.TotalTime)
	}
	if sum.Rate() != 0.5 {
		t.Errorf("rate = %v, want 0.5", sum.Rate())
	}
}

func TestRunDeterministic(t *testing.T) {
	run := func() *scripted {
		dec := &scripted{answers: []string{"quadrants"}, errs: []error{nil}}
		if _, err := NewRunner(testConfig(3), quadrants, dec).Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		return dec
	}
	a, b := run(), run()
	for i := range a.frames {
		if !bytes.Equal(a.frames[i], b.frames[i]) {
			t.Errorf("case %d differs between runs", i)
		}
	}
	if bytes.Equal(a.frames[0], a.frames[1]) {
		t.Error("cases 0 and 1 rendered identical frames")
	}
}

// recording draws its code from the generator stream and remembers it.
type recording struct {
	truths []string
}

func (g *recording) Generate(r *rng.Rand) (string, image.Image, error) {
	code := fmt.Sprintf("code-%06d", int(r.Next()*1e6))
	g.truths = append(g.truths, code)
	tex := render.NewQuadrantTexture(32, 32, render.ColorRed, render.ColorGreen, render.ColorBlue, render.ColorYellow)
	return code, tex.Image, nil
}

func TestRunCaseReplays(t *testing.T) {
	gen := &recording{}
	dec := &scripted{answers: []string{"x"}, errs: []error{nil}}
	r := NewRunner(testConfig(3), gen, dec)
	r.KeepFrames = true
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(gen.truths) != 3 || gen.truths[0] == gen.truths[2] {
		t.Fatalf("batch truths = %v", gen.truths)
	}

	replay := NewRunner(testConfig(3), &recording{}, &scripted{answers: []string{"x"}, errs: []error{nil}})
	res := replay.RunCase(context.Background(), 2)
	if res.Err != nil || res.Seed != 44 {
		t.Fatalf("replay = %+v", res)
	}
	if res.GroundTruth != gen.truths[2] {
		t.Errorf("replayed truth = %q, want %q", res.GroundTruth, gen.truths[2])
	}
	if !bytes.Equal(res.Frame.Pix, dec.frames[2]) {
		t.Error("replayed case 2 differs from the batch run")
	}

	// Running other cases first does not change case 2.
	replay.RunCase(context.Background(), 0)
	if again := replay.RunCase(context.Background(), 2); again.GroundTruth != gen.truths[2] {
		t.Errorf("truth after case 0 = %q, want %q", again.GroundTruth, gen.truths[2])
	}
}

func TestRunGeneratorError(t *testing.T) {
	gen := GeneratorFunc(func(*rng.Rand) (string, image.Image, error) {
		return "", nil, errors.New("boom")
	})
	dec := &scripted{answers: []string{"x"}, errs: []error{nil}}
	sum, err := NewRunner(testConfig(2), gen, dec).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Errors["generate: boom"] != 2 || dec.n != 0 {
		t.Errorf("errors = %v, scans = %d", sum.Errors, dec.n)
	}
}

func TestRunEdgeCases(t *testing.T) {
	dec := &scripted{answers: []string{"quadrants"}, errs: []error{nil}}

	if _, err := NewRunner(testConfig(0), quadrants, dec).Run(context.Background()); !errors.Is(err, ErrNoCases) {
		t.Errorf("err = %v, want ErrNoCases", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRunner(testConfig(3), quadrants, dec).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSummaryErrorKeys(t *testing.T) {
	s := Summary{Errors: map[string]int{"b": 1, "a": 1, WrongRecognition: 5}}
	got := s.ErrorKeys()
	want := []string{WrongRecognition, "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("keys = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keys = %v, want %v", got, want)
			break
		}
	}
	if (Summary{}).MeanTime() != 0 || (Summary{}).Rate() != 0 {
		t.Error("empty summary should report zero")
	}
}
