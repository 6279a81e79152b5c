// Package harness runs batches of generated test frames through a decoder
// and tallies how many it recognizes.
package harness

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"
	"time"

	"github.com/taigrr/tiltframe/pkg/render"
	"github.com/taigrr/tiltframe/pkg/rng"
	"github.com/taigrr/tiltframe/pkg/scene"
)

// WrongRecognition is the error key for cases the decoder read without
// error but got wrong.
const WrongRecognition = "Recognition is Wrong."

// ErrNoCases is returned by Run when the config asks for no cases.
var ErrNoCases = errors.New("harness: no test cases")

// Decoder scans a frame and returns the code it recognized.
type Decoder interface {
	Scan(img image.Image) (string, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(img image.Image) (string, error)

// Scan calls f.
func (f DecoderFunc) Scan(img image.Image) (string, error) { return f(img) }

// Generator produces a template image and the code it encodes.
type Generator interface {
	Generate(r *rng.Rand) (truth string, img image.Image, err error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(r *rng.Rand) (string, image.Image, error)

// Generate calls f.
func (f GeneratorFunc) Generate(r *rng.Rand) (string, image.Image, error) { return f(r) }

// Config describes a batch of test cases.
type Config struct {
	Cases           int
	AngleVariation  float64 // degrees
	Seed            uint64
	NoiseMaxOpacity float64
	Width, Height   int
	Background      color.Color
	Options         render.Options
}

// DefaultConfig returns the batch settings of the original test page:
// 30 degree tilt envelope, noise opacity up to 0.5 and 350x350 frames.
func DefaultConfig() Config {
	return Config{
		Cases:           10,
		AngleVariation:  30,
		NoiseMaxOpacity: 0.5,
		Width:           350,
		Height:          350,
		Background:      color.White,
		Options:         render.DefaultOptions(),
	}
}

// Result is the outcome of one case.
type Result struct {
	Index       int
	Seed        uint64
	Angles      scene.Angles
	GroundTruth string
	Recognized  string
	Correct     bool
	Err         error
	Duration    time.Duration // decoder time
	Frame       *image.RGBA
}

// Key returns the error histogram key of a failed case.
func (r Result) Key() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return WrongRecognition
}

// Summary tallies a batch.
type Summary struct {
	Cases     int
	Correct   int
	Errors    map[string]int
	TotalTime time.Duration // decoder time over correct cases
	Failures  []Result
}

// MeanTime returns the mean decode time of the correct cases.
func (s Summary) MeanTime() time.Duration {
	if s.Correct == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Correct)
}

// Rate returns the fraction of correct cases.
func (s Summary) Rate() float64 {
	if s.Cases == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Cases)
}

// ErrorKeys returns the histogram keys, most frequent first.
func (s Summary) ErrorKeys() []string {
	keys := make([]string, 0, len(s.Errors))
	for k := range s.Errors {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if s.Errors[keys[i]] != s.Errors[keys[j]] {
			return s.Errors[keys[i]] > s.Errors[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func (s *Summary) add(r Result) {
	s.Cases++
	if r.Correct {
		s.Correct++
		s.TotalTime += r.Duration
		return
	}
	if s.Errors == nil {
		s.Errors = make(map[string]int)
	}
	s.Errors[r.Key()]++
	s.Failures = append(s.Failures, r)
}

// Runner executes test cases one at a time.
type Runner struct {
	cfg     Config
	gen     Generator
	dec     Decoder
	driver  *scene.Driver
	genRand *rng.Rand

	// KeepFrames keeps the rendered frame of correct cases too; failed
	// cases always keep theirs.
	KeepFrames bool
}

// NewRunner returns a runner for cfg. Zero width or height take the
// DefaultConfig frame size.
func NewRunner(cfg Config, gen Generator, dec Decoder) *Runner {
	def := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	d := scene.NewDriver(scene.Immediate{})
	d.SetOptions(cfg.Options)
	d.Background = cfg.Background
	return &Runner{
		cfg:     cfg,
		gen:     gen,
		dec:     dec,
		driver:  d,
		genRand: rng.New(cfg.Seed),
	}
}

// Run executes cfg.Cases cases. Each case i generates and renders with
// seed cfg.Seed+i, so any single case can be replayed with RunCase. Errors from individual
// cases are tallied, not returned; Run only fails when ctx is done.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	if r.cfg.Cases <= 0 {
		return sum, ErrNoCases
	}
	for i := range r.cfg.Cases {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res := r.RunCase(ctx, i)
		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			return sum, res.Err
		}
		sum.add(res)
		render.Logger().Debug("test case",
			"index", i,
			"correct", res.Correct,
			"key", res.Key(),
			"duration", res.Duration,
		)
	}
	render.Logger().Info("test run",
		"cases", sum.Cases,
		"correct", sum.Correct,
		"mean", sum.MeanTime(),
	)
	return sum, nil
}

// RunCase generates, renders, adds noise to and decodes case i. The
// generator stream is reseeded for every case, so the result does not
// depend on which cases ran before.
func (r *Runner) RunCase(ctx context.Context, i int) Result {
	res := Result{Index: i, Seed: r.cfg.Seed + uint64(i)}
	r.genRand.Seed(res.Seed)

	truth, tmpl, err := r.gen.Generate(r.genRand)
	if err != nil {
		res.Err = fmt.Errorf("generate: %w", err)
		return res
	}
	res.GroundTruth = truth

	fb := render.NewFramebuffer(r.cfg.Width, r.cfg.Height)
	if err := r.driver.GenerateDistortedFrame(ctx, scene.ImageSource(tmpl), fb, r.cfg.AngleVariation, res.Seed); err != nil {
		res.Err = err
		return res
	}
	res.Angles = r.driver.LastAngles()
	render.AddNoise(fb, r.cfg.NoiseMaxOpacity, r.driver.Rand())

	start := time.Now()
	got, err := r.dec.Scan(fb.Image())
	res.Duration = time.Since(start)
	res.Recognized = got
	res.Err = err
	res.Correct = err == nil && got == truth
	if !res.Correct || r.KeepFrames {
		res.Frame = fb.ToImage()
	}
	return res
}
