package exercise

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/taanya/pylearn/internal/embedding"
)

const (
	// DefaultInitRetries is the attempt budget for backend initialization.
	DefaultInitRetries = 3

	// DefaultCorpusRetries is the attempt budget for bulk corpus embedding.
	DefaultCorpusRetries = 2

	// DefaultRetryBaseDelay seeds the exponential backoff between attempts.
	DefaultRetryBaseDelay = time.Second
)

// GeneratorConfig wires a Generator.
type GeneratorConfig struct {
	Provider  embedding.Provider
	Guard     *embedding.Guard
	Cache     *embedding.Cache
	Library   *Library
	Fallbacks *Fallbacks
	Logger    *slog.Logger

	InitRetries    uint
	CorpusRetries  uint
	RetryBaseDelay time.Duration
	BatchSize      int
}

// Generator produces exercises. The semantic-match path runs behind the
// availability guard; whenever that path cannot serve, generation
// degrades to the static fallback table instead of failing.
type Generator struct {
	provider  embedding.Provider
	guard     *embedding.Guard
	cache     *embedding.Cache
	library   *Library
	fallbacks *Fallbacks
	logger    *slog.Logger

	initRetries    uint
	corpusRetries  uint
	retryBaseDelay time.Duration
	batchSize      int

	// initMu serializes initialization. ready is only set after both the
	// backend init and the corpus index succeed; a failed attempt leaves
	// it false so a later request can try again.
	initMu  sync.Mutex
	ready   bool
	matcher *Matcher
}

// NewGenerator creates a generator. Initialization is deferred to the
// first request that needs the semantic-match path.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.InitRetries == 0 {
		cfg.InitRetries = DefaultInitRetries
	}
	if cfg.CorpusRetries == 0 {
		cfg.CorpusRetries = DefaultCorpusRetries
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if cfg.Fallbacks == nil {
		cfg.Fallbacks = DefaultFallbacks()
	}
	return &Generator{
		provider:       &guardedProvider{Provider: cfg.Provider, guard: cfg.Guard},
		guard:          cfg.Guard,
		cache:          cfg.Cache,
		library:        cfg.Library,
		fallbacks:      cfg.Fallbacks,
		logger:         cfg.Logger,
		initRetries:    cfg.InitRetries,
		corpusRetries:  cfg.CorpusRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		batchSize:      cfg.BatchSize,
	}
}

// Generate produces an exercise for the topic and difficulty, with
// optional free-text context steering the match. Backend unavailability
// of any kind degrades to the fallback table; the only error surfaced is
// a difficulty tier missing from that table, which is a configuration
// problem rather than a transient condition.
func (g *Generator) Generate(ctx context.Context, topic, difficulty, contextText string) (*GeneratedExercise, error) {
	if g.guard.InCooldown() {
		g.logger.Warn("backend in cooldown, serving fallback",
			"retry_after_minutes", g.guard.RemainingCooldownMinutes())
		return g.fallback(topic, difficulty)
	}
	if !g.guard.CanCall() {
		g.logger.Warn("backend call quota exhausted, serving fallback", "topic", topic)
		return g.fallback(topic, difficulty)
	}

	if err := g.ensureReady(ctx); err != nil {
		g.logger.Warn("semantic matching unavailable, serving fallback", "error", err)
		return g.fallback(topic, difficulty)
	}

	m, err := g.matcher.Match(ctx, topic, difficulty, contextText)
	if err != nil {
		if errors.Is(err, ErrNoCandidate) {
			g.logger.Info("no matching template, serving fallback",
				"topic", topic, "difficulty", difficulty)
		} else {
			g.logger.Warn("match failed, serving fallback", "error", err)
		}
		return g.fallback(topic, difficulty)
	}

	ex := Assemble(m, contextText)
	g.logger.Info("generated exercise",
		"id", ex.ID,
		"similarity", m.Similarity,
		"source", ex.Source)
	return ex, nil
}

// GenerateRandom produces an exercise from the parameterized blueprint
// source. It never touches the embedding backend, so the guard and its
// quota are not consulted; a topic and difficulty no blueprint covers
// degrades to the fallback table like the semantic path does.
func (g *Generator) GenerateRandom(topic, difficulty string) (*GeneratedExercise, error) {
	if ex, ok := RandomTemplate(topic, difficulty); ok {
		g.logger.Info("generated exercise", "id", ex.ID, "source", ex.Source)
		return ex, nil
	}
	g.logger.Info("no blueprint for request, serving fallback",
		"topic", topic, "difficulty", difficulty)
	return g.fallback(topic, difficulty)
}

// Availability reports whether the semantic-match path would currently
// be attempted. In cooldown the cause carries the remaining period and
// whether the backend's own rate limit triggered it.
func (g *Generator) Availability() (bool, *embedding.UnavailableError) {
	if g.guard.InCooldown() {
		st := g.guard.Status()
		return false, &embedding.UnavailableError{
			RateLimited: st.RateLimited,
			RetryAfter:  g.guard.RemainingCooldown(),
		}
	}
	if !g.guard.CanCall() {
		return false, nil
	}
	return true, nil
}

// Status reports the guard state plus index readiness for the status endpoint.
type Status struct {
	Guard        embedding.GuardStatus `json:"guard"`
	Backend      string                `json:"backend"`
	Model        string                `json:"model"`
	IndexReady   bool                  `json:"index_ready"`
	IndexEntries int                   `json:"index_entries"`
	Templates    int                   `json:"templates"`
}

// Status returns a snapshot for health reporting.
func (g *Generator) Status() Status {
	g.initMu.Lock()
	ready := g.ready
	entries := 0
	if g.matcher != nil {
		entries = g.matcher.IndexLen()
	}
	g.initMu.Unlock()

	return Status{
		Guard:        g.guard.Status(),
		Backend:      g.provider.Name(),
		Model:        g.provider.Model(),
		IndexReady:   ready,
		IndexEntries: entries,
		Templates:    g.library.Len(),
	}
}

// ensureReady initializes the backend and builds the template index on
// first use. Both steps retry with exponential backoff; failure leaves
// the generator uninitialized so later requests can try again.
func (g *Generator) ensureReady(ctx context.Context) error {
	g.initMu.Lock()
	defer g.initMu.Unlock()

	if g.ready {
		return nil
	}

	err := embedding.WithRetry(ctx, g.initRetries, g.retryBaseDelay, g.logger, func() error {
		return g.provider.Init(ctx)
	})
	if err != nil {
		if gerr := g.guard.RecordFailure(err); gerr != nil {
			return gerr
		}
		return err
	}

	var idx *embedding.Index
	err = embedding.WithRetry(ctx, g.corpusRetries, g.retryBaseDelay, g.logger, func() error {
		var cerr error
		idx, cerr = g.cache.LoadOrCompute(ctx, g.provider, g.library.Entries(), g.batchSize)
		return cerr
	})
	if err != nil {
		return err
	}

	g.matcher = NewMatcher(g.library, idx, g.provider)
	g.ready = true
	g.logger.Info("exercise generator ready",
		"templates", g.library.Len(),
		"indexed", idx.Len(),
		"model", g.provider.Model())
	return nil
}

func (g *Generator) fallback(topic, difficulty string) (*GeneratedExercise, error) {
	fb, err := g.fallbacks.Get(difficulty)
	if err != nil {
		return nil, err
	}
	return AssembleFallback(fb, topic, difficulty), nil
}

// guardedProvider routes every backend call through the availability
// guard: the attempt is recorded before the call, and the outcome feeds
// the error counter. When a failure tips the guard into cooldown the
// cooldown error replaces the backend error so callers stop retrying.
type guardedProvider struct {
	embedding.Provider
	guard *embedding.Guard
}

func (p *guardedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.guard.RecordCall()
	v, err := p.Provider.Embed(ctx, text)
	return v, p.record(err)
}

func (p *guardedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.guard.RecordCall()
	vs, err := p.Provider.EmbedBatch(ctx, texts)
	return vs, p.record(err)
}

func (p *guardedProvider) record(err error) error {
	if err == nil {
		p.guard.RecordSuccess()
		return nil
	}
	if gerr := p.guard.RecordFailure(err); gerr != nil {
		return gerr
	}
	return err
}
