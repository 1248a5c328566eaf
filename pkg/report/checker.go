package report

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/labelcheck/pkg/match"
)

// Check names one of the three independent compliance checks.
type Check string

const (
	CheckAllergens Check = "allergen"
	CheckGRAS      Check = "gras"
	CheckNDI       Check = "ndi"
)

// AllChecks lists every check in report order.
var AllChecks = []Check{CheckAllergens, CheckGRAS, CheckNDI}

// ParseChecks reads a comma-separated list such as "allergen,ndi". An empty
// list selects every check.
func ParseChecks(s string) ([]Check, error) {
	var out []Check
	for _, part := range strings.Split(s, ",") {
		switch name := strings.ToLower(strings.TrimSpace(part)); name {
		case "":
		case "allergen", "allergens":
			out = append(out, CheckAllergens)
		case "gras":
			out = append(out, CheckGRAS)
		case "ndi", "odi":
			out = append(out, CheckNDI)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownCheck, name)
		}
	}
	return out, nil
}

// Options selects what one Run evaluates.
type Options struct {
	// Checks to run; empty runs all three. The caller picks them from the
	// product category (GRAS for foods, NDI for supplements).
	Checks []Check
}

func (o Options) has(c Check) bool {
	if len(o.Checks) == 0 {
		return true
	}
	for _, x := range o.Checks {
		if x == c {
			return true
		}
	}
	return false
}

// Narratives are the human-readable renderings of a Bundle.
type Narratives struct {
	Allergens   string `json:"allergens,omitempty"`
	GRAS        string `json:"gras,omitempty"`
	NDI         string `json:"ndi,omitempty"`
	GRASContext string `json:"grasContext,omitempty"`
}

// Bundle is the output of one Run: the reports of the selected checks over
// the cleaned ingredient list.
type Bundle struct {
	ID          string                `json:"id"`
	GeneratedAt time.Time             `json:"generatedAt"`
	Ingredients []string              `json:"ingredients"`
	Allergens   *AllergenSummary      `json:"allergens,omitempty"`
	GRAS        *GRASComplianceReport `json:"gras,omitempty"`
	NDI         *NDIComplianceReport  `json:"ndi,omitempty"`
	Narratives  Narratives            `json:"narratives"`
}

// CheckerOptions tunes a Checker. Zero values select the defaults.
type CheckerOptions struct {
	Workers        int
	MaxIngredients int // 0 means unlimited
	Logger         *slog.Logger
}

const DefaultWorkers = 8

// Checker runs the matchers over whole ingredient lists.
type Checker struct {
	engine  *match.Engine
	workers int
	max     int
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewChecker creates a checker drawing matchers from engine.
func NewChecker(engine *match.Engine, opts CheckerOptions) *Checker {
	c := &Checker{
		engine:  engine,
		workers: opts.Workers,
		max:     opts.MaxIngredients,
		logger:  opts.Logger,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	if c.workers <= 0 {
		c.workers = DefaultWorkers
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Run evaluates the selected checks for every ingredient. Blank entries are
// dropped first; every detailed result array in the Bundle is index-aligned
// with Bundle.Ingredients. A matcher failure on one ingredient is contained
// to that ingredient.
func (c *Checker) Run(ctx context.Context, ingredients []string, opts Options) (*Bundle, error) {
	ings := Clean(ingredients)
	if c.max > 0 && len(ings) > c.max {
		return nil, fmt.Errorf("%w (max %d, got %d)", ErrTooManyIngredients, c.max, len(ings))
	}
	m := c.engine.Matchers(ctx)

	var (
		allergens    [][]match.AllergenMatch
		allergenFail []bool
		gras         []match.GRASMatch
		suggestions  []string
		ndi          []match.NDIMatch
	)
	if opts.has(CheckAllergens) {
		allergens = make([][]match.AllergenMatch, len(ings))
		allergenFail = make([]bool, len(ings))
	}
	if opts.has(CheckGRAS) {
		gras = make([]match.GRASMatch, len(ings))
		suggestions = make([]string, len(ings))
	}
	if opts.has(CheckNDI) {
		ndi = make([]match.NDIMatch, len(ings))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, ing := range ings {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if allergens != nil {
				c.contain(CheckAllergens, ing, func() { allergens[i] = m.Allergens.Match(ing) },
					func() { allergens[i], allergenFail[i] = nil, true })
			}
			if gras != nil {
				c.contain(CheckGRAS, ing, func() {
					gras[i] = m.GRAS.Check(ing)
					if !gras[i].IsGRAS() {
						suggestions[i], _ = m.GRAS.Suggest(ing)
					}
				}, func() {
					gras[i] = match.GRASMatch{Ingredient: ing, Tier: match.TierNone, Unverified: true}
					suggestions[i] = ""
				})
			}
			if ndi != nil {
				c.contain(CheckNDI, ing, func() { ndi[i] = m.NDI.Check(ing) },
					func() { ndi[i] = unverifiable(ing) })
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := &Bundle{
		ID:          c.newID(),
		GeneratedAt: c.now().UTC(),
		Ingredients: ings,
	}
	var err error
	if allergens != nil {
		if b.Allergens, err = AggregateAllergens(ings, allergens); err != nil {
			return nil, err
		}
		for i, failed := range allergenFail {
			if failed {
				b.Allergens.Unverified = append(b.Allergens.Unverified, ings[i])
			}
		}
		b.Narratives.Allergens = FormatAllergenSummary(b.Allergens)
	}
	if gras != nil {
		if b.GRAS, err = AggregateGRAS(ings, gras, precomputed(ings, suggestions)); err != nil {
			return nil, err
		}
		b.Narratives.GRAS = FormatGRAS(b.GRAS)
		b.Narratives.GRASContext = GRASContext(b.GRAS)
	}
	if ndi != nil {
		if b.NDI, err = AggregateNDI(ings, ndi); err != nil {
			return nil, err
		}
		b.Narratives.NDI = FormatNDI(b.NDI)
	}
	return b, nil
}

// contain runs fn, replacing its result through fallback if it panics.
func (c *Checker) contain(check Check, ingredient string, fn, fallback func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("matcher panicked", "check", check, "ingredient", ingredient, "panic", r)
			fallback()
		}
	}()
	fn()
}

// precomputed serves suggestions computed by the workers, so no matcher code
// runs outside contain.
func precomputed(ings, suggestions []string) Suggester {
	byIngredient := make(map[string]string, len(ings))
	for i, s := range suggestions {
		if s != "" {
			byIngredient[ings[i]] = s
		}
	}
	return func(ing string) (string, bool) {
		s, ok := byIngredient[ing]
		return s, ok
	}
}

func unverifiable(ingredient string) match.NDIMatch {
	return match.NDIMatch{
		Ingredient:     ingredient,
		Tier:           match.TierRequiresVerification,
		RequiresNDI:    true,
		Unverified:     true,
		ComplianceNote: fmt.Sprintf("%s could not be checked automatically; verify its NDI status manually.", ingredient),
	}
}

func (c *Checker) newID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(c.now()), c.entropy).String()
}
