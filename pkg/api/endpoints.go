package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hazyhaar/labelcheck/pkg/kit"
	"github.com/hazyhaar/labelcheck/pkg/refdata"
	"github.com/hazyhaar/labelcheck/pkg/report"
)

// Service is what both transports dispatch to.
type Service struct {
	Checker *report.Checker
	Cache   *refdata.Cache
	Logger  *slog.Logger
}

var errNoIngredients = errors.New("ingredients array is empty")

// Shared request/response types used by both HTTP and MCP transports.

type checkReq struct {
	Ingredients []string
	Checks      []report.Check
}

type invalidateReq struct {
	Corpora []refdata.Corpus
}

type refdataResponse struct {
	Corpora []refdata.CorpusStats `json:"corpora"`
}

type invalidateResponse struct {
	Invalidated []refdata.Corpus `json:"invalidated"`
}

type endpoints struct {
	check      kit.Endpoint
	allergens  kit.Endpoint
	gras       kit.Endpoint
	ndi        kit.Endpoint
	refdata    kit.Endpoint
	invalidate kit.Endpoint
}

func newEndpoints(svc *Service) *endpoints {
	logger := svc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &endpoints{
		check:      kit.Instrument(logger, "check")(checkEndpoint(svc)),
		allergens:  kit.Instrument(logger, "allergens")(singleCheckEndpoint(svc, report.CheckAllergens)),
		gras:       kit.Instrument(logger, "gras")(singleCheckEndpoint(svc, report.CheckGRAS)),
		ndi:        kit.Instrument(logger, "ndi")(singleCheckEndpoint(svc, report.CheckNDI)),
		refdata:    kit.Instrument(logger, "refdata")(refdataEndpoint(svc)),
		invalidate: kit.Instrument(logger, "invalidate")(invalidateEndpoint(svc)),
	}
}

func checkEndpoint(svc *Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*checkReq)
		if len(report.Clean(req.Ingredients)) == 0 {
			return nil, errNoIngredients
		}
		b, err := svc.Checker.Run(ctx, req.Ingredients, report.Options{Checks: req.Checks})
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// singleCheckEndpoint runs one check and returns its report alone.
func singleCheckEndpoint(svc *Service, check report.Check) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*checkReq)
		if len(report.Clean(req.Ingredients)) == 0 {
			return nil, errNoIngredients
		}
		b, err := svc.Checker.Run(ctx, req.Ingredients, report.Options{Checks: []report.Check{check}})
		if err != nil {
			return nil, err
		}
		switch check {
		case report.CheckAllergens:
			return b.Allergens, nil
		case report.CheckGRAS:
			return b.GRAS, nil
		default:
			return b.NDI, nil
		}
	}
}

func refdataEndpoint(svc *Service) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return refdataResponse{Corpora: svc.Cache.Stats()}, nil
	}
}

func invalidateEndpoint(svc *Service) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req, _ := request.(*invalidateReq)
		corpora := refdata.AllCorpora
		if req != nil && len(req.Corpora) > 0 {
			corpora = req.Corpora
		}
		svc.Cache.Invalidate(corpora...)
		return invalidateResponse{Invalidated: corpora}, nil
	}
}

func parseCorpora(names []string) ([]refdata.Corpus, error) {
	out := make([]refdata.Corpus, 0, len(names))
	for _, n := range names {
		c, err := refdata.ParseCorpus(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// badRequest reports whether err is the caller's fault.
func badRequest(err error) bool {
	return errors.Is(err, errNoIngredients) ||
		errors.Is(err, report.ErrTooManyIngredients) ||
		errors.Is(err, report.ErrUnknownCheck) ||
		errors.Is(err, refdata.ErrUnknownCorpus)
}
