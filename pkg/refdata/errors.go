package refdata

import "errors"

var (
	// ErrUnknownCorpus is returned for a corpus name outside AllCorpora.
	ErrUnknownCorpus = errors.New("unknown corpus")

	// ErrNoSource is returned when a cache is built without a data source.
	ErrNoSource = errors.New("no reference data source")
)
