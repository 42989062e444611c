package pipeline

import (
	"github.com/joseph-ayodele/docmatch/constants"
	"github.com/joseph-ayodele/docmatch/internal/match"
)

// Route is the destination decided for a file after one pass. It is derived,
// never stored; the folders are the only durable state.
type Route int

const (
	RouteToProcessed Route = iota
	RouteToErrors
	RouteToMatches
	RouteRemainInExtracted
)

func (r Route) String() string {
	switch r {
	case RouteToProcessed:
		return "to-processed"
	case RouteToErrors:
		return "to-errors"
	case RouteToMatches:
		return "to-matches"
	default:
		return "remain-in-extracted"
	}
}

// DecideSource routes a source file after Stage 1: unsupported kinds and
// failed extractions go to errors, successful ones to processed.
func DecideSource(kind constants.FileKind, extractErr error) Route {
	if kind == constants.KindUnsupported || extractErr != nil {
		return RouteToErrors
	}
	return RouteToProcessed
}

// DecideArtifact routes an extracted artifact after an oracle verdict. A nil
// or out-of-range row reference is "no decision" regardless of confidence;
// confidence at or above the threshold accepts the match.
func DecideArtifact(v match.Verdict, rowCount int, threshold float64) Route {
	if v.RowNumber == nil {
		return RouteRemainInExtracted
	}
	if *v.RowNumber < 1 || *v.RowNumber > rowCount {
		return RouteRemainInExtracted
	}
	if v.Confidence >= threshold {
		return RouteToMatches
	}
	return RouteRemainInExtracted
}
