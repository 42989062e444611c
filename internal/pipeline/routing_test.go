package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/docmatch/constants"
	"github.com/joseph-ayodele/docmatch/internal/match"
)

func TestDecideSource(t *testing.T) {
	assert.Equal(t, RouteToProcessed, DecideSource(constants.KindImage, nil))
	assert.Equal(t, RouteToProcessed, DecideSource(constants.KindDocument, nil))
	assert.Equal(t, RouteToErrors, DecideSource(constants.KindUnsupported, nil))
	assert.Equal(t, RouteToErrors, DecideSource(constants.KindDocument, errors.New("corrupt")))
}

func TestDecideArtifact(t *testing.T) {
	tests := []struct {
		name      string
		verdict   match.Verdict
		rowCount  int
		threshold float64
		want      Route
	}{
		{"accepted", match.Verdict{Confidence: 0.9, RowNumber: intPtr(1)}, 2, 0.6, RouteToMatches},
		{"exactly at threshold", match.Verdict{Confidence: 0.6, RowNumber: intPtr(2)}, 2, 0.6, RouteToMatches},
		{"just below threshold", match.Verdict{Confidence: 0.5999, RowNumber: intPtr(1)}, 2, 0.6, RouteRemainInExtracted},
		{"nil row", match.Verdict{Confidence: 0.9, RowNumber: nil}, 2, 0.6, RouteRemainInExtracted},
		{"row beyond table", match.Verdict{Confidence: 1.0, RowNumber: intPtr(3)}, 2, 0.6, RouteRemainInExtracted},
		{"row zero", match.Verdict{Confidence: 1.0, RowNumber: intPtr(0)}, 2, 0.6, RouteRemainInExtracted},
		{"negative row", match.Verdict{Confidence: 1.0, RowNumber: intPtr(-1)}, 2, 0.6, RouteRemainInExtracted},
		{"custom threshold", match.Verdict{Confidence: 0.7, RowNumber: intPtr(1)}, 2, 0.75, RouteRemainInExtracted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideArtifact(tt.verdict, tt.rowCount, tt.threshold))
		})
	}
}

func TestRouteString(t *testing.T) {
	assert.Equal(t, "to-processed", RouteToProcessed.String())
	assert.Equal(t, "to-errors", RouteToErrors.String())
	assert.Equal(t, "to-matches", RouteToMatches.String())
	assert.Equal(t, "remain-in-extracted", RouteRemainInExtracted.String())
}
