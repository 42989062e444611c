package match

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docmatch/internal/llm"
)

// TextGenerator is the slice of the LLM client the oracle depends on.
type TextGenerator interface {
	GenerateText(ctx context.Context, req llm.GenerateRequest) (string, error)
}

// Oracle asks a text model whether document text corresponds to a row of the
// reference table.
type Oracle struct {
	client   TextGenerator
	template string
	logger   *slog.Logger
}

func NewOracle(client TextGenerator, promptTemplate string, logger *slog.Logger) *Oracle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Oracle{client: client, template: promptTemplate, logger: logger}
}

// BuildPrompt substitutes the document text and serialized reference rows
// into the configured template.
func (o *Oracle) BuildPrompt(text string, table *ReferenceTable) string {
	return strings.NewReplacer(
		"{text}", text,
		"{match_data}", table.Serialize(),
	).Replace(o.template)
}

// MatchText performs one oracle call and returns the parsed verdict. Any
// transport, decode, or schema failure is an error; the caller treats it as
// "no decision", not as confidence zero.
func (o *Oracle) MatchText(ctx context.Context, text string, table *ReferenceTable) (Verdict, error) {
	rid := uuid.New().String()
	start := time.Now()

	o.logger.Info("match.oracle.start",
		"req_id", rid,
		"text_len", len(text),
		"reference_rows", len(table.Rows),
	)

	resp, err := o.client.GenerateText(ctx, llm.GenerateRequest{
		Prompt:      o.BuildPrompt(text, table),
		Temperature: 0.0,
	})
	if err != nil {
		o.logger.Error("match.oracle.call_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Verdict{}, err
	}

	v, err := ParseVerdict(resp)
	if err != nil {
		o.logger.Warn("match.oracle.unparseable_verdict",
			"req_id", rid, "error", err, "response_len", len(resp),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Verdict{}, err
	}

	o.logger.Info("match.oracle.ok",
		"req_id", rid,
		"confidence", v.Confidence,
		"row_number", v.RowNumber,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return v, nil
}
