package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/thewiin/aws-saas-etl/internal/classifier"
	"github.com/thewiin/aws-saas-etl/pkg/tabular"
)

// SentimentColumn is appended to every transformed dataset, after all
// original columns.
const SentimentColumn = "sentiment_result"

// DefaultTextColumns are the recognized names of the column holding the text
// to classify, matched case-insensitively.
var DefaultTextColumns = []string{"comments", "comment", "review", "text"}

// SchemaError reports a dataset with no recognized text column.
type SchemaError struct {
	Recognized []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("no recognized text column; expected one of: %s", strings.Join(e.Recognized, ", "))
}

// Transformer cleans rows and attaches a sentiment label per row. It holds no
// mutable state, so one instance is safe across jobs.
type Transformer struct {
	TextColumns []string
}

func NewTransformer(textColumns []string) *Transformer {
	if len(textColumns) == 0 {
		textColumns = DefaultTextColumns
	}
	return &Transformer{TextColumns: textColumns}
}

// Transform drops rows whose every cell is blank, then classifies the text
// column of each surviving row and appends the label under SentimentColumn.
// The input dataset is left untouched. A classification failure shows up as
// the classifier's error label in that row only; the only error Transform
// itself returns is *SchemaError.
func (t *Transformer) Transform(ctx context.Context, ds *tabular.Dataset, clf classifier.Classifier) (*tabular.Dataset, error) {
	textCol := t.findTextColumn(ds.Headers)
	if textCol < 0 {
		return nil, &SchemaError{Recognized: t.TextColumns}
	}

	out := &tabular.Dataset{
		Headers: append([]string(nil), ds.Headers...),
	}
	for _, row := range ds.Rows {
		if rowIsEmpty(row) {
			continue
		}
		out.Rows = append(out.Rows, append([]string(nil), row...))
	}

	labels := make([]string, len(out.Rows))
	for i, row := range out.Rows {
		text := ""
		if textCol < len(row) {
			text = row[textCol]
		}
		labels[i] = string(clf.Classify(ctx, text))
	}
	out.AddColumn(SentimentColumn, labels)

	return out, nil
}

func (t *Transformer) findTextColumn(headers []string) int {
	for i, h := range headers {
		name := strings.ToLower(strings.TrimSpace(h))
		for _, candidate := range t.TextColumns {
			if name == strings.ToLower(candidate) {
				return i
			}
		}
	}
	return -1
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
