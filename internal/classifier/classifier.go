// Package classifier provides interchangeable sentiment classification
// strategies. A classifier never fails a batch: per-row problems surface as
// the LabelError sentinel value instead of an error return.
package classifier

import (
	"context"
	"strings"
)

type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
	LabelError    Label = "error"
)

type Classifier interface {
	Classify(ctx context.Context, text string) Label
}

// Blank input gets LabelNeutral from every strategy. The policy lives here so
// both strategies decide it identically before any strategy-specific work.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
