package llm

import "context"

type contextKey string

const (
	purposeKey    contextKey = "llm_purpose"
	analysisIDKey contextKey = "llm_analysis_id"
)

// Purposes used by the analysis stages.
const (
	PurposeTopicExtraction = "topic-extraction"
	PurposeClassification  = "question-classification"
	PurposeTopicMatching   = "topic-matching"
	PurposePing            = "ping"
)

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

// WithAnalysisID tags every call made under ctx with the analysis it
// belongs to.
func WithAnalysisID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, analysisIDKey, id)
}

// AnalysisIDFrom returns the analysis ID on ctx, or "".
func AnalysisIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(analysisIDKey).(string)
	return v
}
