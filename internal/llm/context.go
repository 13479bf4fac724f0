package llm

import "context"

type contextKey string

const (
	purposeKey contextKey = "llm_purpose"
	taskKey    contextKey = "llm_task_id"
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

// WithTaskID attaches the generation task id so request events can be
// correlated with pipeline activity.
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, taskKey, taskID)
}

// TaskIDFrom extracts the task id from the context, or "".
func TaskIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(taskKey).(string)
	return v
}
