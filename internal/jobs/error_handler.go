package jobs

import (
	"context"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/pkg/logger"
)

// ErrorHandler logs failed and panicking jobs. River's retry schedule is
// left unchanged.
type ErrorHandler struct{}

var _ river.ErrorHandler = ErrorHandler{}

func (ErrorHandler) HandleError(_ context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	logger.Warn("job attempt failed", append(jobFields(job), zap.Error(err))...)
	return nil
}

func (ErrorHandler) HandlePanic(_ context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	logger.Error("job panicked", append(jobFields(job),
		zap.Any("panic", panicVal),
		zap.String("trace", trace),
	)...)
	return nil
}

func jobFields(job *rivertype.JobRow) []zap.Field {
	return []zap.Field{
		zap.Int64("job_id", job.ID),
		zap.String("kind", job.Kind),
		zap.String("queue", job.Queue),
		zap.Int("attempt", job.Attempt),
		zap.Int("max_attempts", job.MaxAttempts),
	}
}
