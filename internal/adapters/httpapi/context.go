package httpapi

import (
	"context"

	"github.com/tanc-norcal/membership-api/internal/domain"
)

type subjectKey struct{}

func WithSubject(ctx context.Context, subject domain.SubjectID) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

func SubjectFromContext(ctx context.Context) (domain.SubjectID, bool) {
	v, ok := ctx.Value(subjectKey{}).(domain.SubjectID)
	return v, ok && v != ""
}
