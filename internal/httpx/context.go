package httpx

import (
	"context"
	"net/http"
)

type requestInfoKey struct{}

// requestInfo is shared by every middleware layer of one request, so outer
// layers (access log, recovery) see values set further in.
type requestInfo struct {
	id      string
	subject string
	role    string
}

func infoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

func withInfo(ctx context.Context) (context.Context, *requestInfo) {
	if info := infoFrom(ctx); info != nil {
		return ctx, info
	}
	info := &requestInfo{}
	return context.WithValue(ctx, requestInfoKey{}, info), info
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	ctx, info := withInfo(ctx)
	info.id = requestID
	return ctx
}

// ContextWithSubject records the authenticated operator and role.
func ContextWithSubject(ctx context.Context, subject, role string) context.Context {
	ctx, info := withInfo(ctx)
	info.subject, info.role = subject, role
	return ctx
}

func RequestIDFrom(r *http.Request) string {
	if info := infoFrom(r.Context()); info != nil {
		return info.id
	}
	return ""
}

// SubjectFrom is empty for anonymous requests.
func SubjectFrom(r *http.Request) string {
	if info := infoFrom(r.Context()); info != nil {
		return info.subject
	}
	return ""
}

func RoleFrom(r *http.Request) string {
	if info := infoFrom(r.Context()); info != nil {
		return info.role
	}
	return ""
}
