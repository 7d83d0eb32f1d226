package goRealtime

import "context"

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyDeviceLabel
)

// WithRequestID pins the X-Request-ID the gateway attaches to outbound
// requests; without it a fresh UUID is generated per request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

func requestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKeyRequestID).(string)
	return id, ok && id != ""
}

// WithDeviceLabel attaches a device label the gateway forwards as the
// X-Device-Label header, so the backend can tell a user's sessions apart.
func WithDeviceLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, ctxKeyDeviceLabel, label)
}

func deviceLabelFrom(ctx context.Context) (string, bool) {
	label, ok := ctx.Value(ctxKeyDeviceLabel).(string)
	return label, ok && label != ""
}
