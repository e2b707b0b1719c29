package core

import "context"

type contextKey string

const (
	ctxKeyAccount   contextKey = "account"
	ctxKeyIPAddress contextKey = "client_ip"
)

// ContextWithAccount scopes balance and history calls to an account. The
// web layer sets it from the API key; without it the configured default
// account is used.
func ContextWithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, ctxKeyAccount, account)
}

// ContextWithIPAddress records the caller's address for log lines.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// AccountFromContext returns the account set by ContextWithAccount.
func AccountFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyAccount).(string); ok {
		return v
	}
	return ""
}

// IPAddressFromContext returns the address set by ContextWithIPAddress.
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}
