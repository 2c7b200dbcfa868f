// Package reqctx carries per-request metadata through context.Context so
// that HTTP handlers and bot update handlers log with the same fields.
package reqctx
