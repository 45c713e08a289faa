package mid

import (
	"context"
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/foundation/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Otel stores the tracer and trace id in the context, names the request span
// after the matched route and marks the span failed for error responses.
func Otel(tracer trace.Tracer) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			ctx = otel.InjectTracing(ctx, tracer)

			span := trace.SpanFromContext(ctx)
			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.Pattern),
			)

			resp := next(ctx, r)

			if appErr := errs.GetError(checkIsError(resp)); appErr != nil {
				span.SetAttributes(attribute.String("error.code", appErr.Code.String()))
				span.SetStatus(codes.Error, appErr.Message)
			}

			return resp
		}

		return h
	}

	return m
}
