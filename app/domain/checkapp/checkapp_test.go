package checkapp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

func TestReadiness(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "TEST", nil)
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks []check
		status int
	}{
		{name: "all-up", checks: []check{{"postgres", ok}, {"mongo", ok}}, status: http.StatusOK},
		{name: "mongo-down", checks: []check{{"postgres", ok}, {"mongo", down}}, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newApp("test", log, tt.checks)
			r := httptest.NewRequest(http.MethodGet, "/v1/readiness", nil)

			resp := api.readiness(context.Background(), r)

			status := http.StatusOK
			if e, isErr := resp.(*errs.Error); isErr {
				status = e.HTTPStatus()
			}

			if status != tt.status {
				t.Errorf("got %d want %d", status, tt.status)
			}
		})
	}
}

func TestLiveness(t *testing.T) {
	api := newApp("1.0.0", logger.New(io.Discard, logger.LevelError, "TEST", nil), nil)

	info, ok := api.liveness(context.Background(), httptest.NewRequest(http.MethodGet, "/v1/liveness", nil)).(Info)
	if !ok {
		t.Fatal("liveness did not return Info")
	}

	if info.Status != "up" || info.Build != "1.0.0" || info.GOMAXPROCS == 0 {
		t.Errorf("unexpected info: %+v", info)
	}
}
