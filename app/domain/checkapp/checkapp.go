// Package checkapp maintains the app layer api for the check domain.
package checkapp

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

type check struct {
	name string
	fn   func(ctx context.Context) error
}

type app struct {
	build  string
	log    *logger.Logger
	checks []check
}

func newApp(build string, log *logger.Logger, checks []check) *app {
	return &app{
		build:  build,
		log:    log,
		checks: checks,
	}
}

// readiness checks if the backing stores are ready and if not will return
// a 500 status. Do not respond by just returning an error because further up
// in the call stack it will interpret that as a non-trusted error.
func (a *app) readiness(ctx context.Context, r *http.Request) web.Encoder {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	for _, c := range a.checks {
		if err := c.fn(ctx); err != nil {
			a.log.Info(ctx, "readiness failure", "store", c.name, "ERROR", err)
			return errs.Errorf(errs.Internal, "%s not ready", c.name)
		}
	}

	return Info{Status: "ok"}
}

// liveness returns simple status info if the service is alive. If the
// app is deployed to a Kubernetes cluster, it will also return pod, node, and
// namespace details via the Downward API. The Kubernetes environment variables
// need to be set within your Pod/Deployment manifest.
func (a *app) liveness(ctx context.Context, r *http.Request) web.Encoder {
	host, err := os.Hostname()
	if err != nil {
		host = "unavailable"
	}

	info := Info{
		Status:     "up",
		Build:      a.build,
		Host:       host,
		Name:       os.Getenv("KUBERNETES_NAME"),
		PodIP:      os.Getenv("KUBERNETES_POD_IP"),
		Node:       os.Getenv("KUBERNETES_NODE_NAME"),
		Namespace:  os.Getenv("KUBERNETES_NAMESPACE"),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
	}

	return info
}
