package client

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"staking_hub/internal/pkg/metrics"
)

// doRequest executes req honouring the context deadline, falling back to timeout.
func doRequest(ctx context.Context, c *fasthttp.Client, upstream, endpoint string, req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.DoDeadline(req, resp, deadline)
	} else {
		err = c.DoTimeout(req, resp, timeout)
	}
	status := metrics.Status(err)
	if err == nil && resp.StatusCode() >= fasthttp.StatusBadRequest {
		status = "error"
	}
	metrics.UpstreamRequests.WithLabelValues(upstream, endpoint, status).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", upstream, err)
	}
	return nil
}

// truncate shortens upstream bodies quoted in errors.
func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
