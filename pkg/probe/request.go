package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/proxyvet/proxyvet/pkg/httpclient"
	"github.com/proxyvet/proxyvet/pkg/iohelper"
	"github.com/proxyvet/proxyvet/pkg/retry"
)

func (p *Prober) newClient(task Task) (*http.Client, error) {
	proxyCfg, err := httpclient.ParseProxyURL(string(task.Variant) + "://" + task.Proxy)
	if err != nil {
		return nil, err
	}
	return httpclient.New(httpclient.Config{
		Timeout:            task.Timeout,
		InsecureSkipVerify: p.skipTLS,
	}, proxyCfg)
}

// attempt performs one GET through the proxy and applies the canary-text
// gates. Content mismatches are wrapped in retry.Stop: the proxy answered,
// so retrying would just re-fetch the same block page.
func (p *Prober) attempt(ctx context.Context, client *http.Client, task Task) (Outcome, error) {
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.TargetURL, nil)
	if err != nil {
		return Outcome{}, retry.Stop(err)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return Outcome{}, err
	}
	defer iohelper.DrainAndClose(resp.Body)

	body, err := iohelper.ReadBody(resp.Body, p.maxBody)
	if err != nil {
		return Outcome{}, err
	}
	elapsed := time.Since(start)

	if task.TextPresent != "" && !strings.Contains(string(body), task.TextPresent) {
		return Outcome{}, retry.Stop(&contentMismatchError{
			reason: fmt.Sprintf("response missing required text %q", task.TextPresent),
		})
	}
	if task.TextAbsent != "" && strings.Contains(string(body), task.TextAbsent) {
		return Outcome{}, retry.Stop(&contentMismatchError{
			reason: fmt.Sprintf("response contains forbidden text %q", task.TextAbsent),
		})
	}

	return Outcome{Proxy: task.Proxy, Variant: task.Variant, Latency: elapsed}, nil
}
