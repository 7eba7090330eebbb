package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"claude-gateway/circuitbreaker"
	"claude-gateway/gatewayerr"
	"claude-gateway/internal/logging"
	"claude-gateway/internal/metrics"
	"claude-gateway/types"
)

// Upstream dispatches converted requests to the configured
// OpenAI-compatible endpoint, applying the pre-first-byte retry gate before
// any response byte is visible to the client.
type Upstream struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	gate       *circuitbreaker.Gate
}

// NewUpstream builds an Upstream client. connectTimeout bounds dial+TLS
// handshake; idleTimeout bounds how long a kept-alive connection idles.
func NewUpstream(baseURL, apiKey string, connectTimeout, idleTimeout time.Duration, gate *circuitbreaker.Gate) *Upstream {
	return &Upstream{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext:     (&net.Dialer{Timeout: connectTimeout}).DialContext,
				IdleConnTimeout: idleTimeout,
			},
		},
		gate: gate,
	}
}

// Dispatch sends req to the upstream's /chat/completions endpoint, retrying
// a failed dial up to the gate's MaxAttempts times as long as the gate allows
// it. A non-200 reply is returned as an UpstreamProtocol error without a
// retry. apiKeyOverride,
// when non-empty, is the client's own x-api-key and takes precedence over the
// configured upstream key (pass-through credentials).
func (u *Upstream) Dispatch(ctx context.Context, req *types.OpenAIRequest, apiKeyOverride string, log logging.Logger) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.Internal, "failed to marshal upstream request", err)
	}

	key := u.apiKey
	if apiKeyOverride != "" {
		key = apiKeyOverride
	}

	var lastErr error
	attempts := u.gate.MaxAttempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		if !u.gate.Allow() {
			return nil, gatewayerr.Wrap(gatewayerr.UpstreamTransport, "upstream circuit is open", lastErr)
		}

		start := time.Now()
		resp, err := u.attempt(ctx, "/chat/completions", body, key)
		if err == nil {
			metrics.ObserveUpstreamLatency(start)
			u.gate.RecordSuccess()
			return resp, nil
		}

		lastErr = err
		if _, answered := err.(*gatewayerr.Error); answered {
			// The upstream replied with a non-200 status: not a failed dial,
			// so it is neither retried nor counted against the gate.
			return nil, err
		}
		u.gate.RecordFailure()
		if attempt < attempts {
			metrics.UpstreamRetries.Inc()
			log.Warn("upstream attempt %d/%d failed, retrying: %v", attempt, attempts, err)
		}
	}
	return nil, gatewayerr.Wrap(gatewayerr.UpstreamTransport, "upstream request failed", lastErr)
}

// DispatchResponses sends req to the upstream's /responses endpoint (the
// OpenAI Responses API shape) and returns the raw JSON body of a successful
// reply. Unlike Dispatch, this path is not retried pre-first-byte: it backs
// the directive-opted-in experimental path, not the gateway's primary
// contract, so it trades the retry gate's resilience for simplicity.
func (u *Upstream) DispatchResponses(ctx context.Context, req *types.OpenAIRequest, log logging.Logger) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.Internal, "failed to marshal responses request", err)
	}

	resp, err := u.attempt(ctx, "/responses", body, u.apiKey)
	if err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.UpstreamTransport, "responses request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.UpstreamProtocol, "failed to read responses body", err)
	}
	return respBody, nil
}

func (u *Upstream) attempt(ctx context.Context, path string, body []byte, apiKey string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := u.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(resp.Body)
		var parsed types.OpenAIErrorResponse
		if jsonErr := json.Unmarshal(errBody, &parsed); jsonErr == nil && parsed.Error.Message != "" {
			return nil, gatewayerr.New(gatewayerr.UpstreamProtocol, fmt.Sprintf("upstream status %d: %s", resp.StatusCode, parsed.Error.Message))
		}
		return nil, gatewayerr.New(gatewayerr.UpstreamProtocol, fmt.Sprintf("upstream status %d: %s", resp.StatusCode, string(errBody)))
	}
	return resp, nil
}
