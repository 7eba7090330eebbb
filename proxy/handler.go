package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"claude-gateway/adapters"
	"claude-gateway/circuitbreaker"
	"claude-gateway/config"
	"claude-gateway/directive"
	"claude-gateway/gatewayerr"
	"claude-gateway/internal/logging"
	"claude-gateway/types"
)

// Handler wires directive extraction, the adapter pipeline, request/response
// conversion, and upstream dispatch into the gateway's HTTP surface.
type Handler struct {
	cfg      *config.Config
	pipeline *adapters.Pipeline
	upstream *Upstream
}

// NewHandler builds a Handler. gate is shared across requests so repeated
// upstream failures trip the circuit for everyone, not just the request
// that observed them.
func NewHandler(cfg *config.Config, pipeline *adapters.Pipeline, gate *circuitbreaker.Gate) *Handler {
	return &Handler{
		cfg:      cfg,
		pipeline: pipeline,
		upstream: NewUpstream(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ConnectionTimeout, cfg.IdleConnectionTimeout, gate),
	}
}

// Routes mounts the gateway's endpoints onto mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/messages", h.HandleMessages)
	mux.HandleFunc("/v1/messages/count_tokens", h.HandleCountTokens)
}

// HandleMessages implements POST /v1/messages: the full B -> C -> D ->
// upstream -> (E | F) pipeline.
func (h *Handler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := withRequestID(r.Context())
	log := logging.New(ctx).WithComponent("handler")

	anthropicReq, directiveResult, parsed, err := h.prepare(r, log)
	if err != nil {
		h.writeError(w, log, err)
		return
	}

	outcome := h.pipeline.Apply(anthropicReq, parsed, directiveResult.Directive)

	if outcome.UseResponsesAPI {
		h.handleResponsesAPI(w, ctx, anthropicReq, parsed, log)
		return
	}

	openaiReq, err := ConvertRequest(anthropicReq, FlattenSystemText(anthropicReq.System), parsed.UpstreamModel)
	if err != nil {
		h.writeError(w, log, err)
		return
	}

	apiKeyOverride := r.Header.Get("x-api-key")

	if anthropicReq.Stream {
		h.streamResponse(w, ctx, openaiReq, parsed, outcome.SimulatedTools, apiKeyOverride, log)
		return
	}

	resp, err := h.upstream.Dispatch(ctx, openaiReq, apiKeyOverride, log)
	if err != nil {
		h.writeError(w, log, err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.writeError(w, log, gatewayerr.Wrap(gatewayerr.UpstreamProtocol, "failed to read upstream response", err))
		return
	}
	var openaiResp types.OpenAIResponse
	if err := json.Unmarshal(body, &openaiResp); err != nil {
		h.writeError(w, log, gatewayerr.Wrap(gatewayerr.UpstreamProtocol, "malformed upstream response", err))
		return
	}

	anthropicResp := ConvertResponse(&openaiResp, parsed.ClientModel, outcome.SimulatedTools)
	h.writeJSON(w, http.StatusOK, anthropicResp)
}

// streamResponse dispatches upstream and hands the SSE body to the stream
// translator. Any upstream failure that happens after the SSE headers are
// committed is folded into the stream itself (a terminal error event, then
// a clean close) rather than an HTTP error response, since the status line
// can no longer change.
func (h *Handler) streamResponse(w http.ResponseWriter, ctx context.Context, openaiReq *types.OpenAIRequest, parsed types.ParsedModel, simulatedTools, apiKeyOverride string, log logging.Logger) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, log, gatewayerr.New(gatewayerr.Internal, "response writer does not support streaming"))
		return
	}

	resp, err := h.upstream.Dispatch(ctx, openaiReq, apiKeyOverride, log)
	if err != nil {
		h.writeError(w, log, err)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if err := TranslateStream(w, flusher, resp.Body, parsed.ClientModel, simulatedTools, log); err != nil {
		log.Error("stream translation ended with error: %v", err)
	}
}

// handleResponsesAPI forwards a directive-opted-in request to the upstream's
// /v1/responses endpoint instead of /chat/completions. Only the
// non-streaming shape is implemented; a streaming request routed here falls
// back to a non-streaming upstream call and returns its single JSON result,
// since this path exists for directive-driven experimentation rather than
// the gateway's primary contract.
func (h *Handler) handleResponsesAPI(w http.ResponseWriter, ctx context.Context, req *types.AnthropicRequest, parsed types.ParsedModel, log logging.Logger) {
	openaiReq, err := ConvertRequest(req, FlattenSystemText(req.System), parsed.UpstreamModel)
	if err != nil {
		h.writeError(w, log, err)
		return
	}
	openaiReq.Stream = false

	respBody, err := h.upstream.DispatchResponses(ctx, openaiReq, log)
	if err != nil {
		h.writeError(w, log, err)
		return
	}

	anthropicResp := ConvertResponsesOutput(respBody, parsed.ClientModel)
	h.writeJSON(w, http.StatusOK, anthropicResp)
}

// HandleCountTokens implements POST /v1/messages/count_tokens: it runs the
// same request converter used by the real path (so malformed content blocks
// or dangling tool_result references fail exactly as they would for a real
// call) and returns a byte-length heuristic estimate rather than an exact
// count, since no model call is made.
func (h *Handler) HandleCountTokens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := withRequestID(r.Context())
	log := logging.New(ctx).WithComponent("count_tokens")

	anthropicReq, _, parsed, err := h.prepare(r, log)
	if err != nil {
		h.writeError(w, log, err)
		return
	}

	openaiReq, err := ConvertRequest(anthropicReq, FlattenSystemText(anthropicReq.System), parsed.UpstreamModel)
	if err != nil {
		h.writeError(w, log, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int{"input_tokens": EstimateTokens(openaiReq)})
}

func (h *Handler) writeError(w http.ResponseWriter, log logging.Logger, err error) {
	status, envelope := gatewayerr.Envelope(err)
	log.Error("request failed: %v", err)
	h.writeJSON(w, status, envelope)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// prepare reads and parses the inbound request body, extracts any embedded
// directive from the system prompt, and splits the model suffix, all of
// which both HandleMessages and HandleCountTokens need identically.
func (h *Handler) prepare(r *http.Request, log logging.Logger) (*types.AnthropicRequest, directive.Result, types.ParsedModel, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, directive.Result{}, types.ParsedModel{}, gatewayerr.Wrap(gatewayerr.ClientSchema, "failed to read request body", err)
	}
	defer r.Body.Close()

	var req types.AnthropicRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, directive.Result{}, types.ParsedModel{}, gatewayerr.Wrap(gatewayerr.ClientSchema, "invalid request JSON", err)
	}

	systemText := FlattenSystemText(req.System)
	result, err := directive.Extract(systemText)
	if err != nil {
		return nil, directive.Result{}, types.ParsedModel{}, err
	}
	// Replace req.System with the directive-stripped text so the adapter
	// pipeline (which rewrites req.System in place) never sees, and can
	// never accidentally re-introduce, the delimited directive block.
	req.System = result.System

	parsed := types.ParseModel(req.Model)
	if h.cfg.HaikuModel != "" && strings.Contains(strings.ToLower(parsed.UpstreamModel), "haiku") {
		parsed.UpstreamModel = h.cfg.HaikuModel
	}
	req.Model = parsed.UpstreamModel

	log.Debug("parsed request: model=%s tools=%d stream=%v", parsed.ClientModel, len(req.Tools), req.Stream)
	return &req, result, parsed, nil
}
