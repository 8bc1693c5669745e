//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package fabric is a small client for the analytics platform REST API,
// covering what the lab provisions: workspaces, lakehouses, warehouses and
// eventstreams. Requests go through an azcore pipeline authorized with an
// azidentity credential.
package fabric

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/rs/zerolog"

	"github.com/fourthcoffee/fc-commerce/internal/config"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
	"github.com/fourthcoffee/fc-commerce/pkg/version"
)

// Scope is the OAuth scope requested for API tokens.
const Scope = "https://api.fabric.microsoft.com/.default"

var (
	// ErrLROStatus reports that a long-running operation could not be
	// followed to completion. The resource may exist anyway.
	ErrLROStatus = errors.New("Failure getting LRO status")

	// ErrNotFound is returned when a named resource does not exist.
	ErrNotFound = errors.New("not found")
)

// OperationError is the error body of a failed or cancelled operation.
type OperationError struct {
	Status    string `json:"-"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func (e *OperationError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("operation %s: %s: %s", e.Status, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("operation %s: %s", e.Status, e.Message)
}

// Client calls the REST API through an azcore pipeline.
type Client struct {
	baseURL      string
	pl           runtime.Pipeline
	pollInterval time.Duration
	pollTimeout  time.Duration
	log          zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*policy.ClientOptions)

// WithClientOptions replaces the pipeline options, e.g. transport or retry
// settings.
func WithClientOptions(o policy.ClientOptions) ClientOption {
	return func(dst *policy.ClientOptions) {
		*dst = o
	}
}

// staticToken serves a pre-issued access token.
type staticToken string

func (s staticToken) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: string(s), ExpiresOn: time.Now().Add(time.Hour)}, nil
}

// NewCredential returns the credential used to authorize requests: the
// configured token when one is set, otherwise the identity logged in to the
// Azure CLI.
func NewCredential(cfg config.FabricConfig) (azcore.TokenCredential, error) {
	if cfg.Token != "" {
		return staticToken(cfg.Token), nil
	}
	cred, err := azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
		TenantID: cfg.TenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure CLI credential: %w", err)
	}
	return cred, nil
}

// NewClient creates a client from configuration.
func NewClient(cfg config.FabricConfig, cred azcore.TokenCredential, opts ...ClientOption) *Client {
	co := policy.ClientOptions{}
	for _, opt := range opts {
		opt(&co)
	}
	co.Telemetry.ApplicationID = "fc-commerce"

	auth := runtime.NewBearerTokenPolicy(cred, []string{Scope}, &policy.BearerTokenOptions{
		InsecureAllowCredentialWithHTTP: co.InsecureAllowCredentialWithHTTP,
	})
	pl := runtime.NewPipeline("fabric", version.Version, runtime.PipelineOptions{
		PerRetry: []policy.Policy{auth},
	}, &co)

	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		pl:           pl,
		pollInterval: cfg.PollInterval,
		pollTimeout:  cfg.PollTimeout,
		log:          logging.Component("fabric"),
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 5 * time.Second
	}
	if c.pollTimeout <= 0 {
		c.pollTimeout = 10 * time.Minute
	}
	return c
}

func (c *Client) send(ctx context.Context, method, target string, body any) (*http.Response, error) {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + target
	}
	req, err := runtime.NewRequest(ctx, method, target)
	if err != nil {
		return nil, err
	}
	req.Raw().Header.Set("Accept", "application/json")
	if body != nil {
		if err := runtime.MarshalAsJSON(req, body); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}
	resp, err := c.pl.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	return resp, nil
}

// do sends a request and decodes a 200/201 body into out. A 202 is
// followed as a long-running operation.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return decode(resp, out)
	case http.StatusAccepted:
		return c.waitForOperation(ctx, resp, out)
	case http.StatusNoContent:
		return nil
	default:
		return responseError(resp)
	}
}

func decode(resp *http.Response, out any) error {
	if out == nil {
		runtime.Drain(resp)
		return nil
	}
	if err := runtime.UnmarshalAsJSON(resp, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// responseError builds an *azcore.ResponseError, taking the error code from
// the errorCode field of the body.
func responseError(resp *http.Response) error {
	var body struct {
		ErrorCode string `json:"errorCode"`
	}
	if data, err := runtime.Payload(resp); err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &body)
	}
	return runtime.NewResponseErrorWithErrorCode(resp, body.ErrorCode)
}

// waitForOperation polls the Location of an accepted request until it
// reaches a terminal state, then fetches the result into out. Anything
// other than a reported operation failure is wrapped in ErrLROStatus.
func (c *Client) waitForOperation(ctx context.Context, accepted *http.Response, out any) error {
	location := accepted.Header.Get("Location")
	if location == "" {
		if id := accepted.Header.Get("x-ms-operation-id"); id != "" {
			location = c.baseURL + "/operations/" + url.PathEscape(id)
		}
	}
	if location == "" {
		return fmt.Errorf("%w: accepted response without an operation location", ErrLROStatus)
	}

	poller, err := runtime.NewPoller(accepted, c.pl, &runtime.NewPollerOptions[json.RawMessage]{
		Handler: &operationHandler{client: c, location: location, wantResult: out != nil},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLROStatus, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	raw, err := poller.PollUntilDone(ctx, &runtime.PollUntilDoneOptions{Frequency: c.pollInterval})
	if err != nil {
		var opErr *OperationError
		if errors.As(err, &opErr) || errors.Is(err, ErrLROStatus) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrLROStatus, err)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode operation result: %w", err)
	}
	return nil
}

type operationState struct {
	Status string          `json:"status"`
	Error  *OperationError `json:"error,omitempty"`
}

// operationHandler follows an operation's Location: status is polled until
// terminal, and a successful operation's body is read from <location>/result.
type operationHandler struct {
	client     *Client
	location   string
	wantResult bool
	state      operationState
}

func (h *operationHandler) Done() bool {
	switch strings.ToLower(h.state.Status) {
	case "succeeded", "failed", "cancelled", "canceled":
		return true
	}
	return false
}

func (h *operationHandler) Poll(ctx context.Context) (*http.Response, error) {
	resp, err := h.client.send(ctx, http.MethodGet, h.location, nil)
	if err != nil {
		return nil, err
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return nil, responseError(resp)
	}
	var state operationState
	if err := runtime.UnmarshalAsJSON(resp, &state); err != nil {
		return nil, fmt.Errorf("failed to decode operation state: %w", err)
	}
	h.state = state
	h.client.log.Debug().Str("status", state.Status).Str("operation", h.location).Msg("Polled operation")
	return resp, nil
}

func (h *operationHandler) Result(ctx context.Context, out *json.RawMessage) error {
	status := strings.ToLower(h.state.Status)
	if status != "succeeded" {
		opErr := h.state.Error
		if opErr == nil {
			opErr = &OperationError{}
		}
		opErr.Status = status
		return opErr
	}
	if !h.wantResult {
		return nil
	}

	target := strings.TrimRight(h.location, "/") + "/result"
	resp, err := h.client.send(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLROStatus, err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return fmt.Errorf("%w: %v", ErrLROStatus, responseError(resp))
	}
	data, err := runtime.Payload(resp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLROStatus, err)
	}
	*out = json.RawMessage(data)
	return nil
}

type page[T any] struct {
	Value           []T    `json:"value"`
	ContinuationURI string `json:"continuationUri"`
}

// list follows continuation links until every page is read.
func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	pager := runtime.NewPager(runtime.PagingHandler[page[T]]{
		More: func(p page[T]) bool {
			return p.ContinuationURI != ""
		},
		Fetcher: func(ctx context.Context, cur *page[T]) (page[T], error) {
			next := path
			if cur != nil {
				next = cur.ContinuationURI
			}
			var p page[T]
			err := c.do(ctx, http.MethodGet, next, nil, &p)
			return p, err
		},
	})

	var all []T
	for pager.More() {
		p, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Value...)
	}
	return all, nil
}
