package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"bnshell/internal/domain"
	"bnshell/internal/engine"
)

// maxResponseBytes bounds a single engine response.
var maxResponseBytes int64 = 16 << 20

// Options configures a Client.
type Options struct {
	// Endpoint is the base URL of the engine context, e.g. "http://bn.example.org:8099".
	Endpoint string

	// Timeout bounds each call. Zero means 30s.
	Timeout time.Duration

	// RegistryHost and RegistryPort are assumed for names that carry no host or port.
	RegistryHost string
	RegistryPort int

	// Tunnel, when set, carries every connection through an SSH connection.
	Tunnel *TunnelConfig

	// HTTPClient overrides the HTTP client. Tunnel is ignored when it is set.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client is a connection to one remote engine context. It implements engine.Context.
type Client struct {
	endpoint     string
	http         *http.Client
	tunnel       *Tunnel
	registryHost string
	registryPort int
	log          *slog.Logger

	reqID  atomic.Int64
	closed atomic.Bool

	mu   sync.Mutex
	refs map[string]*Network
}

var _ engine.Context = (*Client)(nil)

// Dial connects to the engine context described by opts and checks that it answers.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	c, err := New(ctx, opts)
	if err != nil {
		return nil, err
	}
	var name TextResult
	if err := c.call(ctx, methodContextName, nil, &name); err != nil {
		c.Close()
		return nil, fmt.Errorf("contact engine context %s: %w", c.endpoint, err)
	}
	c.log.Info("connected to engine context", "endpoint", c.endpoint, "context", name.Text)
	return c, nil
}

// New builds a Client without contacting the context.
func New(ctx context.Context, opts Options) (*Client, error) {
	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("engine endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Client{
		endpoint:     endpoint,
		registryHost: opts.RegistryHost,
		registryPort: opts.RegistryPort,
		log:          opts.Logger,
		refs:         make(map[string]*Network),
	}

	switch {
	case opts.HTTPClient != nil:
		c.http = opts.HTTPClient
	case opts.Tunnel != nil:
		tunnel, err := OpenTunnel(ctx, *opts.Tunnel)
		if err != nil {
			return nil, fmt.Errorf("open ssh tunnel: %w", err)
		}
		c.tunnel = tunnel
		c.http = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					return tunnel.DialContext(ctx, network, addr)
				},
			},
		}
	default:
		c.http = &http.Client{Timeout: opts.Timeout}
	}

	return c, nil
}

// Name returns the context endpoint.
func (c *Client) Name() string {
	return c.endpoint
}

// Parse hands a network description to the engine parser.
func (c *Client) Parse(ctx context.Context, description string) (engine.Network, error) {
	var res ReferenceResult
	if err := c.call(ctx, methodContextParse, ParseParams{Description: description}, &res); err != nil {
		return nil, fmt.Errorf("parse network description: %w", err)
	}
	if res.Network == "" {
		return nil, fmt.Errorf("parse network description: %w: engine returned no network name", domain.ErrParseFailure)
	}
	return c.network(res.Network), nil
}

// Lookup resolves a network name. References already resolved are pinged before reuse
// and dropped when they no longer answer.
func (c *Client) Lookup(ctx context.Context, name string) (engine.Network, error) {
	info, err := domain.ParseNetworkName(name, c.registryHost, c.registryPort)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteLookupFailure, err)
	}
	key := info.NetworkKey()

	c.mu.Lock()
	cached := c.refs[key]
	c.mu.Unlock()

	if cached != nil {
		_, pingErr := cached.Name(ctx)
		if pingErr == nil {
			return cached, nil
		}
		c.log.Warn("dropping stale network reference", "name", key, "error", pingErr)
		c.mu.Lock()
		delete(c.refs, key)
		c.mu.Unlock()
	}

	var res ReferenceResult
	params := ReferenceParams{Host: info.Host, Port: info.Port, Network: info.Network}
	if err := c.call(ctx, methodContextReference, params, &res); err != nil {
		if errors.Is(err, domain.ErrRemoteLookupFailure) {
			return nil, fmt.Errorf("lookup %s: %w", key, err)
		}
		return nil, fmt.Errorf("lookup %s: %w: %w", key, domain.ErrRemoteLookupFailure, err)
	}
	if res.Network == "" {
		return nil, fmt.Errorf("lookup %s: %w: engine returned no network", key, domain.ErrRemoteLookupFailure)
	}

	n := c.network(res.Network)
	c.mu.Lock()
	c.refs[key] = n
	c.mu.Unlock()
	c.log.Debug("resolved network reference", "name", key, "network", res.Network, "fullname", res.Fullname)
	return n, nil
}

// List returns the names bound in the naming service at host:port.
func (c *Client) List(ctx context.Context, host string, port int) ([]string, error) {
	if host == "" {
		host = c.registryHost
	}
	if port == 0 {
		port = c.registryPort
	}
	var res ListResult
	if err := c.call(ctx, methodContextList, ListParams{Host: host, Port: port}, &res); err != nil {
		return nil, fmt.Errorf("list naming service: %w", err)
	}
	return res.Networks, nil
}

// Exit asks the remote context process to exit. The client is closed afterwards.
func (c *Client) Exit(ctx context.Context) error {
	err := c.call(ctx, methodContextExit, nil, nil)
	c.Close()
	if err != nil {
		return fmt.Errorf("exit engine context: %w", err)
	}
	return nil
}

// Close releases idle connections and the SSH tunnel. It is safe to call more than once.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.http.CloseIdleConnections()
	var err error
	if c.tunnel != nil {
		err = c.tunnel.Close()
	}
	c.log.Debug("engine context closed", "endpoint", c.endpoint)
	return err
}

func (c *Client) network(name string) *Network {
	return &Network{client: c, name: name}
}

// call performs one request/response exchange and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	if c.closed.Load() {
		return domain.ErrContextClosed
	}

	id := c.reqID.Add(1)
	body, err := encodeRequest(id, method, params)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/rpc", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}
	if int64(len(data)) > maxResponseBytes {
		return fmt.Errorf("%s: response too large (over %d bytes)", method, maxResponseBytes)
	}
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: engine returned HTTP %d", method, httpResp.StatusCode)
	}

	resp, err := decodeResponse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if resp.ID != id {
		return fmt.Errorf("%s: response id %d does not match request id %d", method, resp.ID, id)
	}
	c.log.Debug("engine call", "method", method, "id", id, "duration", time.Since(start))

	if resp.Error != nil {
		return resp.Error
	}
	if out != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}
