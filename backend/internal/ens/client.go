// Package ens performs naming-service reverse lookups over Ethereum JSON-RPC.
//
// A lookup follows the registry: the reverse node of the address names a
// resolver, that resolver's name record yields the primary name, and the name
// is accepted only if its forward address record points back at the address.
package ens

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	goens "github.com/wealdtech/go-ens/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"vouch-graph/backend/internal/metrics"
	apperrors "vouch-graph/backend/pkg/errors"
	"vouch-graph/backend/pkg/logger"
)

// MainnetRegistry is the ENS registry address on mainnet
const MainnetRegistry = "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"

// Client resolves primary names through an ENS registry
type Client struct {
	eth        *ethclient.Client
	registry   common.Address
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing requests per second
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient creates a client for rpcURL. An empty registry selects mainnet.
func NewClient(rpcURL, registry string, opts ...Option) (*Client, error) {
	if registry == "" {
		registry = MainnetRegistry
	}
	if !common.IsHexAddress(registry) {
		return nil, fmt.Errorf("invalid registry address %q", registry)
	}

	c := &Client{
		registry:   common.HexToAddress(registry),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     logger.Named("ens"),
	}
	for _, opt := range opts {
		opt(c)
	}

	rpcClient, err := rpc.DialOptions(context.Background(), rpcURL, rpc.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}
	c.eth = ethclient.NewClient(rpcClient)
	return c, nil
}

// Close releases the RPC connection
func (c *Client) Close() {
	c.eth.Close()
}

// LookupAddress returns the verified primary name of address, or "" when none
// is registered.
func (c *Client) LookupAddress(ctx context.Context, address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid address %q", address)
	}
	addr := common.HexToAddress(address)
	backend := &callBackend{Client: c.eth, ctx: ctx, limiter: c.limiter}

	registry, err := goens.NewRegistryAt(backend, c.registry)
	if err != nil {
		return "", providerError(err)
	}

	reverseResolver, err := registry.ResolverAddress(reverseName(addr))
	if err != nil {
		return "", providerError(err)
	}
	if reverseResolver == (common.Address{}) {
		return "", nil
	}
	reverse, err := goens.NewReverseResolverAt(backend, reverseResolver)
	if err != nil {
		return "", providerError(err)
	}
	name, err := reverse.Name(addr)
	if err != nil || name == "" {
		return "", providerError(err)
	}

	// Forward check: anyone can claim any name in their reverse record
	forwardResolver, err := registry.ResolverAddress(name)
	if err != nil {
		return "", providerError(err)
	}
	if forwardResolver == (common.Address{}) {
		return "", nil
	}
	resolver, err := goens.NewResolverAt(backend, name, forwardResolver)
	if err != nil {
		return "", providerError(err)
	}
	forward, err := resolver.Address()
	if err != nil {
		return "", providerError(err)
	}
	if forward != addr {
		c.logger.Debug("Reverse record not confirmed by forward record",
			zap.String("address", address),
			zap.String("name", name),
			zap.String("forward", forward.Hex()),
		)
		return "", nil
	}

	return name, nil
}

// reverseName is the name under which an address publishes its primary name
func reverseName(addr common.Address) string {
	return fmt.Sprintf("%x.addr.reverse", addr.Bytes())
}

// providerError maps JSON-RPC error objects onto the typed provider error.
// Transport and context errors pass through unchanged.
func providerError(err error) error {
	if err == nil {
		return nil
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return apperrors.NewProviderRPC(rpcErr.ErrorCode(), rpcErr.Error())
	}
	return err
}

// callBackend binds the contract calls of one lookup to the lookup's context,
// the client's rate limit and the request metrics. The contract bindings issue
// calls without a caller context, so the one passed in is replaced.
type callBackend struct {
	*ethclient.Client
	ctx     context.Context
	limiter *rate.Limiter
}

func (b *callBackend) CallContract(_ context.Context, call ethereum.CallMsg, block *big.Int) ([]byte, error) {
	if err := b.limiter.Wait(b.ctx); err != nil {
		return nil, err
	}
	out, err := b.Client.CallContract(b.ctx, call, block)
	metrics.RPCRequests.WithLabelValues(outcome(err)).Inc()
	return out, err
}

func (b *callBackend) CodeAt(_ context.Context, contract common.Address, block *big.Int) ([]byte, error) {
	if err := b.limiter.Wait(b.ctx); err != nil {
		return nil, err
	}
	out, err := b.Client.CodeAt(b.ctx, contract, block)
	metrics.RPCRequests.WithLabelValues(outcome(err)).Inc()
	return out, err
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return "rpc_error"
	}
	return "transport_error"
}
