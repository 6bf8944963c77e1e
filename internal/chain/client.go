package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// Options tune the RPC client.
type Options struct {
	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64
	// Burst is the limiter bucket size.
	Burst int
}

// Client wraps go-ethereum RPC and is the log source of the watcher.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	limiter   *rate.Limiter
}

// NewClient creates a new chain client from the RPC URL. Both HTTP and
// WebSocket endpoints are accepted.
func NewClient(ctx context.Context, rpcURL string, opts Options) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		limiter:   newLimiter(opts),
	}, nil
}

func newLimiter(opts Options) *rate.Limiter {
	if opts.RateLimit <= 0 {
		return nil
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	return c.ethClient.BlockNumber(ctx)
}

// FilterLogs returns the logs emitted by address with the given signature
// topic from fromBlock up to the latest block. One topic per call keeps the
// filter within provider topic limits.
func (c *Client) FilterLogs(ctx context.Context, address common.Address, topic0 common.Hash, fromBlock uint64) ([]types.Log, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.ethClient.FilterLogs(ctx, FilterQuery(address, topic0, fromBlock))
}

// FilterQuery builds the eth_getLogs query for one event signature with an
// open-ended upper bound.
func FilterQuery(address common.Address, topic0 common.Hash, fromBlock uint64) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   nil,
		Addresses: []common.Address{address},
		Topics:    [][]common.Hash{{topic0}},
	}
}
