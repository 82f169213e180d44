// Package chain provides read-only contract access over JSON-RPC for the
// price feed's two upstream sources.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// Caller executes a single eth_call against a contract and returns the
// unpacked outputs. A nil block number queries the latest state.
type Caller interface {
	Call(ctx context.Context, addr common.Address, blk *big.Int, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error)
}

// Client is the ethclient-backed Caller used in production. Transport-level
// retries are handled below eth_call; a call that still fails after retries
// surfaces its error unchanged to the caller.
type Client struct {
	eth *ethclient.Client
}

// Dial connects to an Ethereum JSON-RPC endpoint using a retrying HTTP
// transport.
func Dial(ctx context.Context, rawurl string) (*Client, error) {
	rpcClient, err := rpc.DialOptions(ctx, rawurl, rpc.WithHTTPClient(newRetryClient()))
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc %s: %w", rawurl, err)
	}

	logrus.Debugf("Connected to RPC endpoint %s", rawurl)
	return &Client{eth: ethclient.NewClient(rpcClient)}, nil
}

// NewClient wraps an existing ethclient connection.
func NewClient(eth *ethclient.Client) *Client {
	return &Client{eth: eth}
}

// Call packs the method call, executes it as a read-only eth_call and unpacks
// the result.
func (c *Client) Call(ctx context.Context, addr common.Address, blk *big.Int, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"method": method,
			"err":    err,
		}).Error("abi pack failed")
		return nil, fmt.Errorf("abi pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}

	res, err := c.eth.CallContract(ctx, msg, blk)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"method":  method,
			"address": addr.Hex(),
			"err":     err,
		}).Error("contract call failed")
		return nil, err
	}

	unpacked, err := contractABI.Unpack(method, res)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"method": method,
			"err":    err,
		}).Error("abi unpack failed")
		return nil, fmt.Errorf("abi unpack %s: %w", method, err)
	}

	return unpacked, nil
}

// newRetryClient creates an HTTP client with retry capabilities for the RPC
// transport.
func newRetryClient() *http.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.Logger = nil
	return c.StandardClient()
}
