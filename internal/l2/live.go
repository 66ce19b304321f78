package l2

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	arbGasInfoAddress     = "0x000000000000000000000000000000000000006C"
	opGasOracleAddress    = "0x420000000000000000000000000000000000000F"
	arbGasInfoABIJSON     = `[{"inputs":[],"name":"getL1GasPriceEstimate","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`
	opGasOracleABIJSON    = `[{"inputs":[],"name":"l1BaseFee","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},{"inputs":[],"name":"overhead","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},{"inputs":[],"name":"scalar","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`
)

var (
	arbGasInfoABI  abi.ABI
	opGasOracleABI abi.ABI
)

func init() {
	parsed, err := abi.JSON(strings.NewReader(arbGasInfoABIJSON))
	if err != nil {
		panic("failed to parse ArbGasInfo ABI: " + err.Error())
	}
	arbGasInfoABI = parsed

	parsed, err = abi.JSON(strings.NewReader(opGasOracleABIJSON))
	if err != nil {
		panic("failed to parse GasPriceOracle ABI: " + err.Error())
	}
	opGasOracleABI = parsed
}

// LiveOptions parameterise the on-chain surcharge provider.
type LiveOptions struct {
	// Endpoints maps a network key to the RPC URL used for contract reads.
	Endpoints map[string]string
	CacheTTL  time.Duration
	Timeout   time.Duration
}

// Live reads rollup fee parameters from the chains' fee oracle contracts.
// Parameters are cached per network for a short TTL since they move slowly
// relative to the sampling interval.
type Live struct {
	opts   LiveOptions
	logger zerolog.Logger

	clientMux sync.Mutex
	clients   map[string]*ethclient.Client

	cacheMux sync.Mutex
	cache    map[string]cachedParams

	now func() time.Time
}

type cachedParams struct {
	params    feeParams
	fetchedAt time.Time
}

// NewLive constructs the live provider.
func NewLive(opts LiveOptions, logger zerolog.Logger) *Live {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Live{
		opts:    opts,
		logger:  logger.With().Str("component", "l2_provider").Logger(),
		clients: make(map[string]*ethclient.Client),
		cache:   make(map[string]cachedParams),
		now:     time.Now,
	}
}

// EstimateSurcharge estimates the L1 data fee and L2 gas price for a typical
// transaction on the given network.
func (l *Live) EstimateSurcharge(ctx context.Context, network string, profile TxProfile) (Surcharge, error) {
	k := networkKind(network)
	if k == kindUnknown {
		return Surcharge{}, fmt.Errorf("l2: unsupported network %q", network)
	}

	params, err := l.currentParams(ctx, network, k)
	if err != nil {
		return Surcharge{}, err
	}
	return estimate(k, params, profile)
}

func (l *Live) currentParams(ctx context.Context, network string, k kind) (feeParams, error) {
	l.cacheMux.Lock()
	cached, ok := l.cache[network]
	l.cacheMux.Unlock()
	if ok && l.now().Sub(cached.fetchedAt) < l.opts.CacheTTL {
		return cached.params, nil
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	client, err := l.getClient(ctx, network)
	if err != nil {
		return feeParams{}, err
	}

	var params feeParams
	switch k {
	case kindArbitrum:
		params, err = l.arbitrumParams(ctx, client)
	case kindOPStack:
		params, err = l.opStackParams(ctx, client)
	}
	if err != nil {
		return feeParams{}, err
	}

	l.cacheMux.Lock()
	l.cache[network] = cachedParams{params: params, fetchedAt: l.now()}
	l.cacheMux.Unlock()
	return params, nil
}

func (l *Live) arbitrumParams(ctx context.Context, client *ethclient.Client) (feeParams, error) {
	l1GasPrice, err := l.callUint(ctx, client, arbGasInfoABI, arbGasInfoAddress, "getL1GasPriceEstimate")
	if err != nil {
		return feeParams{}, fmt.Errorf("read ArbGasInfo: %w", err)
	}

	l2GasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return feeParams{}, fmt.Errorf("read l2 gas price: %w", err)
	}

	return feeParams{
		l1GasPriceGwei: decimal.NewFromBigInt(l1GasPrice, -9),
		l2GasPriceGwei: decimal.NewFromBigInt(l2GasPrice, -9),
	}, nil
}

func (l *Live) opStackParams(ctx context.Context, client *ethclient.Client) (feeParams, error) {
	l1BaseFee, err := l.callUint(ctx, client, opGasOracleABI, opGasOracleAddress, "l1BaseFee")
	if err != nil {
		return feeParams{}, fmt.Errorf("read l1BaseFee: %w", err)
	}
	overhead, err := l.callUint(ctx, client, opGasOracleABI, opGasOracleAddress, "overhead")
	if err != nil {
		return feeParams{}, fmt.Errorf("read overhead: %w", err)
	}
	scalar, err := l.callUint(ctx, client, opGasOracleABI, opGasOracleAddress, "scalar")
	if err != nil {
		return feeParams{}, fmt.Errorf("read scalar: %w", err)
	}

	l2GasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return feeParams{}, fmt.Errorf("read l2 gas price: %w", err)
	}

	return feeParams{
		l1BaseFeeGwei:  decimal.NewFromBigInt(l1BaseFee, -9),
		overhead:       overhead.Int64(),
		scalar:         decimal.NewFromBigInt(scalar, -6),
		l2GasPriceGwei: decimal.NewFromBigInt(l2GasPrice, -9),
	}, nil
}

func (l *Live) callUint(ctx context.Context, client *ethclient.Client, contractABI abi.ABI, address, method string) (*big.Int, error) {
	payload, err := contractABI.Pack(method)
	if err != nil {
		return nil, err
	}

	addr := common.HexToAddress(address)
	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return nil, err
	}

	outputs, err := contractABI.Unpack(method, res)
	if err != nil {
		return nil, err
	}
	if len(outputs) != 1 {
		return nil, fmt.Errorf("unexpected %s response", method)
	}
	value, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to decode %s output", method)
	}
	return value, nil
}

func (l *Live) getClient(ctx context.Context, network string) (*ethclient.Client, error) {
	l.clientMux.Lock()
	defer l.clientMux.Unlock()

	if client, ok := l.clients[network]; ok {
		return client, nil
	}

	endpoint := l.opts.Endpoints[network]
	if endpoint == "" {
		return nil, errors.New("l2: no rpc endpoint configured for " + network)
	}

	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	l.clients[network] = client
	return client, nil
}

// Close releases all dialed clients.
func (l *Live) Close() {
	l.clientMux.Lock()
	defer l.clientMux.Unlock()
	for _, client := range l.clients {
		client.Close()
	}
	l.clients = make(map[string]*ethclient.Client)
}

var _ Provider = (*Live)(nil)
