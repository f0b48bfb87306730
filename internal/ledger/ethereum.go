package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/HGakash/agrihub/internal/model"
)

const createContractMethod = "createContract"

const contractABI = `[{
	"type": "function",
	"name": "createContract",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "companyName", "type": "string"},
		{"name": "contractDetails", "type": "string"},
		{"name": "startTimestamp", "type": "uint256"},
		{"name": "endTimestamp", "type": "uint256"},
		{"name": "status", "type": "string"}
	],
	"outputs": []
}]`

var ErrNoAccount = errors.New("no unlocked account on ledger node")

type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	Close()
}

type txArgs struct {
	From common.Address  `json:"from"`
	To   common.Address  `json:"to"`
	Data hexutil.Bytes   `json:"data"`
	Gas  *hexutil.Uint64 `json:"gas,omitempty"`
}

// EthereumWriter submits createContract transactions through a node's
// JSON-RPC endpoint, signing with a node-managed account.
type EthereumWriter struct {
	rpc      rpcCaller
	abi      abi.ABI
	contract common.Address
	from     common.Address
}

// DialEthereum connects to endpoint. An empty fromAddress selects the
// node's first account on every write.
func DialEthereum(ctx context.Context, endpoint, contractAddress, fromAddress string) (*EthereumWriter, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid ledger contract address %q", contractAddress)
	}
	var from common.Address
	if fromAddress != "" {
		if !common.IsHexAddress(fromAddress) {
			return nil, fmt.Errorf("invalid ledger from address %q", fromAddress)
		}
		from = common.HexToAddress(fromAddress)
	}

	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial ledger: %w", err)
	}
	writer, err := newEthereumWriter(client, common.HexToAddress(contractAddress), from)
	if err != nil {
		client.Close()
		return nil, err
	}
	return writer, nil
}

func newEthereumWriter(caller rpcCaller, contract, from common.Address) (*EthereumWriter, error) {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("parse ledger abi: %w", err)
	}
	return &EthereumWriter{
		rpc:      caller,
		abi:      parsed,
		contract: contract,
		from:     from,
	}, nil
}

func (w *EthereumWriter) Write(ctx context.Context, event model.LedgerEvent) (string, error) {
	input, err := w.abi.Pack(
		createContractMethod,
		event.CompanyName,
		event.ContractDetails,
		big.NewInt(event.StartTimestamp),
		big.NewInt(event.EndTimestamp),
		string(event.Status),
	)
	if err != nil {
		return "", fmt.Errorf("pack call: %w", err)
	}

	from, err := w.sender(ctx)
	if err != nil {
		return "", err
	}

	args := txArgs{From: from, To: w.contract, Data: input}

	var gas hexutil.Uint64
	if err := w.rpc.CallContext(ctx, &gas, "eth_estimateGas", args); err != nil {
		return "", fmt.Errorf("estimate gas: %w", err)
	}
	// 20% headroom over the estimate.
	limit := gas + gas/5
	args.Gas = &limit

	var hash common.Hash
	if err := w.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	return hash.Hex(), nil
}

func (w *EthereumWriter) Close() {
	w.rpc.Close()
}

func (w *EthereumWriter) sender(ctx context.Context) (common.Address, error) {
	if w.from != (common.Address{}) {
		return w.from, nil
	}
	var accounts []common.Address
	if err := w.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return common.Address{}, fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return common.Address{}, ErrNoAccount
	}
	return accounts[0], nil
}
