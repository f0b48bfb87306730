package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRPC struct {
	accounts []common.Address
	gas      uint64
	hash     common.Hash
	sendErr  error

	calls []string
	sent  *txArgs
}

func (f *fakeRPC) CallContext(_ context.Context, result interface{}, method string, args ...interface{}) error {
	f.calls = append(f.calls, method)
	switch method {
	case "eth_accounts":
		*result.(*[]common.Address) = f.accounts
	case "eth_estimateGas":
		*result.(*hexutil.Uint64) = hexutil.Uint64(f.gas)
	case "eth_sendTransaction":
		if f.sendErr != nil {
			return f.sendErr
		}
		tx := args[0].(txArgs)
		f.sent = &tx
		*result.(*common.Hash) = f.hash
	default:
		return errors.New("unexpected method " + method)
	}
	return nil
}

func (f *fakeRPC) Close() {}

func TestEthereumWriter_SendsEncodedCall(t *testing.T) {
	contract := common.HexToAddress("0x00000000000000000000000000000000000000c0")
	from := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	rpc := &fakeRPC{gas: 100000, hash: common.HexToHash("0xabc")}

	w, err := newEthereumWriter(rpc, contract, from)
	require.NoError(t, err)

	event := testEvent()
	hash, err := w.Write(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, common.HexToHash("0xabc").Hex(), hash)
	assert.Equal(t, []string{"eth_estimateGas", "eth_sendTransaction"}, rpc.calls)
	require.NotNil(t, rpc.sent)
	assert.Equal(t, from, rpc.sent.From)
	assert.Equal(t, contract, rpc.sent.To)
	require.NotNil(t, rpc.sent.Gas)
	assert.Equal(t, hexutil.Uint64(120000), *rpc.sent.Gas)

	method := w.abi.Methods[createContractMethod]
	assert.Equal(t, method.ID, []byte(rpc.sent.Data[:4]))
	values, err := method.Inputs.Unpack(rpc.sent.Data[4:])
	require.NoError(t, err)
	require.Len(t, values, 5)
	assert.Equal(t, "Acme Foods", values[0])
	assert.Equal(t, "wheat", values[1])
	assert.Equal(t, 0, big.NewInt(event.StartTimestamp).Cmp(values[2].(*big.Int)))
	assert.Equal(t, 0, big.NewInt(event.EndTimestamp).Cmp(values[3].(*big.Int)))
	assert.Equal(t, "pending", values[4])
}

func TestEthereumWriter_FallsBackToNodeAccount(t *testing.T) {
	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	rpc := &fakeRPC{accounts: []common.Address{account}, gas: 10}

	w, err := newEthereumWriter(rpc, common.Address{1}, common.Address{})
	require.NoError(t, err)

	_, err = w.Write(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Equal(t, "eth_accounts", rpc.calls[0])
	assert.Equal(t, account, rpc.sent.From)
}

func TestEthereumWriter_NoAccount(t *testing.T) {
	w, err := newEthereumWriter(&fakeRPC{}, common.Address{1}, common.Address{})
	require.NoError(t, err)

	_, err = w.Write(context.Background(), testEvent())
	assert.ErrorIs(t, err, ErrNoAccount)
}

func TestEthereumWriter_SendError(t *testing.T) {
	rpc := &fakeRPC{gas: 10, sendErr: errors.New("insufficient funds")}
	w, err := newEthereumWriter(rpc, common.Address{1}, common.Address{2})
	require.NoError(t, err)

	_, err = w.Write(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestDialEthereum_InvalidAddress(t *testing.T) {
	_, err := DialEthereum(context.Background(), "http://localhost:8545", "not-an-address", "")
	assert.Error(t, err)

	_, err = DialEthereum(context.Background(), "http://localhost:8545", "0x00000000000000000000000000000000000000c0", "bogus")
	assert.Error(t, err)
}

func TestDialEthereum_NodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]any{"code": -32000, "message": "execution reverted"},
		})
	}))
	defer srv.Close()

	w, err := DialEthereum(context.Background(), srv.URL,
		"0x00000000000000000000000000000000000000c0",
		"0x00000000000000000000000000000000000000f1")
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution reverted")
}
