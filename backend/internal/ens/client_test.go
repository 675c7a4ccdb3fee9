package ens

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goens "github.com/wealdtech/go-ens/v3"

	apperrors "vouch-graph/backend/pkg/errors"
)

const (
	testRegistry = "0x00000000000c2e074ec69a0dfb2997ba6c7d2e1e"
	testResolver = "0x4976fb03c32e5b8cfe2b6ccb31c09ba78ebaba41"
	aliceAddress = "0x1234567890abcdef1234567890abcdef12345678"

	selectorResolver = "0178b8bf" // resolver(bytes32)
	selectorName     = "691f3431" // name(bytes32)
	selectorAddr     = "3b3b57de" // addr(bytes32)
)

var (
	addressArgs = abi.Arguments{{Type: mustType("address")}}
	stringArgs  = abi.Arguments{{Type: mustType("string")}}
)

func mustType(name string) abi.Type {
	typ, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

func TestReverseName(t *testing.T) {
	assert.Equal(t, "1234567890abcdef1234567890abcdef12345678.addr.reverse", reverseName(common.HexToAddress(aliceAddress)))
}

// fakeChain serves eth_call for one registry and one resolver
type fakeChain struct {
	resolvers map[string]common.Address // node hex -> resolver address
	names     map[string]string         // node hex -> name
	addrs     map[string]common.Address // node hex -> address
	calls     atomic.Int32
	rpcError  bool
	delay     time.Duration
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		resolvers: map[string]common.Address{},
		names:     map[string]string{},
		addrs:     map[string]common.Address{},
	}
}

func nodeHex(t *testing.T, name string) string {
	node, err := goens.NameHash(name)
	require.NoError(t, err)
	return hex.EncodeToString(node[:])
}

func (f *fakeChain) register(t *testing.T, address, name, forward string) {
	rev := nodeHex(t, reverseName(common.HexToAddress(address)))
	fwd := nodeHex(t, name)
	f.resolvers[rev] = common.HexToAddress(testResolver)
	f.names[rev] = name
	f.resolvers[fwd] = common.HexToAddress(testResolver)
	f.addrs[fwd] = common.HexToAddress(forward)
}

type callArgs struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Input string `json:"input"`
}

func (f *fakeChain) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-r.Context().Done():
			return
		}
	}

	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reply := func(result interface{}) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}
	if f.rpcError {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]interface{}{"code": -32000, "message": "header not found"},
		})
		return
	}

	switch req.Method {
	case "eth_getCode":
		reply("0x6080")
		return
	case "eth_chainId":
		reply("0x1")
		return
	}

	var call callArgs
	_ = json.Unmarshal(req.Params[0], &call)
	data := call.Input
	if data == "" {
		data = call.Data
	}
	data = strings.TrimPrefix(data, "0x")
	if len(data) < 8 {
		reply("0x")
		return
	}
	sel, node := data[:8], data[8:]

	var out []byte
	switch {
	case strings.EqualFold(call.To, testRegistry) && sel == selectorResolver:
		out, _ = addressArgs.Pack(f.resolvers[node])
	case strings.EqualFold(call.To, testResolver) && sel == selectorName:
		out, _ = stringArgs.Pack(f.names[node])
	case strings.EqualFold(call.To, testResolver) && sel == selectorAddr:
		out, _ = addressArgs.Pack(f.addrs[node])
	}
	reply("0x" + hex.EncodeToString(out))
}

func newTestClient(t *testing.T, chain *fakeChain) *Client {
	srv := httptest.NewServer(chain)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, testRegistry, WithRateLimit(1000, 10))
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestNewClient_RejectsBadRegistry(t *testing.T) {
	_, err := NewClient("http://localhost:8545", "not-an-address")
	assert.Error(t, err)
}

func TestLookupAddress_Verified(t *testing.T) {
	chain := newFakeChain()
	chain.register(t, aliceAddress, "alice.eth", aliceAddress)
	client := newTestClient(t, chain)

	name, err := client.LookupAddress(context.Background(), aliceAddress)
	require.NoError(t, err)
	assert.Equal(t, "alice.eth", name)
	assert.GreaterOrEqual(t, chain.calls.Load(), int32(4), "reverse and forward records are both read")
}

func TestLookupAddress_ChecksumCaseMatches(t *testing.T) {
	chain := newFakeChain()
	chain.register(t, aliceAddress, "alice.eth", aliceAddress)
	client := newTestClient(t, chain)

	name, err := client.LookupAddress(context.Background(), "0x"+strings.ToUpper(aliceAddress[2:]))
	require.NoError(t, err)
	assert.Equal(t, "alice.eth", name)
}

func TestLookupAddress_Unregistered(t *testing.T) {
	client := newTestClient(t, newFakeChain())

	name, err := client.LookupAddress(context.Background(), aliceAddress)
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestLookupAddress_ForwardMismatch(t *testing.T) {
	chain := newFakeChain()
	chain.register(t, aliceAddress, "vitalik.eth", "0xd8da6bf26964af9d7eed9e03e53415d37aa96045")
	client := newTestClient(t, chain)

	name, err := client.LookupAddress(context.Background(), aliceAddress)
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestLookupAddress_RPCError(t *testing.T) {
	chain := newFakeChain()
	chain.rpcError = true
	client := newTestClient(t, chain)

	_, err := client.LookupAddress(context.Background(), aliceAddress)
	require.Error(t, err)
	var rpcErr *apperrors.ErrProviderRPC
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.Code)
}

func TestLookupAddress_HonorsContext(t *testing.T) {
	chain := newFakeChain()
	chain.delay = time.Second
	client := newTestClient(t, chain)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.LookupAddress(ctx, aliceAddress)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestLookupAddress_HTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "")
	require.NoError(t, err)
	defer client.Close()

	_, err = client.LookupAddress(context.Background(), aliceAddress)
	assert.Error(t, err)
}

func TestLookupAddress_InvalidAddress(t *testing.T) {
	client := newTestClient(t, newFakeChain())

	_, err := client.LookupAddress(context.Background(), "0xNOTVALID")
	assert.Error(t, err)
}
