package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/poi-miner/post-miner/internal/simledger"
	"github.com/poi-miner/post-miner/protocol"
	"github.com/poi-miner/post-miner/shared"
)

var mineAccount = shared.Identity{0xaa, 0xbb}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type node struct {
	mu       sync.Mutex
	t        *testing.T
	accounts map[string][]byte
	slot     uint64
	time     int64
	methods  []string
}

func (n *node) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JSONRPC string            `json:"jsonrpc"`
		ID      uint64            `json:"id"`
		Method  string            `json:"method"`
		Params  []json.RawMessage `json:"params"`
	}
	require.NoError(n.t, json.NewDecoder(r.Body).Decode(&req))
	require.Equal(n.t, "2.0", req.JSONRPC)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.methods = append(n.methods, req.Method)

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch req.Method {
	case "getAccountInfo":
		var address string
		require.NoError(n.t, json.Unmarshal(req.Params[0], &address))
		data, ok := n.accounts[address]
		if !ok {
			resp["result"] = map[string]any{"value": nil}
			break
		}
		resp["result"] = map[string]any{
			"value": map[string]any{
				"data":  []string{base64.StdEncoding.EncodeToString(data), "base64"},
				"owner": "11111111111111111111111111111111",
			},
		}
	case "getSlot":
		resp["result"] = n.slot
	case "getBlockTime":
		var slot uint64
		require.NoError(n.t, json.Unmarshal(req.Params[0], &slot))
		require.Equal(n.t, n.slot, slot)
		resp["result"] = n.time
	default:
		resp["error"] = map[string]any{"code": -32601, "message": "Method not found"}
	}
	require.NoError(n.t, json.NewEncoder(w).Encode(resp))
}

func newNode(t *testing.T) (*node, *simledger.Program) {
	proto, err := protocol.Lookup(protocol.V3)
	require.NoError(t, err)
	p, err := simledger.New(fixedClock{now: time.Unix(1_700_000_000, 0)}, proto, simledger.WithAddress(mineAccount))
	require.NoError(t, err)

	return &node{
		t:        t,
		accounts: map[string][]byte{mineAccount.String(): p.AccountData()},
		slot:     4242,
		time:     1_700_000_100,
	}, p
}

func newClient(t *testing.T, url string, account shared.Identity) *Client {
	c, err := NewClient(url, account, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return c
}

func TestClient_ReadEpochState(t *testing.T) {
	r := require.New(t)
	n, p := newNode(t)
	srv := httptest.NewServer(n)
	defer srv.Close()

	c := newClient(t, srv.URL, mineAccount)
	state, err := c.ReadEpochState(context.Background())
	r.NoError(err)

	want := p.State()
	r.Equal(want.Seed, state.Seed)
	r.Equal(want.Difficulty, state.Difficulty)
	r.Equal(want.Epoch, state.Epoch)
	r.True(want.EpochEnd.Equal(state.EpochEnd))
	r.Equal([]string{"getAccountInfo"}, n.methods)
}

func TestClient_AccountNotFound(t *testing.T) {
	n, _ := newNode(t)
	srv := httptest.NewServer(n)
	defer srv.Close()

	c := newClient(t, srv.URL, shared.Identity{1})
	_, err := c.MineState(context.Background())
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestClient_ShortAccount(t *testing.T) {
	n, _ := newNode(t)
	n.accounts[mineAccount.String()] = []byte{1, 2, 3}
	srv := httptest.NewServer(n)
	defer srv.Close()

	c := newClient(t, srv.URL, mineAccount)
	_, err := c.MineState(context.Background())
	require.Error(t, err)
}

func TestClient_Error(t *testing.T) {
	r := require.New(t)
	n, _ := newNode(t)
	srv := httptest.NewServer(n)
	defer srv.Close()

	c := newClient(t, srv.URL, mineAccount)
	err := c.call(context.Background(), "getBalance", nil)
	var rpcErr *Error
	r.ErrorAs(err, &rpcErr)
	r.Equal(-32601, rpcErr.Code)
	r.Equal("Method not found", rpcErr.Message)
}

func TestClient_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "busy", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, mineAccount)
	_, err := c.Slot(context.Background())
	require.ErrorContains(t, err, "429")
}

func TestClient_Now(t *testing.T) {
	r := require.New(t)
	n, _ := newNode(t)
	srv := httptest.NewServer(n)
	defer srv.Close()

	c := newClient(t, srv.URL, mineAccount)
	now, err := c.Now(context.Background())
	r.NoError(err)
	r.Equal(time.Unix(n.time, 0), now)
	r.Equal([]string{"getSlot", "getBlockTime"}, n.methods)

	clock, err := NewBlockClock(context.Background(), c)
	r.NoError(err)
	r.WithinDuration(time.Unix(n.time, 0), clock.Now(), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.ErrorIs(clock.Sleep(ctx, time.Hour), context.Canceled)

	r.NoError(clock.Sleep(context.Background(), 0))
	r.NoError(clock.Sleep(context.Background(), -time.Second))
}

func TestNewClient_Invalid(t *testing.T) {
	_, err := NewClient("", mineAccount)
	require.Error(t, err)
	_, err = NewClient("http://localhost", mineAccount, WithTimeout(0))
	require.Error(t, err)
	_, err = NewClient("http://localhost", mineAccount, WithLogger(nil))
	require.Error(t, err)
}
