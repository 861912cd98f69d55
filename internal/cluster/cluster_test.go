package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/types"
)

type rpcCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
}

func newFakeNode(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var (
		mu      sync.Mutex
		methods []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		methods = append(methods, call.Method)
		mu.Unlock()

		var result string
		switch call.Method {
		case "getLatestBlockhash":
			result = `{"context":{"slot":7},"value":{"blockhash":"EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N","lastValidBlockHeight":100}}`
		case "sendTransaction":
			result = `"5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"`
		default:
			http.Error(w, "unexpected method", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, call.ID, result)
	}))
	t.Cleanup(srv.Close)
	return srv, &methods
}

func TestSendFetchesBlockhashThenSubmits(t *testing.T) {
	srv, methods := newFakeNode(t)
	c := New(srv.URL, nil)

	payer := types.NewAccount()
	ix := system.Transfer(system.TransferParam{From: payer.PublicKey, To: types.NewAccount().PublicKey, Amount: 1})
	sig, err := c.Send(context.Background(), payer, nil, ix)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sig == "" {
		t.Fatalf("expected a signature")
	}
	if len(*methods) != 2 || (*methods)[0] != "getLatestBlockhash" || (*methods)[1] != "sendTransaction" {
		t.Fatalf("unexpected rpc calls %v", *methods)
	}
}

func TestSendRejectsUnneededSigner(t *testing.T) {
	srv, methods := newFakeNode(t)
	c := New(srv.URL, nil)

	payer, stranger := types.NewAccount(), types.NewAccount()
	ix := system.Transfer(system.TransferParam{From: payer.PublicKey, To: types.NewAccount().PublicKey, Amount: 1})
	if _, err := c.Send(context.Background(), payer, []types.Account{stranger}, ix); err == nil {
		t.Fatalf("expected build failure for a signer the message does not need")
	}
	for _, m := range *methods {
		if m == "sendTransaction" {
			t.Fatalf("transaction must not be sent")
		}
	}
}

func TestIsNotFound(t *testing.T) {
	cases := map[error]bool{
		errors.New("rpc response error: could not find account"): true,
		errors.New("Account does not exist"):                      true,
		errors.New("connection refused"):                          false,
		context.DeadlineExceeded:                                  false,
	}
	for err, want := range cases {
		if got := isNotFound(err); got != want {
			t.Fatalf("isNotFound(%v) = %v, want %v", err, got, want)
		}
	}
}
