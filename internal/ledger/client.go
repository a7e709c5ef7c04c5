package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is the single shared handle to the ledger's WebSocket RPC endpoint.
// It is lazily connected: every command calls Connect first, which is a no-op
// when the connection is already up. A dedicated reader goroutine correlates
// responses to in-flight requests by id.
type Client struct {
	url     string
	timeout time.Duration

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[uint64]chan rpcResponse
	nextID  uint64
	done    chan struct{}
}

type rpcResponse struct {
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result"`
	ErrorCode string          `json:"error"`
	ErrorMsg  string          `json:"error_message"`
}

type rpcEnvelope struct {
	ID uint64 `json:"id"`
	rpcResponse
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		url:     url,
		timeout: timeout,
		pending: map[uint64]chan rpcResponse{},
	}
}

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("ledger dial: %w", err)
	}
	c.conn = conn
	c.done = make(chan struct{})
	go c.readLoop(conn, c.done)
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	close(c.done)
	err := c.conn.Close()
	c.conn = nil
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	return err
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		var envelope rpcEnvelope
		if err := conn.ReadJSON(&envelope); err != nil {
			select {
			case <-done:
			default:
				_ = c.Close()
			}
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[envelope.ID]
		if ok {
			delete(c.pending, envelope.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- envelope.rpcResponse
		}
	}
}

func (c *Client) call(ctx context.Context, command string, params map[string]any, out any) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	req := map[string]any{"command": command}
	for k, v := range params {
		req[k] = v
	}

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.nextID++
	id := c.nextID
	req["id"] = id
	ch := make(chan rpcResponse, 1)
	c.pending[id] = ch
	err := c.conn.WriteJSON(req)
	c.mu.Unlock()
	if err != nil {
		c.dropPending(id)
		return fmt.Errorf("ledger write: %w", err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		c.dropPending(id)
		return ctx.Err()
	case <-timer.C:
		c.dropPending(id)
		return ErrTimeout
	case resp, ok := <-ch:
		if !ok {
			return ErrNotConnected
		}
		if resp.Status != "success" {
			return mapServerError(resp.ErrorCode, resp.ErrorMsg)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("ledger decode %s: %w", command, err)
		}
		return nil
	}
}

func (c *Client) dropPending(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func mapServerError(code, msg string) error {
	switch code {
	case "actNotFound":
		return ErrAccountNotFound
	case "txnNotFound":
		return ErrTxNotFound
	}
	if msg == "" {
		msg = code
	}
	return fmt.Errorf("ledger error %s: %s", code, msg)
}

func (c *Client) AccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	var result struct {
		AccountData struct {
			Account  string `json:"Account"`
			Sequence uint32 `json:"Sequence"`
			Balance  string `json:"Balance"`
			Domain   string `json:"Domain"`
		} `json:"account_data"`
	}
	params := map[string]any{"account": address, "ledger_index": "validated"}
	if err := c.call(ctx, "account_info", params, &result); err != nil {
		return nil, err
	}
	drops, _ := strconv.ParseInt(result.AccountData.Balance, 10, 64)
	return &AccountInfo{
		Address:      result.AccountData.Account,
		Sequence:     result.AccountData.Sequence,
		BalanceDrops: drops,
		Domain:       result.AccountData.Domain,
	}, nil
}

// AccountTx returns up to limit transactions for the account, newest first.
func (c *Client) AccountTx(ctx context.Context, address string, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var result struct {
		Transactions []struct {
			Validated bool  `json:"validated"`
			Tx        rawTx `json:"tx"`
		} `json:"transactions"`
	}
	params := map[string]any{"account": address, "limit": limit, "forward": false}
	if err := c.call(ctx, "account_tx", params, &result); err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, len(result.Transactions))
	for _, item := range result.Transactions {
		tx := item.Tx.toTransaction()
		tx.Validated = item.Validated
		out = append(out, tx)
	}
	return out, nil
}

func (c *Client) AccountLines(ctx context.Context, address string) ([]TrustLine, error) {
	var result struct {
		Lines []struct {
			Account  string `json:"account"`
			Currency string `json:"currency"`
			Balance  string `json:"balance"`
			Limit    string `json:"limit"`
		} `json:"lines"`
	}
	params := map[string]any{"account": address, "ledger_index": "validated"}
	if err := c.call(ctx, "account_lines", params, &result); err != nil {
		return nil, err
	}
	out := make([]TrustLine, 0, len(result.Lines))
	for _, line := range result.Lines {
		out = append(out, TrustLine{
			Currency: line.Currency,
			Issuer:   line.Account,
			Balance:  line.Balance,
			Limit:    line.Limit,
		})
	}
	return out, nil
}

// Submit sends a signed transaction blob. A non-success engine result is
// reported as ErrRejected with the engine code attached.
func (c *Client) Submit(ctx context.Context, txBlob string) (*SubmitResult, error) {
	var result struct {
		EngineResult string `json:"engine_result"`
		TxJSON       struct {
			Hash string `json:"hash"`
		} `json:"tx_json"`
	}
	params := map[string]any{"tx_blob": txBlob}
	if err := c.call(ctx, "submit", params, &result); err != nil {
		return nil, err
	}
	if result.EngineResult != "tesSUCCESS" {
		return nil, fmt.Errorf("%w: %s", ErrRejected, result.EngineResult)
	}
	return &SubmitResult{Hash: result.TxJSON.Hash, EngineResult: result.EngineResult}, nil
}

// Tx looks up a previously submitted transaction by hash.
func (c *Client) Tx(ctx context.Context, hash string) (*Transaction, error) {
	var result struct {
		rawTx
		Validated bool `json:"validated"`
	}
	params := map[string]any{"transaction": hash}
	if err := c.call(ctx, "tx", params, &result); err != nil {
		return nil, err
	}
	tx := result.rawTx.toTransaction()
	tx.Validated = result.Validated
	return &tx, nil
}

type rawTx struct {
	Hash            string          `json:"hash"`
	TransactionType string          `json:"TransactionType"`
	Account         string          `json:"Account"`
	Destination     string          `json:"Destination"`
	Amount          json.RawMessage `json:"Amount"`
	Memos           []struct {
		Memo struct {
			MemoType string `json:"MemoType"`
			MemoData string `json:"MemoData"`
		} `json:"Memo"`
	} `json:"Memos"`
}

func (r rawTx) toTransaction() Transaction {
	tx := Transaction{
		Hash:        r.Hash,
		Type:        r.TransactionType,
		Account:     r.Account,
		Destination: r.Destination,
	}
	tx.Amount = decodeAmount(r.Amount)
	for _, m := range r.Memos {
		tx.Memos = append(tx.Memos, Memo{Type: m.Memo.MemoType, Data: m.Memo.MemoData})
	}
	return tx
}

// decodeAmount handles the two wire shapes: a bare drops string for the
// native asset and an object for issued assets.
func decodeAmount(raw json.RawMessage) Amount {
	if len(raw) == 0 {
		return Amount{}
	}
	var drops string
	if err := json.Unmarshal(raw, &drops); err == nil {
		return Amount{Value: drops}
	}
	var issued struct {
		Currency string `json:"currency"`
		Issuer   string `json:"issuer"`
		Value    string `json:"value"`
	}
	if err := json.Unmarshal(raw, &issued); err == nil {
		return Amount{Currency: issued.Currency, Issuer: issued.Issuer, Value: issued.Value}
	}
	return Amount{}
}
