package grpcstore

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	eventbus "github.com/hanpama/usergraph/internal/eventbus"
	events "github.com/hanpama/usergraph/internal/events"
	"github.com/hanpama/usergraph/internal/reqid"
	"github.com/hanpama/usergraph/internal/store"
)

// Client is a store.Store that calls a remote RecordService. Connections are
// pooled per endpoint and the caller's deadline is propagated.
type Client struct {
	opts *Options

	mu     sync.RWMutex
	pools  map[string]*connPool // key: endpoint
	closed atomic.Bool
}

var _ store.Store = (*Client)(nil)

func NewClient(opts ...Option) *Client {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	if len(o.DialOptions) == 0 {
		o.DialOptions = []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithConnectParams(grpc.ConnectParams{Backoff: backoff.DefaultConfig}),
		}
	}
	return &Client{
		opts:  o,
		pools: make(map[string]*connPool),
	}
}

func (c *Client) Find(ctx context.Context, collection, id string) (store.Record, error) {
	resp, err := c.call(ctx, methodFind, map[string]any{"collection": collection, "id": id})
	if err != nil {
		return nil, err
	}
	return resp.AsMap(), nil
}

func (c *Client) List(ctx context.Context, collection string, filter store.Filter) ([]store.Record, error) {
	f, err := store.Normalize(store.Record(filter))
	if err != nil {
		return nil, err
	}
	req := map[string]any{"collection": collection}
	if f != nil {
		req["filter"] = map[string]any(f)
	}
	resp, err := c.call(ctx, methodList, req)
	if err != nil {
		return nil, err
	}
	items := resp.GetFields()["records"].GetListValue().GetValues()
	out := make([]store.Record, 0, len(items))
	for _, v := range items {
		out = append(out, v.GetStructValue().AsMap())
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	r, err := store.Prepare(rec)
	if err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, methodCreate, map[string]any{"collection": collection, "record": map[string]any(r)})
	if err != nil {
		return nil, err
	}
	return resp.AsMap(), nil
}

func (c *Client) Update(ctx context.Context, collection, id string, patch store.Record) (store.Record, error) {
	p, err := store.Normalize(patch)
	if err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, methodUpdate, map[string]any{"collection": collection, "id": id, "record": map[string]any(p)})
	if err != nil {
		return nil, err
	}
	return resp.AsMap(), nil
}

func (c *Client) Delete(ctx context.Context, collection, id string) (string, error) {
	resp, err := c.call(ctx, methodDelete, map[string]any{"collection": collection, "id": id})
	if err != nil {
		return "", err
	}
	return resp.GetFields()["id"].GetStringValue(), nil
}

func (c *Client) call(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if c.opts.Provider == nil {
		return nil, errors.New("grpcstore: provider not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	if _, ok := ctx.Deadline(); !ok && c.opts.RPCTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RPCTimeout)
		defer cancel()
	}
	if id, ok := reqid.FromContext(ctx); ok {
		ctx = metadata.AppendToOutgoingContext(ctx, reqid.Header, id)
	}

	endpoints, err := c.opts.Provider.Endpoints(ctx, ServiceName)
	if err != nil {
		return nil, err
	}
	endpoint := endpoints[rand.IntN(len(endpoints))]

	cc, err := c.getConn(endpoint)
	if err != nil {
		return nil, err
	}
	defer c.returnConn(endpoint, cc)

	collection, _ := req["collection"].(string)
	start := time.Now()
	eventbus.Publish(ctx, events.GRPCClientStart{Service: ServiceName, Method: method, Collection: collection, Target: endpoint})
	out := new(structpb.Struct)
	err = cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out)
	eventbus.Publish(ctx, events.GRPCClientFinish{
		Service:    ServiceName,
		Method:     method,
		Collection: collection,
		Target:     endpoint,
		Code:       status.Code(err),
		Err:        err,
		Duration:   time.Since(start),
	})
	if err != nil {
		return nil, fromStatus(err)
	}
	return out, nil
}

func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.pools {
		p.close()
	}
	c.pools = map[string]*connPool{}
	return nil
}

type connPool struct {
	endpoint string
	opts     *Options
	conns    chan *grpc.ClientConn
	closed   atomic.Bool
}

func newConnPool(endpoint string, opts *Options) *connPool {
	n := opts.MaxConnsPerEndpoint
	if n <= 0 {
		n = 2
	}
	return &connPool{
		endpoint: endpoint,
		opts:     opts,
		conns:    make(chan *grpc.ClientConn, n),
	}
}

func (p *connPool) get() (*grpc.ClientConn, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	select {
	case cc := <-p.conns:
		return cc, nil
	default:
		cc, err := grpc.NewClient(p.endpoint, p.opts.DialOptions...)
		return cc, errors.Wrapf(err, "dial %s", p.endpoint)
	}
}

func (p *connPool) put(cc *grpc.ClientConn) {
	if p.closed.Load() {
		_ = cc.Close()
		return
	}
	select {
	case p.conns <- cc:
	default:
		_ = cc.Close()
	}
}

func (p *connPool) close() {
	if p.closed.Swap(true) {
		return
	}
	close(p.conns)
	for cc := range p.conns {
		_ = cc.Close()
	}
}

func (c *Client) getConn(endpoint string) (*grpc.ClientConn, error) {
	c.mu.RLock()
	pool := c.pools[endpoint]
	c.mu.RUnlock()
	if pool == nil {
		c.mu.Lock()
		pool = c.pools[endpoint]
		if pool == nil {
			pool = newConnPool(endpoint, c.opts)
			c.pools[endpoint] = pool
		}
		c.mu.Unlock()
	}
	return pool.get()
}

func (c *Client) returnConn(endpoint string, cc *grpc.ClientConn) {
	c.mu.RLock()
	pool := c.pools[endpoint]
	c.mu.RUnlock()
	if pool != nil {
		pool.put(cc)
		return
	}
	_ = cc.Close()
}
