// Package kvclient is a Go client for the KVStore RPC service.
//
// Failures are returned as gRPC status errors. errhandling.KindOf and
// errhandling.IsKind classify them with the same taxonomy the server uses.
package kvclient

import (
	"context"
	"errors"
	"io"

	"github.com/datatrails/go-datatrails-kvstore/grpcclient"
	"github.com/datatrails/go-datatrails-kvstore/rpcapi"
	"github.com/datatrails/go-datatrails-kvstore/tracing"
)

const clientName = "kvstore"

// Client holds one connection and the credential sent with every call.
// It is safe for concurrent use.
type Client struct {
	log   Logger
	conn  *grpcclient.Client
	rpc   rpcapi.KVStoreClient
	token string
}

type Option func(*options)

type options struct {
	dialOptions []grpcclient.DialOption
	tracing     bool
}

// WithDialOptions passes extra options to the dialer, for example transport
// credentials or a context dialer.
func WithDialOptions(d ...grpcclient.DialOption) Option {
	return func(o *options) {
		o.dialOptions = append(o.dialOptions, d...)
	}
}

// WithTracing propagates the caller's opentracing span to the server.
func WithTracing() Option {
	return func(o *options) {
		o.tracing = true
	}
}

// Connect opens a connection to address. The token is the namespace
// credential used for every keyed call.
func Connect(ctx context.Context, log Logger, address string, token string, opts ...Option) (*Client, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	dialOptions := rpcapi.DialOptions()
	if o.tracing {
		dialOptions = append(dialOptions, tracing.GRPCDialTracingOptions()...)
	}
	dialOptions = append(dialOptions, o.dialOptions...)

	conn := grpcclient.New(log, clientName, address, grpcclient.WithDialOptions(dialOptions...))
	if err := conn.Open(ctx); err != nil {
		return nil, err
	}
	cc, err := conn.Connector()
	if err != nil {
		return nil, err
	}
	return &Client{
		log:   log.WithIndex("kvclient", address),
		conn:  conn,
		rpc:   rpcapi.NewKVStoreClient(cc),
		token: token,
	}, nil
}

func (c *Client) Close() error {
	c.log.Debugf("Close")
	return c.conn.Close()
}

// Get returns the value of key. found is false, with a nil error, when the
// key does not exist.
func (c *Client) Get(ctx context.Context, key string) (value string, found bool, err error) {
	resp, err := c.rpc.Get(ctx, &rpcapi.GetRequest{Token: c.token, Key: key})
	if err != nil {
		return "", false, err
	}
	return resp.Value, resp.Found, nil
}

// Set stores value under key without an expiry, clearing any previous one.
func (c *Client) Set(ctx context.Context, key, value string) error {
	_, err := c.rpc.Set(ctx, &rpcapi.SetRequest{Token: c.token, Key: key, Value: value})
	return err
}

// SetWithTTL stores value under key for ttlSeconds, which must be positive.
func (c *Client) SetWithTTL(ctx context.Context, key, value string, ttlSeconds int64) error {
	_, err := c.rpc.Set(ctx, &rpcapi.SetRequest{Token: c.token, Key: key, Value: value, TtlSeconds: &ttlSeconds})
	return err
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.rpc.Delete(ctx, &rpcapi.DeleteRequest{Token: c.token, Key: key})
	return err
}

// ListFunc calls fn for every key starting with prefix as the server streams
// them. Returning an error from fn cancels the stream and ListFunc returns
// that error.
func (c *Client) ListFunc(ctx context.Context, prefix string, fn func(key string) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.rpc.List(ctx, &rpcapi.ListRequest{Token: c.token, Prefix: prefix})
	if err != nil {
		return err
	}
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(resp.Key); err != nil {
			return err
		}
	}
}

// List collects every key starting with prefix. Order is unspecified.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := c.ListFunc(ctx, prefix, func(key string) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// HealthCheck reports the server's view of its backend.
func (c *Client) HealthCheck(ctx context.Context) (bool, string, error) {
	resp, err := c.rpc.HealthCheck(ctx, &rpcapi.HealthCheckRequest{})
	if err != nil {
		return false, "", err
	}
	return resp.Healthy, resp.Message, nil
}
