// Package grpcclient owns a single client connection. Callers layer their
// generated or hand written stubs on Connector().
package grpcclient

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var ErrNotOpen = errors.New("client is not open")

type Client struct {
	name    string
	log     Logger
	address string
	conn    *grpc.ClientConn
	options []grpc.DialOption
}

// Open dials the address. Dialing is lazy unless the options include
// grpc.WithBlock, so an unreachable server surfaces on the first call.
func (g *Client) Open(ctx context.Context) error {
	if g.conn != nil {
		return nil
	}

	g.log.Debugf("Open %s client at %v", g.name, g.address)
	conn, err := grpc.DialContext(ctx, g.address, g.options...)
	if err != nil {
		return fmt.Errorf("%s: dial %s: %w", g.name, g.address, err)
	}
	g.conn = conn
	g.log.Debugf("Open %s client successful", g.name)
	return nil
}

func (g *Client) Close() error {
	if g.conn == nil {
		return nil
	}
	g.log.Debugf("Close %s client at %v", g.name, g.address)
	err := g.conn.Close()
	g.conn = nil
	return err
}

func (g *Client) String() string {
	return g.name
}

// Connector returns the open connection or ErrNotOpen.
func (g *Client) Connector() (*ClientConn, error) {
	if g.conn == nil {
		return nil, ErrNotOpen
	}
	return g.conn, nil
}

type ClientOption func(*Client)

func WithDialOptions(d ...DialOption) ClientOption {
	return func(t *Client) {
		t.options = append(t.options, d...)
	}
}

// New returns a closed client. Transport security defaults to insecure
// credentials; a WithDialOptions carrying transport credentials overrides it.
func New(log Logger, name string, address string, opts ...ClientOption) *Client {
	t := Client{
		name:    name,
		address: address,
		log:     log.WithIndex("grpcclient", name),
		options: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
	}
	for _, opt := range opts {
		opt(&t)
	}
	return &t
}
