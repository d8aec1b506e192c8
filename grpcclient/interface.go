package grpcclient

import (
	"context"
)

type ClientProvider interface {
	Open(context.Context) error
	Close() error
	String() string
}
