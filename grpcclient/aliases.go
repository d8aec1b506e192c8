package grpcclient

import (
	"google.golang.org/grpc"

	"github.com/datatrails/go-datatrails-kvstore/logger"
)

type Logger = logger.Logger

type ClientConn = grpc.ClientConn

type DialOption = grpc.DialOption
