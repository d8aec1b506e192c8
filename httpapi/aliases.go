package httpapi

import (
	"github.com/datatrails/go-datatrails-kvstore/logger"
)

type Logger = logger.Logger
