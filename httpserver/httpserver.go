package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// A http server that has an inbuilt logger, name and complies wuth the Listener interface in
// startup.Listeners.

type Server struct {
	http.Server
	log      Logger
	name     string
	listener net.Listener
	handlers []func(http.Handler) http.Handler
}

type ServerOption func(*Server)

// WithHandlers wraps the handler, the first given is outermost. Typical uses
// are tracing and metrics.
func WithHandlers(h ...func(http.Handler) http.Handler) ServerOption {
	return func(m *Server) {
		m.handlers = append(m.handlers, h...)
	}
}

// WithListener serves on an existing listener instead of the port.
func WithListener(l net.Listener) ServerOption {
	return func(m *Server) {
		m.listener = l
	}
}

func New(log Logger, name string, port string, handler http.Handler, opts ...ServerOption) *Server {
	log.Debugf("New HTTPServer %s", name)
	m := Server{
		Server: http.Server{
			Addr:              ":" + port,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		name: strings.ToLower(name),
	}
	for _, opt := range opts {
		opt(&m)
	}
	for i := len(m.handlers) - 1; i >= 0; i-- {
		handler = m.handlers[i](handler)
	}
	m.Handler = handler
	m.log = log.WithIndex("httpserver", m.String())
	// It is preferable to return a copy rather than a reference. Unfortunately http.Server has an
	// internal mutex and this cannot or should not be copied so we will return a reference instead.
	return &m
}

func (m *Server) String() string {
	// No logging here please
	return fmt.Sprintf("%s%s", m.name, m.Addr)
}

// Listen serves until Shutdown. A server closed by Shutdown is not an error.
func (m *Server) Listen() error {
	m.log.Infof("Listen")
	var err error
	if m.listener != nil {
		err = m.Server.Serve(m.listener)
	} else {
		err = m.Server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server terminated: %w", m, err)
	}
	return nil
}

func (m *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	m.log.Infof("Shutdown")
	err := m.Server.Shutdown(ctx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
