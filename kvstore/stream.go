package kvstore

import (
	"context"
	"strings"

	"github.com/datatrails/go-datatrails-kvstore/auth"
	"github.com/datatrails/go-datatrails-kvstore/errhandling"
)

// KeyStream is a lazy sequence of logical keys. A producer goroutine scans
// the backend and runs at most the list buffer ahead of the consumer. It
// stops when the stream is closed or the caller's context ends.
//
// Next and Close must be called from one goroutine. Err is valid once Next
// has returned false.
type KeyStream struct {
	keys   chan string
	cancel context.CancelFunc
	err    error
}

// Next returns the next key, or false at the end of the stream.
func (ks *KeyStream) Next() (string, bool) {
	key, ok := <-ks.keys
	return key, ok
}

// Err returns the error that ended the stream early, if any.
func (ks *KeyStream) Err() error {
	return ks.err
}

// Close stops the producer and waits for it to finish. Safe to call more
// than once and after the stream is exhausted.
func (ks *KeyStream) Close() {
	ks.cancel()
	for range ks.keys {
	}
}

// List enumerates the logical keys in the credential's namespace that start
// with prefix, in backend order. A key repeated within one SCAN batch is
// returned once. SCAN may also repeat a key across batches, for example
// while the backend rehashes, and such repeats are passed through: the
// producer keeps no state beyond the current batch, so memory stays bounded
// however large the namespace is.
func (s *Store) List(ctx context.Context, credential, prefix string) *KeyStream {
	pctx, cancel := context.WithCancel(ctx)
	ks := &KeyStream{
		keys:   make(chan string, s.listBuffer),
		cancel: cancel,
	}
	go s.produce(ctx, pctx, ks, credential, prefix)
	return ks
}

func (s *Store) produce(caller, ctx context.Context, ks *KeyStream, credential, prefix string) {
	span, ctx, log := s.span(ctx, "kvstore.List")
	defer span.Close()
	defer close(ks.keys)

	match := matchPattern(credential, prefix)
	log.Debugf("List: %s", matchPattern(auth.Redact(credential), prefix))

	// fail sets the stream error unless the consumer closed the stream.
	fail := func(err error) {
		if caller.Err() != nil {
			err = errhandling.Internal(caller.Err(), "list abandoned")
		} else if ctx.Err() != nil {
			return
		}
		span.SetError(err)
		ks.err = err
	}

	var cursor uint64
	for {
		if ctx.Err() != nil {
			fail(ctx.Err())
			return
		}
		batch, next, err := s.client.Scan(ctx, cursor, match, s.scanCount).Result()
		if err != nil {
			fail(errhandling.BackendError(err, "scan %s", prefix))
			return
		}
		seen := make(map[string]struct{}, len(batch))
		for _, physical := range batch {
			key, ok := s.logicalKey(credential, prefix, physical)
			if !ok {
				log.Debugf("List: dropping foreign key")
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			select {
			case ks.keys <- key:
			case <-ctx.Done():
				fail(ctx.Err())
				return
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

// logicalKey strips the namespace and checks the result is a non empty key
// under prefix. The match pattern should guarantee both, but the backend is not
// trusted to.
func (s *Store) logicalKey(credential, prefix, physical string) (string, bool) {
	key, ok := LogicalKey(credential, physical)
	if !ok || key == "" || !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return key, true
}
