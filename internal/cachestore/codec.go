package cachestore

import (
	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/vmihailenco/msgpack/v5"
)

// Values are msgpack-encoded for compactness; encode buffers come from a
// shared pool to keep the hot tracking path allocation-light.
var encodePool bytebufferpool.Pool

func encodeValue(value interface{}) ([]byte, error) {
	buf := encodePool.Get()
	defer encodePool.Put(buf)

	enc := msgpack.NewEncoder(buf)
	if err := enc.Encode(value); err != nil {
		return nil, errors.Wrap(err, "failed to encode cache value")
	}

	// The pooled buffer is reused after return, so hand back a copy.
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decodeValue(data []byte, dest interface{}) error {
	if err := msgpack.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, "failed to decode cache value")
	}
	return nil
}
