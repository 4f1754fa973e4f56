package state

import (
	"bytes"

	// Using this as it is better maintained
	"github.com/hashicorp/go-msgpack/v2/codec"

	"github.com/tarungka/loom/stream"
)

func msgpackHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.RawToString = true
	// Decode integers back as int64 so round-tripped values compare
	// equal.
	h.SignedInteger = true
	return h
}

func encodeEntries(entries []stream.Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, msgpackHandle())
	if err := enc.Encode(entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeEntries(b []byte) ([]stream.Entry, error) {
	var entries []stream.Entry
	dec := codec.NewDecoder(bytes.NewReader(b), msgpackHandle())
	if err := dec.Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}
