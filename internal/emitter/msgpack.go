package emitter

import (
	"bufio"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/juliosaraiva/loghetti/internal/parser"
)

// MsgpackSink writes a stream of msgpack maps, one per record, with the same
// keys as the JSON emitter.
type MsgpackSink struct {
	w       *bufio.Writer
	encoder *msgpack.Encoder
	options Options
}

// NewMsgpack creates a MsgpackSink.
func NewMsgpack(w io.Writer, opts Options) *MsgpackSink {
	bw := bufio.NewWriter(w)
	enc := msgpack.NewEncoder(bw)
	enc.SetSortMapKeys(true)
	return &MsgpackSink{w: bw, encoder: enc, options: opts}
}

// Handle encodes the record as one msgpack map.
func (s *MsgpackSink) Handle(rec *parser.Record) error {
	return s.encoder.Encode(buildOutput(rec, s.options))
}

// Close flushes buffered output.
func (s *MsgpackSink) Close() error {
	return s.w.Flush()
}
