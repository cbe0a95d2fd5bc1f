package reader

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// readCloser pairs a decoded stream with the cleanup of every layer below it.
type readCloser struct {
	io.Reader
	close func() error
}

func (rc readCloser) Close() error { return rc.close() }

func asReadCloser(r io.Reader) io.ReadCloser {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}
	return io.NopCloser(r)
}

// brotliExt marks brotli files, which carry no magic number.
const brotliExt = ".br"

// decompress sniffs the first bytes of rc and transparently decodes gzip and
// zstd streams, so rotated logs can be read without unpacking them first.
// Brotli is recognized by the ".br" suffix of name. Anything else is returned
// as plain text.
func decompress(rc io.ReadCloser, name string) (io.ReadCloser, error) {
	if strings.HasSuffix(name, brotliExt) {
		return readCloser{Reader: brotli.NewReader(rc), close: rc.Close}, nil
	}

	br := bufio.NewReader(rc)
	magic, _ := br.Peek(len(zstdMagic))

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return readCloser{Reader: gz, close: func() error {
			_ = gz.Close()
			return rc.Close()
		}}, nil

	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return readCloser{Reader: zr, close: func() error {
			zr.Close()
			return rc.Close()
		}}, nil

	default:
		return readCloser{Reader: br, close: rc.Close}, nil
	}
}
