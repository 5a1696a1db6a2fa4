// Package loader reads ingestion sources into text. Compressed files are
// expanded transparently based on their extension.
package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Source is the text of one ingestion along with where it came from.
type Source struct {
	// Name is the file path, "-" for stdin, or empty for pasted text.
	Name string
	// Size is the byte length of the source as stored, before decompression.
	// It is negative when unknown.
	Size int64
	Text string
}

// IsFile reports whether the source came from a named file.
func (s Source) IsFile() bool {
	return s.Name != "" && s.Name != StdinName
}

// SizeLabel renders Size for display, e.g. "1.2 KiB". It is empty when the
// size is unknown or the source is not a file.
func (s Source) SizeLabel() string {
	if s.Size < 0 || !s.IsFile() {
		return ""
	}
	return humanize.IBytes(uint64(s.Size))
}

// StdinName names a source read from standard input.
const StdinName = "-"

// Compression identifies how a file is encoded on disk.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// DetectCompression picks a codec from the file extension.
func DetectCompression(name string) Compression {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".gzip":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	}
	return CompressionNone
}

// ReadText wraps pasted text as a source.
func ReadText(text string) Source {
	return Source{Size: int64(len(text)), Text: text}
}

// ReadFile reads and, when needed, decompresses the named file.
func ReadFile(name string) (Source, error) {
	f, err := os.Open(name)
	if err != nil {
		return Source{}, err
	}
	defer f.Close()

	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	src, err := Read(name, f)
	if err != nil {
		return Source{}, err
	}
	src.Size = size
	return src, nil
}

// Read consumes r entirely. The compression codec is chosen from name.
func Read(name string, r io.Reader) (Source, error) {
	var counter countingReader
	counter.r = r

	dec, closeFn, err := decoder(DetectCompression(name), &counter)
	if err != nil {
		return Source{}, err
	}
	defer closeFn()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, dec); err != nil {
		return Source{}, fmt.Errorf("reading %s: %w", displayName(name), err)
	}
	return Source{Name: name, Size: counter.n, Text: buf.String()}, nil
}

func decoder(c Compression, r io.Reader) (io.Reader, func(), error) {
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return zr, func() { _ = zr.Close() }, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		return zr, zr.Close, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	}
	return r, func() {}, nil
}

func displayName(name string) string {
	if name == "" || name == StdinName {
		return "stdin"
	}
	return name
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
