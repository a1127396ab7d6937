// Package scanner streams object content from an object store and feeds it
// line by line to the detector engine. Objects are gated by size and by a
// text-vs-binary check before any full read happens, and content is processed
// in bounded chunks so memory stays flat regardless of object size.
package scanner

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ahrav/datasentry/internal/detector"
	"github.com/ahrav/datasentry/internal/domain/scanning"
	"github.com/ahrav/datasentry/pkg/common/logger"
)

// Config bounds the reader. MaxFileSize is the hard cap checked before any
// content is read; ChunkSize is the read granularity while streaming.
type Config struct {
	MaxFileSize int64
	ChunkSize   int
}

// DefaultConfig returns the reader defaults: 500 MiB cap, 10 MiB chunks.
func DefaultConfig() Config {
	return Config{MaxFileSize: 500 << 20, ChunkSize: 10 << 20}
}

// textExtensions is the fast-path allow-list for text classification.
// Anything else falls through to content sampling.
var textExtensions = map[string]struct{}{
	".txt": {}, ".log": {}, ".csv": {}, ".json": {}, ".xml": {},
	".html": {}, ".htm": {}, ".md": {}, ".py": {}, ".js": {},
	".java": {}, ".c": {}, ".cpp": {}, ".h": {}, ".sh": {},
	".yml": {}, ".yaml": {}, ".toml": {}, ".ini": {}, ".cfg": {},
	".conf": {}, ".sql": {},
}

const sampleSize = 1024

// Scanner reads objects from a store and runs the detector over each line.
type Scanner struct {
	store    scanning.ObjectStore
	detector *detector.Detector
	cfg      Config
	log      *logger.Logger
	tracer   trace.Tracer
}

// New creates a Scanner. A nil tracer disables span creation.
func New(
	store scanning.ObjectStore,
	det *detector.Detector,
	cfg Config,
	log *logger.Logger,
	tracer trace.Tracer,
) *Scanner {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return &Scanner{store: store, detector: det, cfg: cfg, log: log, tracer: tracer}
}

// Scan streams one object and returns its validated matches together with a
// terminal outcome. On a Failed outcome the returned matches must be
// discarded; they may cover only a prefix of the object.
func (s *Scanner) Scan(ctx context.Context, bucket, key string) ([]detector.Match, Outcome) {
	ctx, span := s.tracer.Start(ctx, "scanner.scan",
		trace.WithAttributes(
			attribute.String("bucket", bucket),
			attribute.String("object_key", key),
		))
	defer span.End()

	info, err := s.store.Stat(ctx, bucket, key)
	if err != nil {
		return nil, Failed(fmt.Sprintf("could not determine file size: %v", err))
	}
	if info.Size > s.cfg.MaxFileSize {
		s.log.Warn(ctx, "object exceeds max size", "object_key", key, "size_bytes", info.Size)
		return nil, Failed(fmt.Sprintf("file too large: %d bytes", info.Size))
	}

	isText, err := s.isTextObject(ctx, bucket, key)
	if err != nil {
		return nil, Failed(fmt.Sprintf("could not classify content: %v", err))
	}
	if !isText {
		s.log.Info(ctx, "skipping non-text object", "object_key", key)
		return nil, Skipped("non-text file, skipped")
	}

	s.log.Info(ctx, "scanning object", "object_key", key, "size_bytes", info.Size)

	body, err := s.store.Stream(ctx, bucket, key)
	if err != nil {
		return nil, Failed(fmt.Sprintf("stream open: %v", err))
	}
	defer body.Close()

	matches, err := s.scanBody(ctx, body, key)
	if err != nil {
		return nil, Failed(fmt.Sprintf("stream read: %v", err))
	}

	span.SetAttributes(attribute.Int("match_count", len(matches)))
	s.log.Info(ctx, "scan complete", "object_key", key, "match_count", len(matches))
	return matches, Completed()
}

// isTextObject classifies text vs binary: extension allow-list first, then a
// sample of the first 1 KiB checked for NUL bytes and UTF-8 validity.
func (s *Scanner) isTextObject(ctx context.Context, bucket, key string) (bool, error) {
	lower := strings.ToLower(key)
	if dot := strings.LastIndex(lower, "."); dot >= 0 {
		if _, ok := textExtensions[lower[dot:]]; ok {
			return true, nil
		}
	}

	sample, err := s.store.ReadRange(ctx, bucket, key, 0, sampleSize)
	if err != nil {
		return false, err
	}
	for _, b := range sample {
		if b == 0 {
			return false, nil
		}
	}
	// The sample may cut a multi-byte sequence; validate only up to the last
	// complete rune.
	complete, _ := splitIncompleteRune(sample)
	return utf8.Valid(complete), nil
}

// scanBody reads the stream in fixed-size chunks, decodes each, and
// reassembles lines across chunk boundaries with a carry buffer.
func (s *Scanner) scanBody(ctx context.Context, body io.Reader, key string) ([]detector.Match, error) {
	var (
		matches    []detector.Match
		carry      string
		pending    []byte
		lineNumber int
	)

	emit := func(line string) {
		lineNumber++
		matches = append(matches, s.detector.Detect(line, lineNumber)...)
	}

	buf := make([]byte, s.cfg.ChunkSize)
	for {
		n, err := io.ReadFull(body, buf)
		atEOF := err == io.EOF || err == io.ErrUnexpectedEOF
		if err != nil && !atEOF {
			return matches, err
		}

		if n > 0 {
			data := append(pending, buf[:n]...)
			pending = nil
			if !atEOF {
				// Hold back a trailing incomplete UTF-8 sequence so the
				// decode never splits a multi-byte character.
				data, pending = splitIncompleteRune(data)
			}
			carry += s.decode(ctx, data, key)

			lines := strings.Split(carry, "\n")
			carry = lines[len(lines)-1]
			for _, line := range lines[:len(lines)-1] {
				emit(line)
			}
		}

		if atEOF {
			break
		}
	}

	if len(pending) > 0 {
		carry += s.decode(ctx, pending, key)
	}
	if carry != "" {
		emit(carry)
	}
	return matches, nil
}

// decode interprets a chunk as UTF-8, falling back to a byte-per-rune
// Latin-1 decode so no chunk is ever dropped.
func (s *Scanner) decode(ctx context.Context, data []byte, key string) string {
	if utf8.Valid(data) {
		return string(data)
	}
	s.log.Warn(ctx, "invalid utf-8 chunk, falling back to latin-1", "object_key", key)
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

// splitIncompleteRune splits data so that complete never ends in a truncated
// multi-byte UTF-8 sequence; the truncated tail, if any, is returned as rest.
func splitIncompleteRune(data []byte) (complete, rest []byte) {
	for i := 1; i <= utf8.UTFMax && i <= len(data); i++ {
		b := data[len(data)-i]
		if b < 0x80 {
			// ASCII tail, nothing pending.
			return data, nil
		}
		if b >= 0xC0 {
			// Sequence-start byte: pending only if its sequence extends past
			// the end of data.
			want := expectedSequenceLen(b)
			if want > i {
				return data[:len(data)-i], data[len(data)-i:]
			}
			return data, nil
		}
		// Continuation byte, keep scanning backward.
	}
	return data, nil
}

func expectedSequenceLen(b byte) int {
	switch {
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		// Invalid lead byte; let the Latin-1 fallback deal with it.
		return 1
	}
}
