package redact

import (
	"io"
	"sync"

	aho "github.com/petar-dambovaliev/aho-corasick"
)

const placeholder = "[REDACTED]"

// MaskingWriter wraps an io.Writer and replaces any occurrence of registered
// secret values with [REDACTED]. Uses Aho-Corasick for efficient multi-pattern
// matching. Handles matches that span Write() call boundaries by buffering.
//
// Secrets can be added after construction: the server registers access tokens,
// refresh tokens and bot tokens as they pass through the OAuth and deployment
// flows, so none of them can leak into log output.
type MaskingWriter struct {
	mu           sync.Mutex
	out          io.Writer
	matcher      aho.AhoCorasick
	secrets      []string
	seen         map[string]bool
	maxSecretLen int
	buf          []byte
}

// NewMaskingWriter creates a MaskingWriter that redacts all given secret
// values. If no secrets are registered, writes pass through unmodified.
func NewMaskingWriter(out io.Writer, secrets []string) *MaskingWriter {
	mw := &MaskingWriter{out: out, seen: make(map[string]bool)}
	mw.addLocked(secrets)
	return mw
}

// Add registers additional secret values to redact. Empty strings are
// ignored; they break the buffer arithmetic and are meaningless to match.
func (mw *MaskingWriter) Add(secrets ...string) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.addLocked(secrets)
}

func (mw *MaskingWriter) addLocked(secrets []string) {
	changed := false
	for _, s := range secrets {
		if len(s) == 0 || mw.seen[s] {
			continue
		}
		mw.seen[s] = true
		mw.secrets = append(mw.secrets, s)
		if len(s) > mw.maxSecretLen {
			mw.maxSecretLen = len(s)
		}
		changed = true
	}
	if !changed || len(mw.secrets) == 0 {
		return
	}
	builder := aho.NewAhoCorasickBuilder(aho.Opts{})
	mw.matcher = builder.Build(mw.secrets)
}

// Write implements io.Writer. Data may be buffered to handle cross-boundary
// matches.
func (mw *MaskingWriter) Write(p []byte) (int, error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	if len(mw.secrets) == 0 {
		return mw.out.Write(p)
	}

	mw.buf = append(mw.buf, p...)

	if err := mw.processBuffer(false); err != nil {
		return 0, err
	}

	return len(p), nil
}

// Flush writes any remaining buffered data, performing final masking.
func (mw *MaskingWriter) Flush() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	if len(mw.secrets) == 0 {
		return nil
	}
	return mw.processBuffer(true)
}

func (mw *MaskingWriter) processBuffer(flushAll bool) error {
	if len(mw.buf) == 0 {
		return nil
	}

	// Determine how far we can safely emit.
	// We retain maxSecretLen-1 bytes to handle cross-boundary matches,
	// unless we're flushing everything.
	safeEnd := len(mw.buf)
	if !flushAll {
		safeEnd = len(mw.buf) - (mw.maxSecretLen - 1)
		if safeEnd <= 0 {
			return nil
		}
	}

	// Search the ENTIRE buffer for matches (not just the safe zone)
	// so we can detect matches that straddle the safe boundary.
	matches := mw.matcher.FindAll(string(mw.buf))

	var result []byte
	pos := 0
	consumedEnd := safeEnd

	for _, m := range matches {
		start := m.Start()
		end := m.End()

		if start < pos {
			continue // overlapping match
		}

		// Matches entirely beyond the safe boundary stay in the buffer.
		if start >= safeEnd && !flushAll {
			break
		}

		result = append(result, mw.buf[pos:start]...)
		result = append(result, []byte(placeholder)...)
		pos = end

		// If the match crosses safeEnd, advance consumedEnd past it.
		if end > consumedEnd {
			consumedEnd = end
		}
	}

	if pos < safeEnd {
		result = append(result, mw.buf[pos:safeEnd]...)
	}

	if len(result) > 0 {
		if _, err := mw.out.Write(result); err != nil {
			return err
		}
	}

	remaining := make([]byte, len(mw.buf)-consumedEnd)
	copy(remaining, mw.buf[consumedEnd:])
	mw.buf = remaining

	return nil
}
