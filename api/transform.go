package api

import (
	"strings"

	"github.com/docforge/docforge/domain"
)

// openFenceWindow bounds how many bytes are buffered while deciding whether
// the stream opens with a code fence. Once a newline arrives, or the window
// fills without a fence, the decision is final.
const openFenceWindow = 24

// trailingHoldbackMax bounds how many trailing bytes are withheld as a
// possible partial closing fence. "\n```" plus a little whitespace fits well
// within this.
const trailingHoldbackMax = 12

// fenceStripper removes a Markdown code fence wrapping the whole stream.
//
// The model is asked for bare JSON for the tasks artifact but typically wraps
// it in ```json fences. Chunk boundaries are arbitrary and a fence marker can
// straddle two chunks, so the stripper buffers until a stable boundary before
// deciding on the opening fence, and holds back a small tail that could turn
// out to be the closing fence. Interior fences are left alone.
type fenceStripper struct {
	buf    string
	opened bool
}

// transformFor returns the output transform for an artifact, or nil for the
// identity transform.
func transformFor(artifact domain.ArtifactType) *fenceStripper {
	if artifact == domain.ArtifactTasks {
		return &fenceStripper{}
	}
	return nil
}

// Feed consumes one upstream chunk and returns the text safe to emit now.
func (f *fenceStripper) Feed(chunk string) string {
	f.buf += chunk

	if !f.opened {
		trimmed := strings.TrimLeft(f.buf, " \t\r\n")
		switch {
		case strings.IndexByte(trimmed, '\n') >= 0 || len(trimmed) > openFenceWindow:
			f.buf = stripLeadingFence(f.buf)
			f.opened = true
		case len(trimmed) > 0 && !couldOpenFence(trimmed):
			// Plain text from the first non-whitespace byte, no fence coming.
			f.opened = true
		default:
			// Not enough text to decide on an opening fence yet.
			return ""
		}
	}

	keep := trailingHoldback(f.buf)
	out := f.buf[:len(f.buf)-keep]
	f.buf = f.buf[len(f.buf)-keep:]
	return out
}

// Finish flushes the held-back tail, stripping a closing fence if the stream
// ends with one.
func (f *fenceStripper) Finish() string {
	if !f.opened {
		// Stream ended before the opening-fence decision was made.
		f.buf = stripLeadingFence(f.buf)
		f.opened = true
	}
	out := stripTrailingFence(f.buf)
	f.buf = ""
	return out
}

// couldOpenFence reports whether text starting at the first non-whitespace
// byte could still turn out to be an opening fence.
func couldOpenFence(trimmed string) bool {
	if len(trimmed) < 3 {
		return strings.HasPrefix("```", trimmed)
	}
	return strings.HasPrefix(trimmed, "```")
}

// stripLeadingFence removes a leading ``` or ```json fence, tolerating
// leading whitespace before the fence.
func stripLeadingFence(s string) string {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	rest := strings.TrimPrefix(trimmed, "```")
	rest = strings.TrimPrefix(rest, "json")
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")
	return rest
}

// stripTrailingFence removes a trailing ``` fence and the newline that
// introduced it, tolerating trailing whitespace after the fence.
func stripTrailingFence(s string) string {
	trimmed := strings.TrimRight(s, " \t\r\n")
	if !strings.HasSuffix(trimmed, "```") {
		return s
	}
	out := strings.TrimSuffix(trimmed, "```")
	out = strings.TrimSuffix(out, "\n")
	out = strings.TrimSuffix(out, "\r")
	return out
}

// trailingHoldback returns how many trailing bytes of s could still be part
// of a closing fence and must be withheld until more text arrives.
func trailingHoldback(s string) int {
	n := 0
	for n < len(s) && n < trailingHoldbackMax {
		c := s[len(s)-1-n]
		if c != '`' && c != '\n' && c != '\r' && c != ' ' && c != '\t' {
			break
		}
		n++
	}
	return n
}
