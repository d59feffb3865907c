package download

import (
	"log/slog"
	"strconv"
	"strings"
)

const rangeHeader = "Range"

// NegotiateRange returns the Range header value asking for everything
// from completed onwards. ok is false for a fresh download.
func NegotiateRange(completed int64) (value string, ok bool) {
	if completed <= 0 {
		return "", false
	}

	return "bytes=" + strconv.FormatInt(completed, 10) + "-", true
}

// mergeRange drops any caller supplied Range entry and appends the
// negotiated one. The negotiated value always wins.
func mergeRange(headers []Header, completed int64, logger *slog.Logger) []Header {
	value, ok := NegotiateRange(completed)

	merged := make([]Header, 0, len(headers)+1)
	for _, h := range headers {
		if strings.EqualFold(h.Name, rangeHeader) {
			logger.Warn("overriding caller range header", "supplied", h.Value, "negotiated", value)
			continue
		}
		merged = append(merged, h)
	}

	if ok {
		merged = append(merged, Header{Name: rangeHeader, Value: value})
	}

	return merged
}
