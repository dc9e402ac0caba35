// Package ident generates the prefixed, time-ordered ids used by every
// collection: <prefix>_<unix-ms>_<9 random chars>, e.g. cmd_1718000000000_k3j9x0a1b.
//
// Uniqueness is best-effort: collisions need two ids in the same millisecond
// with the same 36 random bits.
package ident

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const suffixLen = 9

// Now is the clock used for the timestamp segment; tests may replace it.
var Now = time.Now

// New returns a fresh id for prefix ("client", "cmd", "prod", "msg").
func New(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
	return prefix + "_" + strconv.FormatInt(Now().UnixMilli(), 10) + "_" + suffix
}

// Short is the human-facing reference of an id: the first 8 characters of
// its timestamp segment. Ids without a timestamp segment are returned as-is,
// truncated to 8.
func Short(id string) string {
	parts := strings.Split(id, "_")
	seg := id
	if len(parts) > 1 {
		seg = parts[1]
	}
	if len(seg) > 8 {
		seg = seg[:8]
	}
	return seg
}
