package cache

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/tallykit/tallygate/pkg/protocol"
)

// Key generates a deterministic cache key for a report and its parameters.
// Parameters are sorted before hashing, so insertion order never affects
// the key. The key is the MD5 hex digest of "report|k=v&k=v".
func Key(report protocol.Report, params protocol.Params) string {
	parts := []string{report.String()}

	if len(params) > 0 {
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)

		pairs := make([]string, 0, len(names))
		for _, name := range names {
			pairs = append(pairs, name+"="+params[name])
		}
		parts = append(parts, strings.Join(pairs, "&"))
	}

	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
