package cache

import (
	"fmt"
	"sort"
	"strings"
)

// keyPrefix namespaces every dashboard cache entry so invalidation can use a
// single pattern scan.
const keyPrefix = "dashboard"

// Key builds a deterministic cache key for one endpoint read. Params are
// sorted by name so the same query always maps to the same key regardless of
// argument order.
func Key(channelID, endpoint string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(keyPrefix)
	b.WriteByte(':')
	b.WriteString(channelID)
	b.WriteByte(':')
	b.WriteString(endpoint)

	if len(params) == 0 {
		return b.String()
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(&b, ":%s=%s", name, params[name])
	}

	return b.String()
}

// ChannelPattern matches every cache entry belonging to one channel.
func ChannelPattern(channelID string) string {
	return fmt.Sprintf("%s:%s:*", keyPrefix, channelID)
}
