package gateway

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const orderIDPrefix = "order"

// BuildOrderID generates a globally unique order identifier that embeds the
// owning user id: order_<userID>_<unix-ms>_<rand>. The embedded id is
// load-bearing: renewal verification parses it back out and cross-checks it
// against the caller-supplied user id.
func BuildOrderID(userID string, now time.Time) string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("%s_%s_%d_%s", orderIDPrefix, userID, now.UnixMilli(), hex.EncodeToString(suffix))
}

// ParseOrderUserID recovers the owning user id from an order id produced by
// BuildOrderID. User ids are UUIDs and never contain underscores, so the
// separator is unambiguous.
func ParseOrderUserID(orderID string) (string, error) {
	parts := strings.Split(orderID, "_")
	if len(parts) != 4 || parts[0] != orderIDPrefix || parts[1] == "" {
		return "", fmt.Errorf("malformed order id: %q", orderID)
	}
	return parts[1], nil
}
