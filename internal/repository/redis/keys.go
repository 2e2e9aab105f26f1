package redis

import "fmt"

const ns = "rentgo:v1"

// KeyAvailability caches the computed availability map for one tenant and
// calendar day. day is the ISO date (2006-01-02).
func KeyAvailability(tenantID int64, day string) string {
	return fmt.Sprintf("%s:tenant:%d:availability:%s", ns, tenantID, day)
}

func KeyIdemBooking(tenantID int64, idemKey string) string {
	return fmt.Sprintf("%s:idem:booking:%d:%s", ns, tenantID, idemKey)
}

func KeyConvertLock(invoiceID string) string {
	return fmt.Sprintf("%s:lock:convert:%s", ns, invoiceID)
}

// KeyRateLimitPrefix is the limiter key prefix for one scope; the limiter
// appends the caller-supplied suffix.
func KeyRateLimitPrefix(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}

func ChannelAvailabilityChanged() string {
	return ns + ":availability:changed"
}
