package ratelimit

import "strings"

// KeyForUser builds the limiter key for an authenticated user.
func KeyForUser(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ""
	}
	return "u:" + userID
}

// KeyForClient builds the limiter key for an anonymous client address.
func KeyForClient(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return ""
	}
	return "ip:" + ip
}
