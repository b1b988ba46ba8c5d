package fdfsproto

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"time"
)

// GenerateToken computes the 32-hex-character anti-leech token:
// MD5(fileID ‖ secret ‖ decimal-timestamp).
func GenerateToken(secret, fileID string, ts int64) string {
	sum := md5.Sum([]byte(fileID + secret + strconv.FormatInt(ts, 10)))
	return hex.EncodeToString(sum[:])
}

// CheckToken reports whether token is the valid anti-leech token for
// fileID at ts, generated with secret, and ts is within ttl of now. The
// comparison is constant-time to avoid leaking the expected token's bytes
// through timing.
func CheckToken(token, secret, fileID string, ts int64, now time.Time, ttl time.Duration) bool {
	if ttl < 0 {
		return false
	}
	age := now.Unix() - ts
	if age < 0 {
		age = -age
	}
	if time.Duration(age)*time.Second > ttl {
		return false
	}
	want := GenerateToken(secret, fileID, ts)
	return subtle.ConstantTimeCompare([]byte(token), []byte(want)) == 1
}
