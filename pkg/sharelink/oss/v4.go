package oss

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/tendant/simple-sharelink/pkg/sharelink"
)

const (
	v4Algorithm     = "OSS4-HMAC-SHA256"
	v4Product       = "oss"
	v4Terminator    = "aliyun_v4_request"
	v4KeyPrefix     = "aliyun_v4"
	defaultRegion   = "cn-hangzhou"
	unsignedPayload = "UNSIGNED-PAYLOAD"

	isoDateTimeLayout = "20060102T150405Z"
)

// V4Signer signs direct requests with the advanced V4 protocol: a
// four-stage HMAC-SHA256 key derivation followed by a hex-encoded HMAC
// over the string-to-sign.
type V4Signer struct {
	creds Credentials
}

// NewV4Signer creates a V4 signer.
func NewV4Signer(creds Credentials) *V4Signer {
	return &V4Signer{creds: creds}
}

// Authorization computes the V4 Authorization header for a request.
// extraHeaders join the three always-signed headers (host,
// x-oss-content-sha256, x-oss-date); the caller must send every signed
// header verbatim.
func (s *V4Signer) Authorization(method, path, rawQuery, host string, extraHeaders map[string]string, now time.Time) (string, error) {
	if s.creds.AccessKeySecret == "" {
		return "", sharelink.ErrSigningFailure
	}

	isoDateTime := now.UTC().Format(isoDateTimeLayout)
	dateOnly := isoDateTime[:8]
	region := regionFromHost(host)

	headers := map[string]string{
		"host":                 host,
		"x-oss-content-sha256": unsignedPayload,
		"x-oss-date":           isoDateTime,
	}
	for name, value := range extraHeaders {
		headers[strings.ToLower(name)] = strings.TrimSpace(value)
	}

	canonicalRequest := strings.Join([]string{
		method,
		path,
		canonicalQueryString(rawQuery),
		canonicalHeaders(headers),
		signedHeaderList(headers),
		unsignedPayload,
	}, "\n")

	scope := dateOnly + "/" + region + "/" + v4Product + "/" + v4Terminator
	hashed := sha256.Sum256([]byte(canonicalRequest))
	stringToSign := strings.Join([]string{
		v4Algorithm,
		isoDateTime,
		scope,
		hex.EncodeToString(hashed[:]),
	}, "\n")

	key := signingKey(s.creds.AccessKeySecret, dateOnly, region)
	signature := hex.EncodeToString(hmacSHA256(key, []byte(stringToSign)))

	var b strings.Builder
	b.WriteString(v4Algorithm)
	b.WriteString(" Credential=")
	b.WriteString(s.creds.AccessKeyID + "/" + scope)
	b.WriteString(", Signature=")
	b.WriteString(signature)
	// AdditionalHeaders carries the signed-header list itself, per the
	// provider's convention.
	if list := signedHeaderList(headers); list != "" {
		b.WriteString(", AdditionalHeaders=")
		b.WriteString(list)
	}
	return b.String(), nil
}

// SignedHeaders returns the headers a caller must set on the request for
// the given instant, excluding Host which net/http derives from the URL.
func (s *V4Signer) SignedHeaders(now time.Time) map[string]string {
	return map[string]string{
		"x-oss-content-sha256": unsignedPayload,
		"x-oss-date":           now.UTC().Format(isoDateTimeLayout),
	}
}

// signingKey derives the per-date signing key:
//
//	kDate    = HMAC("aliyun_v4"+secret, date)
//	kRegion  = HMAC(kDate, region)
//	kService = HMAC(kRegion, "oss")
//	kSigning = HMAC(kService, "aliyun_v4_request")
func signingKey(secret, date, region string) []byte {
	kDate := hmacSHA256([]byte(v4KeyPrefix+secret), []byte(date))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(v4Product))
	return hmacSHA256(kService, []byte(v4Terminator))
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// regionFromHost extracts the region from an "oss-<region>.aliyuncs.com"
// host, falling back to the default region when the pattern is absent.
func regionFromHost(host string) string {
	start := strings.Index(host, "oss-")
	end := strings.Index(host, ".aliyuncs.com")
	if start >= 0 && end > start {
		region := host[start+len("oss-") : end]
		if region != "" && region != "oss" {
			return region
		}
	}
	return defaultRegion
}

// canonicalQueryString parses raw key=value pairs split on '&', encodes
// each key and value independently under RFC 3986 rules, sorts by encoded
// key and re-joins. Valueless parameters keep no '='. The result is
// invariant under re-ordering of the input.
func canonicalQueryString(rawQuery string) string {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	if rawQuery == "" {
		return ""
	}

	type pair struct{ key, value string }
	var pairs []pair
	for _, param := range strings.Split(rawQuery, "&") {
		if param == "" {
			continue
		}
		if eq := strings.Index(param, "="); eq >= 0 {
			pairs = append(pairs, pair{encodeQuery(param[:eq]), encodeQuery(param[eq+1:])})
		} else {
			pairs = append(pairs, pair{key: encodeQuery(param)})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value == "" {
			parts = append(parts, p.key)
		} else {
			parts = append(parts, p.key+"="+p.value)
		}
	}
	return strings.Join(parts, "&")
}

// canonicalHeaders lower-cases names, trims values, sorts by name and
// joins as "name:value" lines.
func canonicalHeaders(headers map[string]string) string {
	lines := make([]string, 0, len(headers))
	for name, value := range headers {
		lines = append(lines, strings.ToLower(name)+":"+strings.TrimSpace(value))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// signedHeaderList is the sorted, semicolon-joined list of lower-cased
// signed header names.
func signedHeaderList(headers map[string]string) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, strings.ToLower(name))
	}
	sort.Strings(names)
	return strings.Join(names, ";")
}
