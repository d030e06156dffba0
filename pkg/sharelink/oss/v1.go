// Package oss implements the storage provider's proprietary HMAC
// URL-signing protocols: the legacy V1 scheme (HMAC-SHA1, base64) and the
// advanced V4 scheme (derived-key HMAC-SHA256, hex), plus a read-only
// listing client that authenticates with either.
package oss

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/tendant/simple-sharelink/pkg/sharelink"
)

// Credentials is the shared key pair issued by the storage provider.
type Credentials struct {
	AccessKeyID     string
	AccessKeySecret string
}

// V1Signer mints presigned GET URLs using the legacy V1 protocol. It
// implements sharelink.URLSigner.
type V1Signer struct {
	creds           Credentials
	defaultBucket   string
	defaultEndpoint string
}

// NewV1Signer creates a signer. Either default may be empty if every ticket
// carries the matching override.
func NewV1Signer(creds Credentials, defaultBucket, defaultEndpoint string) *V1Signer {
	return &V1Signer{
		creds:           creds,
		defaultBucket:   defaultBucket,
		defaultEndpoint: defaultEndpoint,
	}
}

// SignDownloadURL builds the V1 presigned URL. The legacy protocol reuses
// the Date slot of the string-to-sign for the Unix expiry timestamp in
// presigned mode; content hashes and custom headers are always empty for
// redemption links. Query parameters appear in fixed order:
// OSSAccessKeyId, Expires, Signature, then the optional disposition.
func (s *V1Signer) SignDownloadURL(ctx context.Context, req sharelink.SignURLRequest) (*sharelink.SignedURL, error) {
	bucket := req.Bucket
	if bucket == "" {
		bucket = s.defaultBucket
	}
	if bucket == "" {
		return nil, sharelink.ErrMissingBucket
	}

	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = s.defaultEndpoint
	}
	if endpoint == "" {
		return nil, sharelink.ErrMissingEndpoint
	}

	encodedKey := encodePath(req.ObjectKey)
	expires := req.ExpiresAt.Unix()

	canonicalResource := "/" + bucket + "/" + encodedKey
	extraQuery := ""
	if strings.TrimSpace(req.DownloadFilename) != "" {
		// The same encoded disposition value is both signed and sent, so
		// the provider reconstructs an identical canonical resource.
		sanitized := strings.ReplaceAll(req.DownloadFilename, `"`, "")
		disposition := `attachment; filename="` + sanitized + `"`
		encodedDisposition := encodeStrict(disposition)
		canonicalResource += "?response-content-disposition=" + encodedDisposition
		extraQuery = "&response-content-disposition=" + encodedDisposition
	}

	stringToSign := fmt.Sprintf("GET\n\n\n%d\n%s", expires, canonicalResource)
	signature, err := signV1(s.creds.AccessKeySecret, stringToSign)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s?OSSAccessKeyId=%s&Expires=%d&Signature=%s%s",
		buildHost(bucket, endpoint),
		encodedKey,
		encodeStrict(s.creds.AccessKeyID),
		expires,
		encodeStrict(signature),
		extraQuery,
	)

	return &sharelink.SignedURL{URL: url, ExpiresAt: req.ExpiresAt}, nil
}

// Authorization returns the V1 "OSS key:signature" header value used for
// direct API requests such as bucket listing.
func (s *V1Signer) Authorization(method, contentMD5, contentType, date, canonicalHeaders, canonicalResource string) (string, error) {
	stringToSign := strings.Join([]string{method, contentMD5, contentType, date, canonicalHeaders + canonicalResource}, "\n")
	signature, err := signV1(s.creds.AccessKeySecret, stringToSign)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("OSS %s:%s", s.creds.AccessKeyID, signature), nil
}

func signV1(secret, stringToSign string) (string, error) {
	if secret == "" {
		return "", sharelink.ErrSigningFailure
	}
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// buildHost resolves the download host for a bucket. Endpoints may carry a
// "{bucket}" placeholder, a full scheme-prefixed base, or a bare host that
// becomes a virtual-hosted-style subdomain.
func buildHost(bucket, endpoint string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	switch {
	case strings.Contains(trimmed, "{bucket}"):
		return strings.ReplaceAll(trimmed, "{bucket}", bucket)
	case strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://"):
		return trimmed + "/" + bucket
	default:
		return "https://" + bucket + "." + trimmed
	}
}
