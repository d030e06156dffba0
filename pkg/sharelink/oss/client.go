package oss

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tendant/simple-sharelink/pkg/sharelink"
)

// SignatureVersion selects the protocol used to authenticate API requests.
type SignatureVersion string

const (
	SignatureV1 SignatureVersion = "v1"
	SignatureV4 SignatureVersion = "v4"
)

// defaultRequestTimeout bounds calls to the provider's listing APIs. The
// request context can shorten it further.
const defaultRequestTimeout = 30 * time.Second

// Sub-resources that participate in the V1 canonical resource. Other query
// parameters are sent but not signed.
var v1SubResources = map[string]struct{}{
	"acl": {}, "lifecycle": {}, "location": {}, "logging": {},
	"notification": {}, "partNumber": {}, "policy": {}, "requestPayment": {},
	"torrent": {}, "uploadId": {}, "uploads": {}, "versionId": {},
	"versioning": {}, "versions": {}, "website": {}, "cors": {},
	"delete": {}, "restore": {}, "tagging": {}, "encryption": {},
	"inventory": {}, "select": {}, "x-oss-process": {}, "continuation-token": {},
}

// ClientConfig configures the read-only listing client.
type ClientConfig struct {
	Credentials Credentials

	// Endpoint is the provider API endpoint, with or without scheme.
	Endpoint string

	// Signature selects v1 (default) or v4 request signing.
	Signature SignatureVersion

	// HTTPClient overrides the default client. The default carries a
	// 30-second timeout.
	HTTPClient *http.Client
}

// Client lists buckets and objects through the provider's XML APIs. It is
// read-only; uploads and bucket management are out of scope.
type Client struct {
	creds    Credentials
	endpoint string
	scheme   string
	v1       *V1Signer
	v4       *V4Signer
	sigver   SignatureVersion
	http     *http.Client
}

// NewClient creates a listing client. The endpoint is required.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, sharelink.ErrMissingEndpoint
	}

	sigver := cfg.Signature
	if sigver == "" {
		sigver = SignatureV1
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	scheme := "https"
	if strings.HasPrefix(strings.TrimSpace(cfg.Endpoint), "http://") {
		scheme = "http"
	}

	return &Client{
		creds:    cfg.Credentials,
		endpoint: cfg.Endpoint,
		scheme:   scheme,
		v1:       NewV1Signer(cfg.Credentials, "", ""),
		v4:       NewV4Signer(cfg.Credentials),
		sigver:   sigver,
		http:     httpClient,
	}, nil
}

// Bucket describes one bucket in a ListBuckets response.
type Bucket struct {
	Name             string `json:"name" xml:"Name"`
	Location         string `json:"location" xml:"Location"`
	CreationDate     string `json:"creation_date" xml:"CreationDate"`
	StorageClass     string `json:"storage_class" xml:"StorageClass"`
	ExtranetEndpoint string `json:"extranet_endpoint" xml:"ExtranetEndpoint"`
	IntranetEndpoint string `json:"intranet_endpoint" xml:"IntranetEndpoint"`
}

// BucketList is the decoded ListBuckets response.
type BucketList struct {
	Buckets []Bucket `json:"buckets"`
}

// ObjectInfo describes one object in a listing.
type ObjectInfo struct {
	Key          string `json:"key" xml:"Key"`
	LastModified string `json:"last_modified" xml:"LastModified"`
	Size         int64  `json:"size" xml:"Size"`
	StorageClass string `json:"storage_class" xml:"StorageClass"`
}

// ObjectList is the decoded ListObjectsV2 response.
type ObjectList struct {
	Objects               []ObjectInfo `json:"objects"`
	IsTruncated           bool         `json:"is_truncated"`
	NextContinuationToken string       `json:"next_continuation_token,omitempty"`
}

type listAllMyBucketsResult struct {
	Buckets struct {
		Bucket []Bucket `xml:"Bucket"`
	} `xml:"Buckets"`
}

type listBucketResult struct {
	IsTruncated           bool         `xml:"IsTruncated"`
	NextContinuationToken string       `xml:"NextContinuationToken"`
	Contents              []ObjectInfo `xml:"Contents"`
}

// ListBuckets returns every bucket the credentials can see.
func (c *Client) ListBuckets(ctx context.Context) (*BucketList, error) {
	host := hostFromEndpoint(c.endpoint)

	body, err := c.do(ctx, host, "/", nil, "/")
	if err != nil {
		return nil, err
	}

	var parsed listAllMyBucketsResult
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding bucket list: %w", err)
	}
	return &BucketList{Buckets: parsed.Buckets.Bucket}, nil
}

// ListObjects lists up to 1000 keys of a bucket via ListObjectsV2,
// optionally filtered by prefix and resumed with a continuation token. The
// bucket's own extranet endpoint is resolved through ListBuckets first.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix, continuationToken string) (*ObjectList, error) {
	buckets, err := c.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}

	var endpoint string
	for _, b := range buckets.Buckets {
		if b.Name == bucket {
			endpoint = b.ExtranetEndpoint
			break
		}
	}
	if endpoint == "" {
		return nil, fmt.Errorf("bucket %q not found", bucket)
	}

	// Virtual-hosted-style host: bucket.oss-region.aliyuncs.com.
	host := bucket + "." + hostFromEndpoint(endpoint)

	query := url.Values{}
	query.Set("list-type", "2")
	query.Set("max-keys", "1000")
	if prefix != "" {
		query.Set("prefix", prefix)
	}
	if continuationToken != "" {
		query.Set("continuation-token", continuationToken)
	}

	body, err := c.do(ctx, host, "/", query, v1CanonicalResource(bucket, query))
	if err != nil {
		return nil, err
	}

	var parsed listBucketResult
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding object list: %w", err)
	}
	return &ObjectList{
		Objects:               parsed.Contents,
		IsTruncated:           parsed.IsTruncated,
		NextContinuationToken: parsed.NextContinuationToken,
	}, nil
}

// do issues a signed GET and returns the response body, treating any
// non-2xx status as an error.
func (c *Client) do(ctx context.Context, host, path string, query url.Values, canonicalResource string) ([]byte, error) {
	u := c.scheme + "://" + host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Host", host)

	if err := c.sign(req, host, path, query); err != nil {
		return nil, err
	}
	if c.sigver == SignatureV1 {
		date := time.Now().UTC().Format(http.TimeFormat)
		req.Header.Set("Date", date)
		authorization, err := c.v1.Authorization(http.MethodGet, "", "", date, "", canonicalResource)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// sign applies V4 headers and authorization when configured. V1 signing is
// handled in do because it needs the canonical resource.
func (c *Client) sign(req *http.Request, host, path string, query url.Values) error {
	if c.sigver != SignatureV4 {
		return nil
	}

	now := time.Now()
	for name, value := range c.v4.SignedHeaders(now) {
		req.Header.Set(name, value)
	}
	authorization, err := c.v4.Authorization(http.MethodGet, path, query.Encode(), host, nil, now)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", authorization)
	return nil
}

// v1CanonicalResource builds "/bucket/" plus any signed sub-resource
// parameters in sorted order.
func v1CanonicalResource(bucket string, query url.Values) string {
	resource := "/" + bucket + "/"

	var keys []string
	for key := range query {
		if _, ok := v1SubResources[key]; ok {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return resource
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if value := query.Get(key); value != "" {
			parts = append(parts, encodeQuery(key)+"="+encodeQuery(value))
		} else {
			parts = append(parts, encodeQuery(key))
		}
	}
	return resource + "?" + strings.Join(parts, "&")
}

// hostFromEndpoint strips scheme and trailing slashes from an endpoint.
func hostFromEndpoint(endpoint string) string {
	host := strings.TrimSpace(endpoint)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimRight(host, "/")
}
