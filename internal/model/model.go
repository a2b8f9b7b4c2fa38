package model

import "time"

// ProviderGoogle is the only provider currently supported.
const ProviderGoogle = "google"

// Credential represents a user's stored OAuth2 credentials for a provider.
// Token fields are encrypted at rest; the store decrypts them on read.
type Credential struct {
	UserID       string    `json:"user_id" dynamodbav:"user_id"`
	Provider     string    `json:"provider" dynamodbav:"provider"`
	AccessToken  string    `json:"-" dynamodbav:"access_token"`
	RefreshToken string    `json:"-" dynamodbav:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at" dynamodbav:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Expired reports whether the access token is expired or about to expire.
// The skew avoids handing out a token that dies mid-request.
func (c *Credential) Expired(skew time.Duration) bool {
	return time.Now().Add(skew).After(c.ExpiresAt)
}

// RemoteFile is file metadata as returned by a drive listing call.
// It is transient and never persisted.
type RemoteFile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MIMEType     string    `json:"mimeType"`
	WebViewLink  string    `json:"webViewLink"`
	ModifiedTime time.Time `json:"modifiedTime"`
}

// Document is the aggregation result: a RemoteFile paired with its
// extracted text content. Exists only for a request/response cycle.
type Document struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Content      string    `json:"content"`
	URL          string    `json:"url"`
	LastModified time.Time `json:"lastModified"`
}

// Connection describes the state of a user's provider connection,
// returned by GET /api/user/connections.
type Connection struct {
	Provider  string    `json:"provider"`
	Connected bool      `json:"connected"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// RefreshLock represents an in-flight credential refresh for a
// (user, provider) pair. Stored in DynamoDB with a short TTL so a crashed
// refresher cannot wedge the credential forever.
type RefreshLock struct {
	Key       string `json:"key" dynamodbav:"lock_key"`
	Owner     string `json:"owner" dynamodbav:"owner"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix timestamp)
}
