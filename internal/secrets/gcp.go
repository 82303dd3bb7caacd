// Package secrets resolves configuration values stored in Google Cloud
// Secret Manager.
package secrets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"github.com/JonMunkholm/feedsync/internal/config"
)

var _ config.SecretResolver = (*GCPResolver)(nil)

// GCPResolver reads the latest version of a secret. The Secret Manager
// client is created on first use, so a configuration without secret
// references never dials the API.
type GCPResolver struct {
	mu     sync.Mutex
	client *secretmanager.Client
}

// NewGCPResolver returns a resolver with a lazily created client.
func NewGCPResolver() *GCPResolver {
	return &GCPResolver{}
}

// ResolveSecret implements config.SecretResolver. name is a full resource
// name, projects/<p>/secrets/<s>, optionally followed by /versions/<v>.
func (r *GCPResolver) ResolveSecret(ctx context.Context, name string) (string, error) {
	client, err := r.getClient(ctx)
	if err != nil {
		return "", err
	}

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: VersionName(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret: %w", err)
	}
	return strings.TrimSpace(string(result.Payload.GetData())), nil
}

func (r *GCPResolver) getClient(ctx context.Context) (*secretmanager.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		return r.client, nil
	}
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	r.client = client
	return client, nil
}

// Close releases the client, if one was created.
func (r *GCPResolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

// VersionName pins a secret name to its latest version unless a version is
// already given.
func VersionName(name string) string {
	if strings.Contains(name, "/versions/") {
		return name
	}
	return strings.TrimRight(name, "/") + "/versions/latest"
}
