// ABOUTME: HTTP client for publishing provenance entities to a FAIRSCAPE server.
// ABOUTME: Also provides a Registrar decorator that publishes every locally registered entity.
package provenance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/2389-research/ppiembed/internal/errs"
	"github.com/2389-research/ppiembed/internal/logger"
	"github.com/2389-research/ppiembed/internal/models"
)

// Entity kinds published to the remote API.
const (
	KindROCrate     = "rocrate"
	KindSoftware    = "software"
	KindDataset     = "dataset"
	KindComputation = "computation"
)

// Entity is the JSON body sent when publishing a registration.
type Entity struct {
	ID       string `json:"@id"`
	Kind     string `json:"kind"`
	Metadata any    `json:"metadata"`
}

// Publisher sends registered entities to a remote provenance service.
type Publisher interface {
	Publish(ctx context.Context, entity Entity) error
}

// RemoteClient publishes provenance to a FAIRSCAPE API.
type RemoteClient struct {
	apiURL   string
	username string
	token    string
	client   *http.Client
}

// NewRemoteClient creates a remote client with the given credentials.
func NewRemoteClient(apiURL, username, token string) *RemoteClient {
	return &RemoteClient{
		apiURL:   strings.TrimRight(apiURL, "/"),
		username: username,
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *RemoteClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	if r.username != "" {
		req.Header.Set("X-Fairscape-User", r.username)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (r *RemoteClient) do(req *http.Request) error {
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return fmt.Errorf("remote API returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Publish posts an entity to /<kind>.
func (r *RemoteClient) Publish(ctx context.Context, entity Entity) error {
	body, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", entity.Kind, err)
	}
	req, err := r.newRequest(ctx, http.MethodPost, "/"+entity.Kind, bytes.NewReader(body))
	if err != nil {
		return err
	}
	return r.do(req)
}

// Ping checks that the API is reachable and accepts the credentials.
func (r *RemoteClient) Ping(ctx context.Context) error {
	req, err := r.newRequest(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return err
	}
	return r.do(req)
}

// RemoteRegistrar registers through an inner Registrar and then publishes
// each new entity. A failed publish is a ProvenanceError.
type RemoteRegistrar struct {
	inner     Registrar
	publisher Publisher
}

// NewRemoteRegistrar wraps inner so every registration is also published.
func NewRemoteRegistrar(inner Registrar, publisher Publisher) *RemoteRegistrar {
	return &RemoteRegistrar{inner: inner, publisher: publisher}
}

func (r *RemoteRegistrar) publish(ctx context.Context, kind, id string, meta any) error {
	logger.Debug("publishing to fairscape", "kind", kind, "id", id)
	if err := r.publisher.Publish(ctx, Entity{ID: id, Kind: kind, Metadata: meta}); err != nil {
		return errs.Provenancef("failed to publish %s %s: %v", kind, id, err)
	}
	return nil
}

// ReadInputCrate delegates to the inner registrar.
func (r *RemoteRegistrar) ReadInputCrate(dir string) (*InputCrate, error) {
	return r.inner.ReadInputCrate(dir)
}

// RegisterROCrate registers locally and publishes the new crate.
func (r *RemoteRegistrar) RegisterROCrate(ctx context.Context, dir string, meta models.CrateMetadata) error {
	if err := r.inner.RegisterROCrate(ctx, dir, meta); err != nil {
		return err
	}
	crate, err := r.inner.ReadInputCrate(dir)
	if err != nil {
		return err
	}
	return r.publish(ctx, KindROCrate, crate.ID, meta)
}

// RegisterSoftware registers locally and publishes the software entity.
func (r *RemoteRegistrar) RegisterSoftware(ctx context.Context, dir string, meta models.SoftwareMetadata) (string, error) {
	id, err := r.inner.RegisterSoftware(ctx, dir, meta)
	if err != nil {
		return "", err
	}
	return id, r.publish(ctx, KindSoftware, id, meta)
}

// RegisterDataset registers locally and publishes the dataset entity.
func (r *RemoteRegistrar) RegisterDataset(ctx context.Context, dir, sourceFile string, meta models.DatasetMetadata) (string, error) {
	id, err := r.inner.RegisterDataset(ctx, dir, sourceFile, meta)
	if err != nil {
		return "", err
	}
	return id, r.publish(ctx, KindDataset, id, meta)
}

// RegisterComputation registers locally and publishes the computation entity.
func (r *RemoteRegistrar) RegisterComputation(ctx context.Context, dir string, meta models.ComputationMetadata) (string, error) {
	id, err := r.inner.RegisterComputation(ctx, dir, meta)
	if err != nil {
		return "", err
	}
	return id, r.publish(ctx, KindComputation, id, meta)
}
