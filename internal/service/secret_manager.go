package service

import (
	"context"
	"fmt"

	"complianceai/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// SecretSource reads the latest version of a named secret.
type SecretSource interface {
	Get(ctx context.Context, name string) (string, error)
}

// SecretManagerService reads secrets from GCP Secret Manager.
type SecretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretManagerService(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*SecretManagerService, error) {
	projectID := cfg.GCPProjectID
	if projectID == "" {
		return nil, fmt.Errorf("GCP Project ID is not set for the current environment")
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &SecretManagerService{
		client:    client,
		projectID: projectID,
	}, nil
}

func (s *SecretManagerService) Get(ctx context.Context, name string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name)

	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	}

	result, err := s.client.AccessSecretVersion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}

	return string(result.Payload.Data), nil
}

func (s *SecretManagerService) Close() error {
	return s.client.Close()
}

// ApplySecrets overrides credentials in cfg with values from src. A secret
// that cannot be read keeps the value from the environment.
func ApplySecrets(ctx context.Context, cfg *config.Config, src SecretSource, logger zerolog.Logger) {
	targets := []struct {
		name string
		dst  *string
	}{
		{"db-connection-string", &cfg.DBConnectionString},
		{"session-secret", &cfg.SessionSecret},
		{"razorpay-key-id", &cfg.RazorpayKeyID},
		{"razorpay-key-secret", &cfg.RazorpayKeySecret},
		{"gemini-api-key", &cfg.GeminiAPIKey},
		{"s3-access-key", &cfg.S3AccessKey},
		{"s3-secret-key", &cfg.S3SecretKey},
	}
	for _, t := range targets {
		v, err := src.Get(ctx, t.name)
		if err != nil {
			logger.Warn().Err(err).Str("secret", t.name).Msg("Secret not loaded, keeping environment value")
			continue
		}
		if v != "" {
			*t.dst = v
		}
	}
}
