package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mo-amir99/training-portal/internal/content"
	"github.com/mo-amir99/training-portal/internal/onelake"
	"github.com/mo-amir99/training-portal/pkg/config"
)

// ContentStack is the document store together with the content client on top.
type ContentStack struct {
	Store  *onelake.Client
	Client *content.Client
}

// OpenContent builds the OneLake client from configuration, verifies that a
// token can be obtained and loads the optional catalog file. A credential
// failure is returned unwrapped from onelake so callers can treat it as fatal.
func OpenContent(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ContentStack, error) {
	fabric := cfg.Fabric
	tokens, err := onelake.NewTokenSource(ctx, onelake.Credentials{
		AccessToken:  fabric.AccessToken,
		TenantID:     fabric.TenantID,
		ClientID:     fabric.ClientID,
		ClientSecret: fabric.ClientSecret,
		Authority:    fabric.Authority,
	})
	if err != nil {
		return ContentStack{}, err
	}

	store := onelake.NewClient(onelake.Config{
		Endpoint:       fabric.Endpoint,
		Workspace:      fabric.Workspace,
		Lakehouse:      fabric.Lakehouse,
		Folder:         fabric.Folder,
		APIVersion:     fabric.APIVersion,
		Timeout:        fabric.Timeout,
		MaxRetries:     fabric.MaxRetries,
		InitialBackoff: fabric.InitialBackoff,
	}, tokens, logger)

	if err := store.VerifyCredentials(ctx); err != nil {
		return ContentStack{}, err
	}

	opts := []content.Option{content.WithMaxWriteAttempts(cfg.Content.MaxWriteAttempts)}
	if cfg.Content.CatalogFile != "" {
		catalog, err := content.LoadCatalog(cfg.Content.CatalogFile)
		if err != nil {
			return ContentStack{}, fmt.Errorf("load catalog %s: %w", cfg.Content.CatalogFile, err)
		}
		opts = append(opts, content.WithCatalog(catalog))
		logger.Info("content catalog loaded", slog.String("file", cfg.Content.CatalogFile))
	}

	return ContentStack{
		Store:  store,
		Client: content.NewClient(store, logger, opts...),
	}, nil
}
