// Command collector-cli is a small demonstration driver for the
// indexing-and-retrieval engine: it upserts a handful of sample
// documents across two sources, runs a search, and navigates the
// chunks of one of them.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"collector/internal/config"
	"collector/internal/datasource"
	"collector/internal/embedprovider"
	"collector/internal/engine"
	"collector/internal/logging"
	"collector/internal/navigate"
	"collector/internal/prepare"
	"collector/internal/query"
	"collector/internal/vectorstore"
	"collector/internal/vectorstore/chromaclient"
	"collector/internal/vectorstore/qdrantclient"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "collector-cli:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(levelFromString(cfg.Logging.Level))
	ctx := logging.WithTraceID(context.Background(), "")

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("building vector store backend: %w", err)
	}

	embedder := embedprovider.New(embedprovider.Config{
		APIKey:                cfg.Embedding.APIKey,
		Model:                 cfg.Embedding.Model,
		RequestTimeoutSeconds: cfg.Embedding.RequestTimeoutSeconds,
		RateLimitRPM:          cfg.Embedding.RateLimitRPM,
	})

	eng := engine.New(store, embedder, log)

	if err := demoUpsert(ctx, eng); err != nil {
		return fmt.Errorf("demo upsert: %w", err)
	}

	if err := demoSearch(ctx, eng); err != nil {
		return fmt.Errorf("demo search: %w", err)
	}

	if err := demoNavigate(ctx, eng); err != nil {
		return fmt.Errorf("demo navigate: %w", err)
	}

	return nil
}

func buildStore(cfg *config.Config) (vectorstore.VectorStore, error) {
	switch cfg.VectorStore.Backend {
	case "qdrant":
		host, port, err := splitHostPort(cfg.VectorStore.Endpoint, 6334)
		if err != nil {
			return nil, err
		}
		return qdrantclient.New(qdrantclient.Config{
			Host:   host,
			Port:   port,
			APIKey: cfg.VectorStore.APIKey,
		})
	default:
		return chromaclient.New(chromaclient.Config{
			Endpoint:       cfg.VectorStore.Endpoint,
			APIKey:         cfg.VectorStore.APIKey,
			TimeoutSeconds: cfg.VectorStore.TimeoutSeconds,
			RetryAttempts:  cfg.VectorStore.RetryAttempts,
		}), nil
	}
}

func splitHostPort(endpoint string, defaultPort int) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, defaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", endpoint, err)
	}
	return host, port, nil
}

func levelFromString(level string) logging.Level {
	switch level {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func demoUpsert(ctx context.Context, eng *engine.Engine) error {
	jiraDocs := []prepare.LogicalDocument{
		{
			ID:      "jira-1001",
			Content: "Issue PROJ-1001: the nightly ingest job fails when a source emits a malformed timestamp. Investigating the gmail connector's date parsing.",
			Metadata: map[string]interface{}{
				"title":     "Nightly ingest job fails on malformed timestamp",
				"project":   "PROJ",
				"createdAt": time.Now().Add(-48 * time.Hour).Format(time.RFC3339),
				"updatedAt": time.Now().Add(-2 * time.Hour).Format(time.RFC3339),
			},
		},
	}
	if _, err := eng.UpsertDocuments(ctx, datasource.Jira, jiraDocs); err != nil {
		return err
	}

	slackDocs := []prepare.LogicalDocument{
		{
			ID:      "slack-2001",
			Content: "Heads up, the ingest job alert fired again overnight. Same malformed timestamp as last week, looks like it's coming from the gmail connector.",
			Metadata: map[string]interface{}{
				"channelId": "C0ALERTS",
				"threadTs":  "1690000000.000100",
				"updatedAt": time.Now().Add(-1 * time.Hour).Format(time.RFC3339),
			},
		},
	}
	if _, err := eng.UpsertDocuments(ctx, datasource.Slack, slackDocs); err != nil {
		return err
	}

	fmt.Println("upserted sample documents into jira and slack collections")
	return nil
}

func demoSearch(ctx context.Context, eng *engine.Engine) error {
	results, err := eng.Search(ctx, "ingest job malformed timestamp", query.Options{
		Sources:    []datasource.DataSource{datasource.Jira, datasource.Slack},
		SearchType: query.SearchHybrid,
		Limit:      5,
	})
	if err != nil {
		return err
	}

	fmt.Printf("search returned %d of %d total results\n", len(results.Results), results.Total)
	for _, item := range results.Results {
		fmt.Printf("  [%s] %s score=%.4f\n", item.Source, item.ID, item.Score)
	}
	return nil
}

func demoNavigate(ctx context.Context, eng *engine.Engine) error {
	result, err := eng.Navigate(ctx, "jira-1001", navigate.DirChildren, navigate.ScopeChunk, 10)
	if err != nil {
		return err
	}
	if result.Current == nil {
		fmt.Println("navigate: jira-1001 not found")
		return nil
	}
	fmt.Printf("navigate: current=%s contextType=%s related=%d\n", result.Current.ID, result.Navigation.ContextType, len(result.Related))
	return nil
}
