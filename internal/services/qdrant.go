package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantService manages the vector collections that back document indexes.
type QdrantService interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, name string) error
	UpsertDocument(ctx context.Context, collection, docID string, payload map[string]interface{}, embedding []float32) error
}

type qdrantService struct {
	client     *qdrant.Client
	vectorSize uint64
}

func NewQdrantService(urlStr, apiKey string) (QdrantService, error) {
	// Parse URL to extract host, port, and TLS usage
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:     client,
		vectorSize: 768, // text-embedding-004
	}, nil
}

// CollectionExists implements QdrantService.
func (q *qdrantService) CollectionExists(ctx context.Context, name string) (bool, error) {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to check collection: %w", err)
	}
	return exists, nil
}

// CreateCollection implements QdrantService. An existing collection is left untouched.
func (q *qdrantService) CreateCollection(ctx context.Context, name string) error {
	exists, err := q.CollectionExists(ctx, name)
	if err != nil {
		return err
	}

	if exists {
		log.Printf("✅ Collection '%s' already exists\n", name)
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", name)
	return nil
}

// UpsertDocument implements QdrantService. docID must be a UUID so that
// re-indexing a document replaces its point.
func (q *qdrantService) UpsertDocument(ctx context.Context, collection, docID string, payload map[string]interface{}, embedding []float32) error {
	values := map[string]interface{}{"doc_id": docID}
	for k, v := range payload {
		values[k] = v
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(docID),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(values),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}
