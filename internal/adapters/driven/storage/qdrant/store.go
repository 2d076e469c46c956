// Package qdrant provides a Qdrant-backed implementation of driven.VectorStore
// over the gRPC API.
package qdrant

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/custodia-labs/planscout/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
)

// Payload keys in addition to the metadata keys.
const (
	payloadDocID   = "doc_id"
	payloadContent = "content"
)

// scrollPageSize bounds each Scroll request issued by Get.
const scrollPageSize = 256

// pointNamespace seeds the deterministic point UUIDs.
var pointNamespace = uuid.MustParse("6f1c1f5e-4d0b-4b8e-9a59-3c2f1e7d9a10")

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Config holds Qdrant connection settings.
type Config struct {
	Host       string
	Port       int
	Collection string

	// Target overrides host:port when set (e.g. "passthrough:///bufnet").
	Target string

	// DialOptions are appended to the default insecure credentials.
	DialOptions []grpc.DialOption
}

// Store is a Qdrant-backed vector store for one collection.
// The collection is created lazily on the first insert, sized to the
// first vector seen.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string

	mu    sync.Mutex
	ready bool
}

// NewStore connects to Qdrant. The connection is established lazily by gRPC.
func NewStore(cfg Config) (*Store, error) {
	target := cfg.Target
	if target == "" {
		host, port := cfg.Host, cfg.Port
		if host == "" {
			host = domain.DefaultQdrantHost
		}
		if port == 0 {
			port = domain.DefaultQdrantPort
		}
		target = fmt.Sprintf("%s:%d", host, port)
	}
	collection := cfg.Collection
	if collection == "" {
		collection = domain.DefaultCollection
	}

	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, cfg.DialOptions...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}

	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// Name returns "qdrant".
func (s *Store) Name() string {
	return string(domain.BackendQdrant)
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// PointID returns the deterministic Qdrant point id for a document id.
func (s *Store) PointID(docID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(s.collection+"/"+docID)).String()
}

// Insert upserts docs as points with their metadata as payload.
func (s *Store) Insert(ctx context.Context, docs []domain.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, len(docs[0].Vector)); err != nil {
		return err
	}

	points := make([]*pb.PointStruct, len(docs))
	for i, d := range docs {
		payload := map[string]*pb.Value{
			payloadDocID:   stringValue(d.ID),
			payloadContent: stringValue(d.Document.Text),
		}
		for k, v := range d.Document.Metadata.Map() {
			payload[k] = stringValue(v)
		}
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: s.PointID(d.ID)}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: d.Vector}}},
			Payload: payload,
		}
	}

	wait := true
	if _, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// Delete removes points by document id.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	exists, err := s.exists(ctx)
	if err != nil || !exists {
		return err
	}

	pointIDs := make([]*pb.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: s.PointID(id)}}
	}

	wait := true
	if _, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{Points: &pb.PointsIdsList{Ids: pointIDs}},
		},
	}); err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}
	return nil
}

// Query runs a cosine search. Vectors are not returned by Qdrant reads.
func (s *Store) Query(
	ctx context.Context, vector []float32, k int, filter domain.MetadataFilter,
) ([]domain.StoredHit, error) {
	if k <= 0 {
		return []domain.StoredHit{}, nil
	}
	exists, err := s.exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []domain.StoredHit{}, nil
	}

	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Filter:         toFilter(filter),
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	hits := make([]domain.StoredHit, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		hits = append(hits, domain.StoredHit{
			Document: fromPayload(pt.GetPayload()),
			Score:    float64(pt.GetScore()),
		})
	}
	vecmath.SortHits(hits)
	return hits, nil
}

// Get scrolls through points matching filter and returns them ordered by id.
func (s *Store) Get(
	ctx context.Context, filter domain.MetadataFilter, limit int,
) ([]domain.IndexedDocument, error) {
	exists, err := s.exists(ctx)
	if err != nil || !exists {
		return nil, err
	}

	var (
		docs   []domain.IndexedDocument
		offset *pb.PointId
	)
	for {
		pageSize := uint32(scrollPageSize)
		resp, err := s.points.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: s.collection,
			Filter:         toFilter(filter),
			Offset:         offset,
			Limit:          &pageSize,
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant scroll: %w", err)
		}
		for _, pt := range resp.GetResult() {
			docs = append(docs, fromPayload(pt.GetPayload()))
		}
		offset = resp.GetNextPageOffset()
		if offset == nil || len(resp.GetResult()) == 0 {
			break
		}
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Count returns the exact number of points in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	exists, err := s.exists(ctx)
	if err != nil || !exists {
		return 0, err
	}

	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// Reset drops the collection. It is recreated on the next insert.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: s.collection}); err != nil {
		return fmt.Errorf("qdrant drop collection: %w", err)
	}
	s.ready = false
	return nil
}

func (s *Store) exists(ctx context.Context) (bool, error) {
	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()
	if ready {
		return true, nil
	}

	resp, err := s.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: s.collection})
	if err != nil {
		return false, fmt.Errorf("qdrant collection exists: %w", err)
	}
	return resp.GetResult().GetExists(), nil
}

func (s *Store) ensureCollection(ctx context.Context, dims int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	resp, err := s.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: s.collection})
	if err != nil {
		return fmt.Errorf("qdrant collection exists: %w", err)
	}
	if !resp.GetResult().GetExists() {
		if dims <= 0 {
			return fmt.Errorf("qdrant create collection: %w: empty vector", domain.ErrInvalidInput)
		}
		_, err := s.collections.Create(ctx, &pb.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{Size: uint64(dims), Distance: pb.Distance_Cosine},
			}},
		})
		if err != nil {
			return fmt.Errorf("qdrant create collection: %w", err)
		}
	}
	s.ready = true
	return nil
}

func toFilter(filter domain.MetadataFilter) *pb.Filter {
	if filter.IsEmpty() {
		return nil
	}
	return &pb.Filter{Must: []*pb.Condition{{
		ConditionOneOf: &pb.Condition_Field{Field: &pb.FieldCondition{
			Key:   domain.MetaProvider,
			Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: filter.Provider}},
		}},
	}}}
}

func fromPayload(payload map[string]*pb.Value) domain.IndexedDocument {
	meta := make(map[string]string, len(payload))
	for k, v := range payload {
		meta[k] = v.GetStringValue()
	}
	return domain.IndexedDocument{
		ID: meta[payloadDocID],
		Document: domain.Document{
			Text:     meta[payloadContent],
			Metadata: domain.MetadataFromMap(meta),
		},
	}
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}
