package index

import (
	"context"
	"fmt"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/devsnippets/devsnippets/internal/port"
)

// QdrantIndex implements port.VectorIndex against a Qdrant instance over
// gRPC. The connection is shared and safe for concurrent use; every call is
// bounded by the configured timeout so an unreachable index degrades into an
// error the search service can fall back from, never a hung request.
type QdrantIndex struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	dims        int
	timeout     time.Duration
}

// NewQdrantIndex connects to Qdrant at the given gRPC address.
func NewQdrantIndex(addr, collection string, dims int, timeout time.Duration) (*QdrantIndex, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: dial qdrant %s: %v", port.ErrIndexUnavailable, addr, err)
	}
	return &QdrantIndex{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
		dims:        dims,
		timeout:     timeout,
	}, nil
}

// Close closes the underlying gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist. A concurrent
// bootstrap racing us into "already exists" is treated as success.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	ctx, cancel := q.bound(ctx)
	defer cancel()

	list, err := q.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("index: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == q.collection {
			return nil
		}
	}

	d := uint64(q.dims)
	_, err = q.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     d,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return fmt.Errorf("index: create collection %s: %w", q.collection, err)
	}
	return nil
}

// Upsert inserts or replaces the vector and filterable metadata for one
// snippet. Idempotent, so interrupted mirror runs can simply be re-run.
func (q *QdrantIndex) Upsert(ctx context.Context, snippetID string, vector []float32, meta port.IndexMeta) error {
	ctx, cancel := q.bound(ctx)
	defer cancel()

	payload := map[string]*pb.Value{
		"snippet_id":  {Kind: &pb.Value_StringValue{StringValue: snippetID}},
		"title":       {Kind: &pb.Value_StringValue{StringValue: meta.Title}},
		"language":    {Kind: &pb.Value_StringValue{StringValue: meta.Language}},
		"description": {Kind: &pb.Value_StringValue{StringValue: meta.Description}},
	}

	wait := true
	_, err := q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: snippetID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vector},
				},
			},
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("index: upsert %s: %w", snippetID, err)
	}
	return nil
}

// QueryTopK performs k-NN similarity search, returning hits with certainty
// >= minScore sorted descending. Qdrant's cosine score is the certainty
// scale here; it is not interchangeable with the exhaustive ranker's
// thresholds.
func (q *QdrantIndex) QueryTopK(ctx context.Context, vector []float32, k int, minScore float64) ([]port.IndexHit, error) {
	if k <= 0 {
		return nil, nil
	}
	ctx, cancel := q.bound(ctx)
	defer cancel()

	threshold := float32(minScore)
	resp, err := q.points.Search(ctx, &pb.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(k),
		ScoreThreshold: &threshold,
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}

	hits := make([]port.IndexHit, 0, len(resp.GetResult()))
	for _, r := range resp.GetResult() {
		id := r.GetId().GetUuid()
		if sid := r.GetPayload()["snippet_id"].GetStringValue(); sid != "" {
			id = sid
		}
		hits = append(hits, port.IndexHit{
			SnippetID: id,
			Certainty: float64(r.GetScore()),
		})
	}
	return hits, nil
}

// Delete removes the entry for a snippet. Absent ids are not an error; the
// bool reports whether anything was actually removed.
func (q *QdrantIndex) Delete(ctx context.Context, snippetID string) (bool, error) {
	ctx, cancel := q.bound(ctx)
	defer cancel()

	got, err := q.points.Get(ctx, &pb.GetPoints{
		CollectionName: q.collection,
		Ids: []*pb.PointId{{
			PointIdOptions: &pb.PointId_Uuid{Uuid: snippetID},
		}},
	})
	if err != nil {
		return false, fmt.Errorf("index: get %s: %w", snippetID, err)
	}
	if len(got.GetResult()) == 0 {
		return false, nil
	}

	wait := true
	_, err = q.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{{
						PointIdOptions: &pb.PointId_Uuid{Uuid: snippetID},
					}},
				},
			},
		},
	})
	if err != nil {
		return false, fmt.Errorf("index: delete %s: %w", snippetID, err)
	}
	return true, nil
}

func (q *QdrantIndex) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, q.timeout)
}
