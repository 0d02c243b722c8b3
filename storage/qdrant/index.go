// Package qdrant serves question search from a Qdrant collection.
//
// The collection mirrors the published corpus. Each point is one question,
// keyed by its corpus position and tagged with the corpus fingerprint, so
// searches only see points from the corpus currently being served.
package qdrant

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/poiesic/sosai/core"
	"github.com/poiesic/sosai/corpus"
	"github.com/poiesic/sosai/search"
)

const upsertBatchSize = 256

const (
	fieldQuestion    = "question"
	fieldCondition   = "condition"
	fieldIntent      = "intent"
	fieldFingerprint = "fingerprint"
)

type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeletePoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// Index implements search.Index against Qdrant.
type Index struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	collection  string
	logger      *slog.Logger

	mu     sync.Mutex
	synced core.ID
}

var _ search.Index = (*Index)(nil)

// New connects to Qdrant at the gRPC address addr.
func New(addr, collection string) (*Index, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant: dial %s: %w", addr, err)
	}
	idx := newIndex(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), collection)
	idx.conn = conn
	return idx, nil
}

func newIndex(points pointsAPI, collections collectionsAPI, collection string) *Index {
	return &Index{
		points:      points,
		collections: collections,
		collection:  collection,
		logger:      slog.Default().With("component", "qdrant", "collection", collection),
	}
}

// Close closes the gRPC connection.
func (x *Index) Close() error {
	if x.conn == nil {
		return nil
	}
	return x.conn.Close()
}

// EnsureCollection creates the collection with cosine distance if it does
// not exist.
func (x *Index) EnsureCollection(ctx context.Context, dims int) error {
	list, err := x.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("qdrant: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == x.collection {
			return nil
		}
	}

	_, err = x.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection %s: %w", x.collection, err)
	}
	x.logger.Info("collection created", "dimension", dims)
	return nil
}

// Sync uploads the questions of c and removes points left from other
// corpus versions. Syncing the already synced corpus is a no-op.
func (x *Index) Sync(ctx context.Context, c *corpus.Corpus) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.synced == c.Fingerprint() {
		return nil
	}
	if err := x.EnsureCollection(ctx, c.Dimension()); err != nil {
		return err
	}

	fp := fingerprint(c)
	questions := c.Questions()
	for start := 0; start < len(questions); start += upsertBatchSize {
		batch := questions[start:min(start+upsertBatchSize, len(questions))]
		points := make([]*pb.PointStruct, len(batch))
		for i := range batch {
			points[i] = questionPoint(&batch[i], fp)
		}

		wait := true
		_, err := x.points.Upsert(ctx, &pb.UpsertPoints{
			CollectionName: x.collection,
			Wait:           &wait,
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("qdrant: upsert %d points: %w", len(points), err)
		}
	}

	wait := true
	_, err := x.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: x.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{
					MustNot: []*pb.Condition{fieldMatch(fieldFingerprint, fp)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete stale points: %w", err)
	}

	x.synced = c.Fingerprint()
	x.logger.Info("corpus synced", "questions", len(questions), "fingerprint", fp)
	return nil
}

// Search returns the closest questions of c, syncing the collection first
// if c is not the corpus it last synced.
func (x *Index) Search(ctx context.Context, c *corpus.Corpus, vector []float32, k int) ([]core.Match, error) {
	if c == nil || c.Len() == 0 {
		return nil, core.ErrCorpusUnavailable
	}
	if len(vector) != c.Dimension() {
		return nil, fmt.Errorf("%w: %d != %d", core.ErrDimensionMismatch, len(vector), c.Dimension())
	}
	if err := x.Sync(ctx, c); err != nil {
		return nil, err
	}

	k = max(1, min(k, c.Len()))
	resp, err := x.points.Search(ctx, &pb.SearchPoints{
		CollectionName: x.collection,
		Vector:         vector,
		Limit:          uint64(k),
		Filter:         &pb.Filter{Must: []*pb.Condition{fieldMatch(fieldFingerprint, fingerprint(c))}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search: %w", err)
	}

	matches := make([]core.Match, 0, len(resp.GetResult()))
	for _, r := range resp.GetResult() {
		q, ok := c.Question(int(r.GetId().GetNum()))
		if !ok {
			x.logger.Warn("search returned unknown point", "id", r.GetId().GetNum())
			continue
		}
		score := max(-1, min(1, r.GetScore()))
		matches = append(matches, core.Match{Question: q, Score: score})
	}

	slices.SortStableFunc(matches, func(a, b core.Match) int {
		if n := cmp.Compare(b.Score, a.Score); n != 0 {
			return n
		}
		return cmp.Compare(a.Question.Index, b.Question.Index)
	})
	return matches, nil
}

func fingerprint(c *corpus.Corpus) string {
	return fmt.Sprintf("%016x", uint64(c.Fingerprint()))
}

func questionPoint(q *core.QuestionRecord, fp string) *pb.PointStruct {
	return &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Num{Num: uint64(q.Index)},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: q.Vector},
			},
		},
		Payload: map[string]*pb.Value{
			fieldQuestion:    stringValue(q.Text),
			fieldCondition:   stringValue(q.Category.Condition),
			fieldIntent:      stringValue(q.Category.Intent),
			fieldFingerprint: stringValue(fp),
		},
	}
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}
