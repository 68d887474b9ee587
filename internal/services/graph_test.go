package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studioplanar/planar-backend/internal/repos"
	"github.com/studioplanar/planar-backend/internal/types"
)

func newTestGraph(t *testing.T, db *gorm.DB) (VersionGraphService, repos.VersionRepo) {
	t.Helper()
	log := testLogger(t)
	repo := repos.NewVersionRepo(db, log)
	return NewVersionGraphService(log, repo, NewNoopAngleCache(), nil), repo
}

func mustCreate(t *testing.T, svc VersionGraphService, v *types.Version) *types.Version {
	t.Helper()
	created, err := svc.CreateVersion(context.Background(), v)
	if err != nil {
		t.Fatalf("CreateVersion failed: %v", err)
	}
	return created
}

func versionAt(parent *types.Version, createdAt time.Time, angle string) *types.Version {
	v := &types.Version{
		DesignIntent: "modern kitchen",
		ArtifactKey:  "artifacts/test/" + uuid.NewString() + ".png",
		AngleLabel:   angle,
		CreatedAt:    createdAt,
	}
	if parent != nil {
		parentID := parent.ID
		v.ParentID = &parentID
	}
	return v
}

func TestLineageChildlessIsSelf(t *testing.T) {
	svc, _ := newTestGraph(t, newTestDB(t))
	root := mustCreate(t, svc, versionAt(nil, time.Now().UTC(), ""))

	got, err := svc.Lineage(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("Lineage failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != root.ID {
		t.Fatalf("lineage of childless version = %d nodes, want just itself", len(got))
	}
}

func TestLineageBreadthFirstByDepth(t *testing.T) {
	svc, _ := newTestGraph(t, newTestDB(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// root -> (a, b); a -> (a1); b -> (b1). a precedes b by creation time.
	root := mustCreate(t, svc, versionAt(nil, base, ""))
	a := mustCreate(t, svc, versionAt(root, base.Add(1*time.Minute), ""))
	b := mustCreate(t, svc, versionAt(root, base.Add(2*time.Minute), ""))
	a1 := mustCreate(t, svc, versionAt(a, base.Add(3*time.Minute), ""))
	b1 := mustCreate(t, svc, versionAt(b, base.Add(4*time.Minute), ""))

	got, err := svc.Lineage(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("Lineage failed: %v", err)
	}
	want := []uuid.UUID{root.ID, a.ID, b.ID, a1.ID, b1.ID}
	if len(got) != len(want) {
		t.Fatalf("lineage returned %d nodes, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("lineage[%d] = %s, want %s", i, got[i].ID, id)
		}
	}

	// Querying a mid-tree node returns only its own subtree.
	sub, err := svc.Lineage(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Lineage(a) failed: %v", err)
	}
	if len(sub) != 2 || sub[0].ID != a.ID || sub[1].ID != a1.ID {
		t.Fatalf("subtree of a wrong: %d nodes", len(sub))
	}
}

func TestLineageUnknownVersion(t *testing.T) {
	svc, _ := newTestGraph(t, newTestDB(t))
	if _, err := svc.Lineage(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocateLatestReturnsNewestTagged(t *testing.T) {
	db := newTestDB(t)
	graph, repo := newTestGraph(t, db)
	angles := NewAngleService(testLogger(t), repo, NewNoopAngleCache())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	mustCreate(t, graph, versionAt(nil, base, "patio"))
	newest := mustCreate(t, graph, versionAt(nil, base.Add(time.Hour), "patio"))
	mustCreate(t, graph, versionAt(nil, base.Add(2*time.Hour), "front"))
	mustCreate(t, graph, versionAt(nil, base.Add(3*time.Hour), ""))

	got, err := angles.LocateLatest(ctx, "patio")
	if err != nil {
		t.Fatalf("LocateLatest failed: %v", err)
	}
	if got.ID != newest.ID {
		t.Fatalf("LocateLatest returned %s, want %s", got.ID, newest.ID)
	}

	// Untagged versions never satisfy an angle query.
	if _, err := angles.LocateLatest(ctx, "aerial"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for untagged angle, got %v", err)
	}
}

func TestCreateVersionPopulatesAngleCache(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	repo := repos.NewVersionRepo(db, log)
	cache := &recordingCache{entries: map[string]uuid.UUID{}}
	graph := NewVersionGraphService(log, repo, cache, nil)

	v := mustCreate(t, graph, versionAt(nil, time.Now().UTC(), "front"))
	if cache.entries["front"] != v.ID {
		t.Fatalf("cache not updated on tagged create")
	}
	mustCreate(t, graph, versionAt(nil, time.Now().UTC(), ""))
	if len(cache.entries) != 1 {
		t.Fatalf("untagged create should not touch the cache")
	}
}

type recordingCache struct {
	entries map[string]uuid.UUID
}

func (c *recordingCache) Get(ctx context.Context, angleLabel string) (uuid.UUID, bool) {
	id, ok := c.entries[angleLabel]
	return id, ok
}

func (c *recordingCache) Set(ctx context.Context, angleLabel string, versionID uuid.UUID) {
	c.entries[angleLabel] = versionID
}
