package docservice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/citation"
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/sse"
	"github.com/starford/lectern/internal/storage"
	"github.com/starford/lectern/internal/testutil"
)

const catechismText = `PART ONE
ARTICLE 1
1 God, infinitely perfect and blessed in himself,
freely created man.
2 So that this call should resound throughout the world.
IN BRIEF ARTICLE 2
3 Those who with God's help have welcomed Christ's call.`

type fixture struct {
	svc    *Service
	events *testutil.Recorder
	files  *storage.FS
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.TestDB(t)
	_, files := testutil.TestLibrary(t)
	events := &testutil.Recorder{}
	resolver := citation.NewResolver(db,
		citation.WithCache(citation.NewAliasCache(time.Minute, nil)),
		citation.WithLogger(testutil.DiscardLogger()),
	)
	svc := NewService(db, resolver,
		WithFiles(files),
		WithNotifier(events),
		WithLogger(testutil.DiscardLogger()),
		WithIDFunc(testutil.SequentialIDs("id-")),
	)
	return &fixture{svc: svc, events: events, files: files}
}

func (f *fixture) importCatechism(t *testing.T) *models.Document {
	t.Helper()
	res, err := f.svc.Import(context.Background(), ImportRequest{
		Title:      "Catechism",
		SourceType: models.SourceCatechism,
		Text:       catechismText,
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	return res.Document
}

func TestPreviewIsPure(t *testing.T) {
	f := newFixture(t)
	p1, err := f.svc.Preview(catechismText, models.SourceCatechism)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	p2, _ := f.svc.Preview(catechismText, models.SourceCatechism)

	if p1.Counts != p2.Counts || len(p1.Nodes) != len(p2.Nodes) {
		t.Fatalf("previews differ: %+v vs %+v", p1.Counts, p2.Counts)
	}
	for i := range p1.Nodes {
		if p1.Nodes[i] != p2.Nodes[i] {
			t.Errorf("node %d differs", i)
		}
		if p1.Nodes[i].ID != "" {
			t.Errorf("preview node %d has id %q", i, p1.Nodes[i].ID)
		}
	}
	if p1.Counts.Structural != 4 || p1.Counts.Citable != 3 {
		t.Errorf("counts = %+v", p1.Counts)
	}
	docs, total, _ := f.svc.List(context.Background(), "", 10, 0)
	if total != 0 || len(docs) != 0 {
		t.Error("preview persisted a document")
	}
}

func TestPreviewWarnings(t *testing.T) {
	f := newFixture(t)
	p, _ := f.svc.Preview("PART ONE\njust prose", models.SourceTreatise)
	if len(p.Warnings) == 0 {
		t.Error("expected a warning for a treatise without numbered paragraphs")
	}
	p, _ = f.svc.Preview("1 a\n1 b", models.SourceGeneric)
	found := false
	for _, w := range p.Warnings {
		if strings.Contains(w, "more than once") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duplicate number warning, got %v", p.Warnings)
	}
	if _, err := f.svc.Preview("x", "bogus"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bogus source type err = %v", err)
	}
}

func TestImportAndGet(t *testing.T) {
	f := newFixture(t)
	doc := f.importCatechism(t)

	detail, err := f.svc.Get(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if detail.CitableCount != 3 || detail.StructuralCount != 4 {
		t.Errorf("counts = %d/%d", detail.StructuralCount, detail.CitableCount)
	}
	if len(detail.Nodes) != 7 {
		t.Fatalf("nodes = %d, want 7", len(detail.Nodes))
	}
	n := detail.Nodes[2]
	if n.Kind != models.KindCitable || n.Number != 1 ||
		n.Content != "God, infinitely perfect and blessed in himself, freely created man." {
		t.Errorf("first paragraph = %+v", n)
	}
	for i, n := range detail.Nodes {
		if n.ID == "" || n.DocumentID != doc.ID {
			t.Errorf("node %d not canonicalized: %+v", i, n)
		}
		if n.Order != float64(i+1) {
			t.Errorf("node %d order = %v", i, n.Order)
		}
	}
	if detail.Nodes[0].Alignment != models.AlignCenter {
		t.Errorf("part alignment = %q", detail.Nodes[0].Alignment)
	}
	if got := f.events.Kinds(); len(got) != 1 || got[0] != sse.DocumentImported {
		t.Errorf("events = %v", got)
	}
}

func TestImportIgnoredNodes(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Import(context.Background(), ImportRequest{
		Title: "Short", SourceType: models.SourceGeneric,
		Text:    "PART ONE\n1 First.\n2 Second.",
		Ignored: []int{0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Counts.Total != 2 || res.Document.StructuralCount != 0 {
		t.Errorf("counts = %+v", res.Counts)
	}
	if _, err := f.svc.Import(context.Background(), ImportRequest{Title: "x", Text: "1 a", Ignored: []int{5}}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("out of range ignore err = %v", err)
	}
}

func TestImportRequiresTitle(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Import(context.Background(), ImportRequest{Text: "1 a"}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestImportFileWritesLibraryAndReplaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.ImportFile(ctx, "Didache.txt", []byte("1 There are two ways.\n2 The way of life."), models.SourcePatristic, "")
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if res.Document.Title != "Didache" || res.Document.SourcePath != "patristic/Didache.txt" {
		t.Errorf("document = %+v", res.Document)
	}
	if _, err := f.files.Read("patristic/Didache.txt"); err != nil {
		t.Errorf("library file missing: %v", err)
	}

	again, err := f.svc.ImportFile(ctx, "Didache.txt", []byte("1 There are two ways."), models.SourcePatristic, "")
	if err != nil {
		t.Fatal(err)
	}
	if !again.Replaced || again.Document.ID != res.Document.ID {
		t.Errorf("re-import did not replace: %+v", again)
	}
	nodes, _ := f.svc.Nodes(ctx, res.Document.ID)
	if len(nodes) != 1 {
		t.Errorf("nodes after replace = %d", len(nodes))
	}

	if _, err := f.svc.ImportFile(ctx, "photo.png", []byte("x"), "", ""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("unsupported file err = %v", err)
	}
}

func TestMoveNode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.importCatechism(t)
	nodes, _ := f.svc.Nodes(ctx, doc.ID)

	// Move the last paragraph between the first two nodes.
	last := nodes[len(nodes)-1]
	moved, err := f.svc.MoveNode(ctx, doc.ID, last.ID, MoveRequest{BeforeID: nodes[0].ID, AfterID: nodes[1].ID})
	if err != nil {
		t.Fatalf("MoveNode: %v", err)
	}
	if moved.Order != 1.5 {
		t.Errorf("order = %v, want 1.5", moved.Order)
	}
	after, _ := f.svc.Nodes(ctx, doc.ID)
	if after[1].ID != last.ID {
		t.Errorf("node not moved: %+v", after[1])
	}
	for i := 2; i < len(after); i++ {
		if after[i].Order != nodes[i-1].Order {
			t.Errorf("neighbour %s key changed", after[i].ID)
		}
	}

	if _, err := f.svc.MoveNode(ctx, doc.ID, last.ID, MoveRequest{BeforeID: nodes[0].ID, AfterID: nodes[3].ID}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("non adjacent err = %v", err)
	}
	if _, err := f.svc.MoveNode(ctx, doc.ID, "nope", MoveRequest{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing node err = %v", err)
	}
}

func TestMoveNodeRebalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.importCatechism(t)
	nodes, _ := f.svc.Nodes(ctx, doc.ID)
	first := nodes[0].ID

	// Keep inserting directly after the first node. The gap halves on every
	// move until it is exhausted and the document is rebalanced.
	rebalanced := false
	for i := 0; i < 60; i++ {
		cur, _ := f.svc.Nodes(ctx, doc.ID)
		mover := cur[len(cur)-1].ID
		if _, err := f.svc.MoveNode(ctx, doc.ID, mover, MoveRequest{BeforeID: first}); err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
		cur, _ = f.svc.Nodes(ctx, doc.ID)
		if cur[0].ID != first || cur[1].ID != mover {
			t.Fatalf("move %d: order = %s, %s", i, cur[0].ID, cur[1].ID)
		}
		for j := 1; j < len(cur); j++ {
			if !(cur[j-1].Order < cur[j].Order) {
				t.Fatalf("move %d: keys not increasing at %d: %v >= %v", i, j, cur[j-1].Order, cur[j].Order)
			}
		}
		if cur[1].Order == 1.5 && i > 0 {
			rebalanced = true
		}
	}
	if !rebalanced {
		t.Error("expected the exhausted gap to trigger a rebalance")
	}
}

func TestResequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, _ := f.svc.Import(ctx, ImportRequest{Title: "Gappy", SourceType: models.SourceGeneric, Text: "PART ONE\n5 a\n9 b\n9 c"})

	out, err := f.svc.Resequence(ctx, res.Document.ID, 0)
	if err != nil {
		t.Fatalf("Resequence: %v", err)
	}
	var numbers []int
	for _, n := range out {
		if n.Kind == models.KindCitable {
			numbers = append(numbers, n.Number)
		}
	}
	if len(numbers) != 3 || numbers[0] != 1 || numbers[2] != 3 {
		t.Errorf("numbers = %v", numbers)
	}
	p, err := f.svc.Paragraph(ctx, res.Document.ID, 3)
	if err != nil || p.Content != "c" {
		t.Errorf("paragraph 3 = %+v, %v", p, err)
	}
}

func TestAliasLifecycleAndScan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.importCatechism(t)

	scan, err := f.svc.ScanText(ctx, "See CCC 2.")
	if err != nil {
		t.Fatal(err)
	}
	if len(scan.Citations) != 0 {
		t.Fatalf("citations before alias = %+v", scan.Citations)
	}

	a, err := f.svc.CreateAlias(ctx, doc.ID, AliasInput{Prefix: "CCC", Pattern: `CCC (\d+)`, Priority: 10})
	if err != nil {
		t.Fatalf("CreateAlias: %v", err)
	}
	if a.Extractor != models.ExtractParagraph || a.DisplayFormat != models.DefaultDisplayFormat {
		t.Errorf("defaults not applied: %+v", a)
	}

	// The cache was warmed above; creation must invalidate it.
	scan, _ = f.svc.ScanText(ctx, "See CCC 2 and CCC 999.")
	if len(scan.Citations) != 2 {
		t.Fatalf("citations = %+v", scan.Citations)
	}
	if !scan.Citations[0].IsResolved || scan.Citations[0].DisplayText != "CCC 2" {
		t.Errorf("CCC 2 = %+v", scan.Citations[0])
	}
	if scan.Citations[1].IsResolved {
		t.Errorf("CCC 999 resolved")
	}

	if _, err := f.svc.CreateAlias(ctx, doc.ID, AliasInput{Prefix: "CCC", Pattern: `x`}); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate prefix err = %v", err)
	}
	if _, err := f.svc.CreateAlias(ctx, doc.ID, AliasInput{Prefix: "Bad", Pattern: `(`}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad pattern err = %v", err)
	}
	if _, err := f.svc.CreateAlias(ctx, doc.ID, AliasInput{Prefix: "E", Pattern: `x`, Extractor: "roman"}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad extractor err = %v", err)
	}

	upd, err := f.svc.UpdateAlias(ctx, a.ID, AliasInput{Prefix: "Cat", Pattern: `Cat\. (\d+)`})
	if err != nil {
		t.Fatalf("UpdateAlias: %v", err)
	}
	if upd.Prefix != "Cat" {
		t.Errorf("prefix = %q", upd.Prefix)
	}
	scan, _ = f.svc.ScanText(ctx, "CCC 1 vs Cat. 1")
	if len(scan.Citations) != 1 || scan.Citations[0].Match.Text != "Cat. 1" {
		t.Errorf("citations after update = %+v", scan.Citations)
	}

	if err := f.svc.DeleteAlias(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	scan, _ = f.svc.ScanText(ctx, "Cat. 1")
	if len(scan.Citations) != 0 {
		t.Errorf("citations after delete = %+v", scan.Citations)
	}

	var aliasEvents int
	for _, k := range f.events.Kinds() {
		if k == sse.AliasChanged {
			aliasEvents++
		}
	}
	if aliasEvents != 3 {
		t.Errorf("alias events = %d, want 3", aliasEvents)
	}
}

func TestResolveIDAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.importCatechism(t)
	nodes, _ := f.svc.Nodes(ctx, doc.ID)

	got, err := f.svc.ResolveID(ctx, citation.ID{DocumentID: doc.ID, NodeID: nodes[2].ID}.String())
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsResolved || got.DisplayText != "Catechism 1" {
		t.Errorf("resolved = %+v", got)
	}

	if err := f.svc.Delete(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Get(ctx, doc.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get deleted err = %v", err)
	}
	got, _ = f.svc.ResolveID(ctx, "doc:"+doc.ID)
	if got.IsResolved {
		t.Errorf("deleted document resolved")
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.importCatechism(t)
	results, err := f.svc.Search(context.Background(), "welcomed", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].DisplayNumber != "3" {
		t.Errorf("results = %+v", results)
	}
	if _, err := f.svc.Search(context.Background(), "", 5); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty query err = %v", err)
	}
}

func TestSyncFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	data := []byte("1 Blessed is the man.\n2 His delight is in the law.")

	imported, err := f.svc.SyncFile(ctx, "treatise/Psalter.txt", data)
	if err != nil || !imported {
		t.Fatalf("SyncFile = %v, %v", imported, err)
	}
	imported, err = f.svc.SyncFile(ctx, "treatise/Psalter.txt", data)
	if err != nil || imported {
		t.Errorf("unchanged file re-imported: %v, %v", imported, err)
	}
	docs, _, _ := f.svc.List(ctx, models.SourceTreatise, 10, 0)
	if len(docs) != 1 || docs[0].Title != "Psalter" || docs[0].CitableCount != 2 {
		t.Fatalf("documents = %+v", docs)
	}

	if _, err := f.svc.SyncFile(ctx, "loose.md", []byte("Some prose.")); err != nil {
		t.Fatal(err)
	}
	docs, _, _ = f.svc.List(ctx, models.SourceGeneric, 10, 0)
	if len(docs) != 1 || docs[0].SourcePath != "loose.md" {
		t.Errorf("root file not imported with default source type: %+v", docs)
	}

	if err := f.svc.RemoveSource(ctx, "treatise/Psalter.txt"); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.RemoveSource(ctx, "treatise/Psalter.txt"); err != nil {
		t.Errorf("second remove: %v", err)
	}
	sums, _ := f.svc.SourceChecksums(ctx)
	if _, ok := sums["treatise/Psalter.txt"]; ok || len(sums) != 1 {
		t.Errorf("checksums = %v", sums)
	}
}

// aliasSnooper records the alias set size the resolver reports while an
// alias event is being delivered.
type aliasSnooper struct {
	resolver *citation.Resolver
	sizes    []int
}

func (a *aliasSnooper) Notify(kind string, _ map[string]string) {
	if kind != sse.AliasChanged {
		return
	}
	set, err := a.resolver.Aliases(context.Background())
	if err != nil {
		a.sizes = append(a.sizes, -1)
		return
	}
	a.sizes = append(a.sizes, set.Len())
}

func TestAliasEventsSeeFreshAliases(t *testing.T) {
	db := testutil.TestDB(t)
	resolver := citation.NewResolver(db,
		citation.WithCache(citation.NewAliasCache(time.Hour, nil)),
		citation.WithLogger(testutil.DiscardLogger()),
	)
	snoop := &aliasSnooper{resolver: resolver}
	svc := NewService(db, resolver,
		WithNotifier(snoop),
		WithLogger(testutil.DiscardLogger()),
		WithIDFunc(testutil.SequentialIDs("id-")),
	)
	ctx := context.Background()
	res, err := svc.Import(ctx, ImportRequest{Title: "Catechism", SourceType: models.SourceCatechism, Text: catechismText})
	if err != nil {
		t.Fatal(err)
	}

	// Warm the cache with the empty alias set.
	if set, _ := resolver.Aliases(ctx); set.Len() != 0 {
		t.Fatalf("aliases before create = %d", set.Len())
	}

	a, err := svc.CreateAlias(ctx, res.Document.ID, AliasInput{Prefix: "CCC", Pattern: `CCC (\d+)`})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateAlias(ctx, res.Document.ID, AliasInput{Prefix: "C", Pattern: `C (\d+)`}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteAlias(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	want := []int{1, 2, 1}
	if len(snoop.sizes) != len(want) {
		t.Fatalf("alias events = %v, want %v", snoop.sizes, want)
	}
	for i := range want {
		if snoop.sizes[i] != want[i] {
			t.Errorf("event %d saw %d aliases, want %d", i, snoop.sizes[i], want[i])
		}
	}
}

