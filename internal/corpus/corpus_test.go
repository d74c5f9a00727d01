package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const preludeXML = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="3.1">
  <work><work-title>Prelude</work-title></work>
  <identification>
    <creator type="composer">Bach</creator>
  </identification>
  <part-list>
    <score-part id="P1"><part-name>Music</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <attributes>
        <divisions>1</divisions>
        <key><fifths>2</fifths><mode>major</mode></key>
        <time><beats>4</beats><beat-type>4</beat-type></time>
      </attributes>
      <note>
        <pitch><step>D</step><octave>4</octave></pitch>
        <duration>4</duration>
        <type>whole</type>
      </note>
    </measure>
    <measure number="2">
      <note>
        <pitch><step>A</step><octave>4</octave></pitch>
        <duration>4</duration>
        <type>whole</type>
      </note>
    </measure>
  </part>
</score-partwise>
`

func writeScore(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenIndex(":memory:")
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestExtract(t *testing.T) {
	path := writeScore(t, t.TempDir(), "prelude.xml", preludeXML)

	md, err := Extract(path)
	require.NoError(t, err)

	assert.Equal(t, "Prelude", md.Title)
	assert.Equal(t, "Bach", md.Composer)
	assert.Equal(t, "musicxml", md.Format)
	assert.Equal(t, 1, md.Parts)
	assert.Equal(t, 2, md.Measures)
	assert.Equal(t, 2, md.Notes)
	assert.Equal(t, "D major", md.KeySig)
	assert.Equal(t, "4/4", md.TimeSig)
	assert.Equal(t, 62, md.AmbitusLow)  // D4
	assert.Equal(t, 69, md.AmbitusHigh) // A4
	assert.Equal(t, 8.0, md.DurationQuarters)
	assert.NotEmpty(t, md.Hash)
	assert.Greater(t, md.Size, int64(0))
}

func TestExtractMalformed(t *testing.T) {
	path := writeScore(t, t.TempDir(), "broken.xml", "<score-partwise><oops")
	_, err := Extract(path)
	assert.Error(t, err)
}

func TestIndexUpsertAndGet(t *testing.T) {
	idx := openTestIndex(t)

	md := &Metadata{
		Path: "/c/prelude.xml", Format: "musicxml", Size: 10, ModTime: 100,
		Hash: "abc", Title: "Prelude", Composer: "Bach", Parts: 1,
		Measures: 2, Notes: 2, KeySig: "D major", TimeSig: "4/4",
		AmbitusLow: 62, AmbitusHigh: 69, DurationQuarters: 8,
	}
	require.NoError(t, idx.Upsert(md))

	got, err := idx.Get("/c/prelude.xml")
	require.NoError(t, err)
	assert.Equal(t, md, got)

	// Upsert replaces in place.
	md.Title = "Prelude in D"
	md.ModTime = 200
	require.NoError(t, idx.Upsert(md))
	got, err = idx.Get("/c/prelude.xml")
	require.NoError(t, err)
	assert.Equal(t, "Prelude in D", got.Title)

	stamps, err := idx.Stamps()
	require.NoError(t, err)
	assert.Equal(t, Stamp{Size: 10, ModTime: 200, Hash: "abc"}, stamps["/c/prelude.xml"])
}

func TestIndexGetNotFound(t *testing.T) {
	idx := openTestIndex(t)
	_, err := idx.Get("/c/missing.xml")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIndexMarkErrorKeepsLastGoodFields(t *testing.T) {
	idx := openTestIndex(t)

	md := &Metadata{
		Path: "/c/chorale.xml", Format: "musicxml", Size: 10, ModTime: 100,
		Title: "Chorale", Composer: "Bach", Parts: 4,
	}
	require.NoError(t, idx.Upsert(md))
	require.NoError(t, idx.MarkError("/c/chorale.xml", 12, 150, errors.New("truncated file")))

	status, msg, err := idx.Status("/c/chorale.xml")
	require.NoError(t, err)
	assert.Equal(t, "error", status)
	assert.Equal(t, "truncated file", msg)

	// Musical fields survive the failed re-extraction.
	got, err := idx.Get("/c/chorale.xml")
	require.NoError(t, err)
	assert.Equal(t, "Chorale", got.Title)
	assert.Equal(t, int64(12), got.Size)

	// Error rows are excluded from search.
	results, err := idx.Search(Query{Composer: "bach"})
	require.NoError(t, err)
	assert.Empty(t, results)

	// A later successful extraction clears the error.
	require.NoError(t, idx.Upsert(md))
	status, _, err = idx.Status("/c/chorale.xml")
	require.NoError(t, err)
	assert.Equal(t, "ok", status)
}

func TestIndexMarkErrorNewPath(t *testing.T) {
	idx := openTestIndex(t)
	require.NoError(t, idx.MarkError("/c/bad.mxl", 5, 50, errors.New("not a zip")))

	status, msg, err := idx.Status("/c/bad.mxl")
	require.NoError(t, err)
	assert.Equal(t, "error", status)
	assert.Equal(t, "not a zip", msg)
}

func TestIndexSearch(t *testing.T) {
	idx := openTestIndex(t)

	scores := []*Metadata{
		{Path: "/c/a.xml", Format: "musicxml", Title: "Chorale 1", Composer: "Bach",
			Parts: 4, KeySig: "D major", AmbitusLow: 40, AmbitusHigh: 81},
		{Path: "/c/b.mxl", Format: "mxl", Title: "Chorale 2", Composer: "Bach",
			Parts: 4, KeySig: "g minor", AmbitusLow: 43, AmbitusHigh: 79},
		{Path: "/c/c.xml", Format: "musicxml", Title: "Nocturne", Composer: "Chopin",
			Parts: 1, KeySig: "Eb major", AmbitusLow: 30, AmbitusHigh: 100},
	}
	for _, md := range scores {
		require.NoError(t, idx.Upsert(md))
	}

	results, err := idx.Search(Query{Composer: "bach"})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = idx.Search(Query{KeySig: "g minor"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/c/b.mxl", results[0].Path)

	results, err = idx.Search(Query{MinParts: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = idx.Search(Query{Format: "mxl"})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// Ambitus containment: everything inside E2..A5.
	results, err = idx.Search(Query{AmbitusLow: 40, AmbitusHigh: 81})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = idx.Search(Query{Title: "chorale", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "Chorale 1", results[0].Title)
}

func TestIndexStats(t *testing.T) {
	idx := openTestIndex(t)

	require.NoError(t, idx.Upsert(&Metadata{Path: "/c/a.xml", Format: "musicxml", Composer: "Bach", Notes: 10}))
	require.NoError(t, idx.Upsert(&Metadata{Path: "/c/b.mxl", Format: "mxl", Composer: "Chopin", Notes: 5}))
	require.NoError(t, idx.MarkError("/c/bad.xml", 1, 1, errors.New("boom")))

	st, err := idx.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, st.Scores)
	assert.Equal(t, 1, st.Errors)
	assert.Equal(t, 2, st.Composers)
	assert.Equal(t, 15, st.Notes)
	assert.Equal(t, 2, st.ByFormat["musicxml"])
	assert.Equal(t, 1, st.ByFormat["mxl"])
}

func TestBuilderBuild(t *testing.T) {
	dir := t.TempDir()
	writeScore(t, dir, "prelude.xml", preludeXML)
	writeScore(t, dir, filepath.Join("sub", "copy.musicxml"), preludeXML)
	broken := writeScore(t, dir, "broken.xml", "<score-partwise><oops")
	writeScore(t, dir, "notes.txt", "not a score")

	idx := openTestIndex(t)
	b := NewBuilder(idx, 4)

	report, err := b.Build(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Skipped)
	assert.NotEmpty(t, report.ID)

	status, _, err := idx.Status(broken)
	require.NoError(t, err)
	assert.Equal(t, "error", status)

	// Unchanged files are skipped on the next run. The broken file has a
	// matching stamp too, so it is not retried until it changes.
	report, err = b.Build(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Indexed)
	assert.Equal(t, 3, report.Skipped)

	// Deleting a file drops its row.
	require.NoError(t, os.Remove(filepath.Join(dir, "prelude.xml")))
	report, err = b.Build(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)

	st, err := idx.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, st.Scores)
}

func TestBuilderCancelled(t *testing.T) {
	dir := t.TempDir()
	writeScore(t, dir, "prelude.xml", preludeXML)

	idx := openTestIndex(t)
	b := NewBuilder(idx, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Build(ctx, dir)
	// A pre-cancelled context may still win the race for a tiny corpus;
	// it must never corrupt the index either way.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestBuilderSiblingRootsKeepRows(t *testing.T) {
	base := t.TempDir()
	rootA := filepath.Join(base, "a")
	rootAB := filepath.Join(base, "ab")
	writeScore(t, rootA, "one.xml", preludeXML)
	sibling := writeScore(t, rootAB, "two.xml", preludeXML)

	idx := openTestIndex(t)
	b := NewBuilder(idx, 2)

	_, err := b.Build(context.Background(), rootA)
	require.NoError(t, err)
	_, err = b.Build(context.Background(), rootAB)
	require.NoError(t, err)

	// The roots share a name prefix but are different corpora. A rebuild
	// of one must not sweep rows belonging to the other.
	report, err := b.Build(context.Background(), rootA)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Removed)

	_, err = idx.Get(sibling)
	assert.NoError(t, err)
}

// sequencedIndex records the order of index calls across builds.
type sequencedIndex struct {
	Indexer
	mu     sync.Mutex
	events []string
}

func (s *sequencedIndex) record(kind string) {
	s.mu.Lock()
	s.events = append(s.events, kind)
	s.mu.Unlock()
}

func (s *sequencedIndex) Stamps() (map[string]Stamp, error) {
	s.record("stamps")
	return s.Indexer.Stamps()
}

func (s *sequencedIndex) Upsert(md *Metadata) error {
	s.record("upsert")
	time.Sleep(20 * time.Millisecond)
	return s.Indexer.Upsert(md)
}

func TestBuilderConcurrentBuildsSerialize(t *testing.T) {
	dir := t.TempDir()
	writeScore(t, dir, "one.xml", preludeXML)
	writeScore(t, dir, "two.xml", preludeXML)

	spy := &sequencedIndex{Indexer: openTestIndex(t)}
	b := NewBuilder(spy, 4)

	var wg sync.WaitGroup
	var indexed, skipped int64
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := b.Build(context.Background(), dir)
			if assert.NoError(t, err) {
				atomic.AddInt64(&indexed, int64(report.Indexed))
				atomic.AddInt64(&skipped, int64(report.Skipped))
			}
		}()
	}
	wg.Wait()

	// One build extracts both files; the other starts after it, sees
	// fresh stamps, and skips everything. An interleaved pair would
	// double-extract or race the removal sweep.
	assert.EqualValues(t, 2, indexed)
	assert.EqualValues(t, 2, skipped)
	require.Equal(t, []string{"stamps", "upsert", "upsert", "stamps"}, spy.events)
}

func TestWatcher(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	idx, err := OpenIndex(":memory:")
	require.NoError(t, err)
	defer idx.Close()

	w, err := NewWatcher(dir, idx, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	path := writeScore(t, dir, "prelude.xml", preludeXML)
	assert.Eventually(t, func() bool {
		md, err := idx.Get(path)
		return err == nil && md.Title == "Prelude"
	}, 5*time.Second, 20*time.Millisecond, "new file should be indexed")

	require.NoError(t, os.Remove(path))
	assert.Eventually(t, func() bool {
		_, err := idx.Get(path)
		return err != nil
	}, 5*time.Second, 20*time.Millisecond, "deleted file should leave the index")

	stats := w.Stats()
	assert.GreaterOrEqual(t, stats.Reindexed, 1)
}

func TestWatcherMarksBrokenFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	idx, err := OpenIndex(":memory:")
	require.NoError(t, err)
	defer idx.Close()

	w, err := NewWatcher(dir, idx, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	path := writeScore(t, dir, "broken.xml", "<score-partwise><oops")
	assert.Eventually(t, func() bool {
		status, _, err := idx.Status(path)
		return err == nil && status == "error"
	}, 5*time.Second, 20*time.Millisecond, "broken file should be marked")
}
