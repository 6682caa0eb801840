package diary

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diary/internal/storage"
)

type fakeKV struct {
	data   map[string][]byte
	puts   int
	getErr error
	putErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}}
}

func (f *fakeKV) Get(key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Put(key string, value []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.puts++
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeKV) stored(t *testing.T) []Record {
	t.Helper()
	var out []Record
	require.NoError(t, json.Unmarshal(f.data[StoreKey], &out))
	return out
}

var fixedNow = time.Date(2026, 10, 19, 15, 4, 5, 0, time.Local)

func fixedClock() time.Time { return fixedNow }

func newTestRepo(kv KV) *Repository {
	return NewRepository(kv, WithClock(fixedClock))
}

func TestAddAppendsAndPersists(t *testing.T) {
	kv := newFakeKV()
	repo := newTestRepo(kv)

	rec, err := repo.Add("Buy milk", "2%")
	require.NoError(t, err)

	assert.Equal(t, "Buy milk", rec.Title)
	assert.Equal(t, "2%", rec.Description)
	assert.Equal(t, fixedNow.UnixMilli(), rec.ID)
	assert.Equal(t, "10/19/2026, 3:04:05 PM", rec.AddedDate)
	assert.False(t, rec.Completed)
	assert.Nil(t, rec.CompletedDate)

	assert.Len(t, repo.Records(), 1)
	assert.Equal(t, 1, kv.puts)
	assert.Equal(t, repo.Records(), kv.stored(t))
}

func TestAddRejectsBlankTitle(t *testing.T) {
	for _, title := range []string{"", " ", "\t\n "} {
		kv := newFakeKV()
		repo := newTestRepo(kv)

		_, err := repo.Add(title, "desc")
		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, repo.Records())
		assert.Equal(t, 0, kv.puts, "no write for %q", title)
	}
}

func TestAddIDsStrictlyIncrease(t *testing.T) {
	repo := newTestRepo(newFakeKV())

	a, err := repo.Add("a", "")
	require.NoError(t, err)
	b, err := repo.Add("b", "")
	require.NoError(t, err)
	c, err := repo.Add("c", "")
	require.NoError(t, err)

	assert.Less(t, a.ID, b.ID)
	assert.Less(t, b.ID, c.ID)
}

func TestIDsContinueAfterReload(t *testing.T) {
	kv := newFakeKV()
	repo := newTestRepo(kv)
	first, err := repo.Add("a", "")
	require.NoError(t, err)
	_, err = repo.Add("b", "")
	require.NoError(t, err)

	reloaded := newTestRepo(kv)
	_, err = reloaded.Load()
	require.NoError(t, err)
	c, err := reloaded.Add("c", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID+2, c.ID)
}

func TestEditReplacesTitleAndDescriptionOnly(t *testing.T) {
	kv := newFakeKV()
	repo := newTestRepo(kv)
	rec, err := repo.Add("old", "old desc")
	require.NoError(t, err)

	edited, err := repo.Edit(rec.ID, "new", "")
	require.NoError(t, err)
	assert.Equal(t, "new", edited.Title)
	assert.Equal(t, "", edited.Description)
	assert.Equal(t, rec.ID, edited.ID)
	assert.Equal(t, rec.AddedDate, edited.AddedDate)
	assert.False(t, edited.Completed)
	assert.Equal(t, 2, kv.puts)
}

func TestEditAllowsEmptyTitle(t *testing.T) {
	repo := newTestRepo(newFakeKV())
	rec, err := repo.Add("x", "")
	require.NoError(t, err)

	edited, err := repo.Edit(rec.ID, "", "d")
	require.NoError(t, err)
	assert.Equal(t, "", edited.Title)
}

func TestCompleteSetsDate(t *testing.T) {
	now := fixedNow
	kv := newFakeKV()
	repo := NewRepository(kv, WithClock(func() time.Time { return now }))
	rec, err := repo.Add("x", "")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	done, err := repo.Complete(rec.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedDate)
	assert.Equal(t, "10/19/2026, 4:04:05 PM", *done.CompletedDate)

	now = now.Add(time.Hour)
	again, err := repo.Complete(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "10/19/2026, 5:04:05 PM", again.CompletedAt())
}

func TestMutationsOnMissingID(t *testing.T) {
	kv := newFakeKV()
	repo := newTestRepo(kv)
	_, err := repo.Add("x", "")
	require.NoError(t, err)
	before := repo.Records()

	_, err = repo.Edit(42, "y", "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Complete(42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Remove(42), ErrNotFound)

	assert.Equal(t, before, repo.Records())
	assert.Equal(t, 1, kv.puts)
}

func TestRemove(t *testing.T) {
	kv := newFakeKV()
	repo := newTestRepo(kv)
	a, _ := repo.Add("a", "")
	b, _ := repo.Add("b", "")
	c, _ := repo.Add("c", "")

	require.NoError(t, repo.Remove(b.ID))

	recs := repo.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, a.ID, recs[0].ID)
	assert.Equal(t, c.ID, recs[1].ID)
	assert.Equal(t, recs, kv.stored(t))
}

func TestRecordsReturnsCopy(t *testing.T) {
	repo := newTestRepo(newFakeKV())
	rec, _ := repo.Add("a", "")
	_, err := repo.Complete(rec.ID)
	require.NoError(t, err)

	recs := repo.Records()
	recs[0].Title = "changed"
	*recs[0].CompletedDate = "changed"

	fresh := repo.Records()
	assert.Equal(t, "a", fresh[0].Title)
	assert.NotEqual(t, "changed", fresh[0].CompletedAt())
}

func TestWriteFailureKeepsInMemoryChange(t *testing.T) {
	kv := newFakeKV()
	kv.putErr = errors.New("quota exceeded")
	repo := newTestRepo(kv)

	rec, err := repo.Add("a", "")
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "write", se.Op)
	assert.Equal(t, StoreKey, se.Key)
	assert.Equal(t, "a", rec.Title)
	assert.Len(t, repo.Records(), 1)

	kv.putErr = nil
	require.NoError(t, repo.Sync())
	assert.Equal(t, repo.Records(), kv.stored(t))
}

func TestLoadMissingKey(t *testing.T) {
	repo := newTestRepo(newFakeKV())
	recs, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLoadReadFailure(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("storage disabled")
	repo := newTestRepo(kv)

	recs, err := repo.Load()
	var se *StorageError
	assert.ErrorAs(t, err, &se)
	assert.Empty(t, recs)
	assert.Empty(t, repo.Records())
}

func TestLoadMalformed(t *testing.T) {
	for _, raw := range []string{"{not json", `{"title":"x"}`, `"todos"`} {
		kv := newFakeKV()
		kv.data[StoreKey] = []byte(raw)
		repo := newTestRepo(kv)

		recs, err := repo.Load()
		var pe *ParseError
		assert.ErrorAs(t, err, &pe, raw)
		assert.Empty(t, recs)
	}
}

func TestLoadNullAndBlank(t *testing.T) {
	for _, raw := range []string{"null", "", "  "} {
		kv := newFakeKV()
		kv.data[StoreKey] = []byte(raw)
		repo := newTestRepo(kv)

		recs, err := repo.Load()
		require.NoError(t, err, raw)
		assert.Empty(t, recs)
	}
}

func TestLoadNormalizes(t *testing.T) {
	kv := newFakeKV()
	kv.data[StoreKey] = []byte(`[
		{"title":"a","description":"","id":1,"addedDate":"d1","completed":false,"completedDate":"stray"},
		{"title":"b","description":"","id":2,"addedDate":"d2","completed":true,"completedDate":null},
		{"title":"dup","description":"","id":1,"addedDate":"d3","completed":false,"completedDate":null}
	]`)
	repo := newTestRepo(kv)

	recs, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].Title)
	assert.Nil(t, recs[0].CompletedDate)
	assert.Equal(t, "d2", recs[1].CompletedAt())
}

func TestRoundTripThroughSQLite(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "diary.db"))
	require.NoError(t, err)
	defer store.Close()

	repo := newTestRepo(store)
	a, _ := repo.Add("a", "first")
	_, _ = repo.Add("b", "second")
	_, err = repo.Complete(a.ID)
	require.NoError(t, err)
	want := repo.Records()

	reloaded := newTestRepo(store)
	got, err := reloaded.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteRefusedWhenStoreChangedElsewhere(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "diary.db"))
	require.NoError(t, err)
	defer store.Close()

	long := newTestRepo(store)
	_, err = long.Load()
	require.NoError(t, err)
	a, err := long.Add("from session", "")
	require.NoError(t, err)

	other := NewRepository(store, WithClock(func() time.Time { return fixedNow.Add(time.Minute) }))
	_, err = other.Load()
	require.NoError(t, err)
	_, err = other.Add("from command", "")
	require.NoError(t, err)

	_, err = long.Complete(a.ID)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "write", se.Op)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, long.Sync(), ErrConflict)

	fresh := newTestRepo(store)
	recs, err := fresh.Load()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "from command", recs[1].Title)
	assert.False(t, recs[0].Completed)

	// reloading picks up the other write and unblocks saving
	_, err = long.Load()
	require.NoError(t, err)
	_, err = long.Complete(a.ID)
	require.NoError(t, err)
	recs, err = fresh.Load()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Completed)
}

func TestWriteAfterCorruptLoadOverwrites(t *testing.T) {
	kv := newFakeKV()
	kv.data[StoreKey] = []byte("{broken")
	repo := newTestRepo(kv)
	_, err := repo.Load()
	require.Error(t, err)

	_, err = repo.Add("a", "")
	require.NoError(t, err)
	assert.Len(t, kv.stored(t), 1)
}

func TestSerializedFieldNames(t *testing.T) {
	kv := newFakeKV()
	repo := newTestRepo(kv)
	_, err := repo.Add("a", "b")
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(kv.data[StoreKey], &raw))
	require.Len(t, raw, 1)
	for _, k := range []string{"title", "description", "id", "addedDate", "completed", "completedDate"} {
		assert.Contains(t, raw[0], k)
	}
	assert.Nil(t, raw[0]["completedDate"])
}
