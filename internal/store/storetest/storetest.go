// Package storetest is the conformance suite every store engine runs.
//
// An engine test calls Run with a factory that returns an empty store.
// Each subtest gets its own store.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/store"
)

// Factory returns an empty store. It registers its own cleanup.
type Factory func(t *testing.T) store.Store

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// at returns a fixed timestamp i seconds after base.
func at(i int) string {
	return ir.FormatTimestamp(base.Add(time.Duration(i) * time.Second))
}

// Run executes the conformance suite against the engine.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(*testing.T, store.Store)
	}{
		{"CreateAndLoadIdentity", testCreateAndLoadIdentity},
		{"CreateIdentityDuplicate", testCreateIdentityDuplicate},
		{"LoadKeysNotFound", testLoadKeysNotFound},
		{"UpdateEncryptedPrivate", testUpdateEncryptedPrivate},
		{"ListIdentities", testListIdentities},
		{"InsertFillsDefaults", testInsertFillsDefaults},
		{"InsertRejectsInvalid", testInsertRejectsInvalid},
		{"InsertDuplicateID", testInsertDuplicateID},
		{"AppendOnly", testAppendOnly},
		{"FilterByContext", testFilterByContext},
		{"FilterLike", testFilterLike},
		{"FilterLikeLiteral", testFilterLikeLiteral},
		{"FilterJSONField", testFilterJSONField},
		{"FilterJSONFieldNulEscape", testFilterJSONFieldNulEscape},
		{"FilterTimeRange", testFilterTimeRange},
		{"TargetVerbs", testTargetVerbs},
		{"Pagination", testPagination},
		{"AllVerbsPerTableLimit", testAllVerbsPerTableLimit},
		{"OrderingTiebreak", testOrderingTiebreak},
		{"EmptyResult", testEmptyResult},
		{"InvalidFilter", testInvalidFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

func insert(t *testing.T, s store.Store, e ir.Entry) {
	t.Helper()
	require.NoError(t, s.Insert(context.Background(), e))
}

func get(t *testing.T, s store.Store, f ir.Filter) []ir.Entry {
	t.Helper()
	entries, err := s.Get(context.Background(), f)
	require.NoError(t, err)
	return entries
}

func values(entries []ir.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

func testCreateAndLoadIdentity(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateIdentity(ctx, "alice123", "pub", "sealed"))

	k, err := s.LoadKeys(ctx, "alice123")
	require.NoError(t, err)
	assert.Equal(t, "pub", k.PublicKey)
	assert.Equal(t, "sealed", k.EncryptedPrivateKey)
	_, err = ir.NormalizeTimestamp(k.CreatedAt)
	assert.NoError(t, err, "created_at must be ISO-8601")
}

func testCreateIdentityDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateIdentity(ctx, "alice123", "pub", "sealed"))

	err := s.CreateIdentity(ctx, "alice123", "other", "other")
	require.Error(t, err)
	assert.True(t, store.IsAlreadyExists(err), "got %v", err)
	assert.False(t, store.IsRetryable(err))

	k, err := s.LoadKeys(ctx, "alice123")
	require.NoError(t, err)
	assert.Equal(t, "pub", k.PublicKey, "original record untouched")
}

func testLoadKeysNotFound(t *testing.T, s store.Store) {
	_, err := s.LoadKeys(context.Background(), "nobody99")
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err), "got %v", err)
	assert.False(t, store.IsRetryable(err))
}

func testUpdateEncryptedPrivate(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateIdentity(ctx, "alice123", "pub", "sealed-1"))
	require.NoError(t, s.UpdateEncryptedPrivate(ctx, "alice123", "sealed-2"))

	k, err := s.LoadKeys(ctx, "alice123")
	require.NoError(t, err)
	assert.Equal(t, "sealed-2", k.EncryptedPrivateKey)
	assert.Equal(t, "pub", k.PublicKey)

	err = s.UpdateEncryptedPrivate(ctx, "nobody99", "x")
	assert.True(t, store.IsNotFound(err), "got %v", err)
}

func testListIdentities(t *testing.T, s store.Store) {
	ctx := context.Background()

	list, err := s.ListIdentities(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	require.NoError(t, s.CreateIdentity(ctx, "zed_user", "pz", "sz"))
	require.NoError(t, s.CreateIdentity(ctx, "alice123", "pa", "sa"))

	list, err = s.ListIdentities(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice123", list[0].Username)
	assert.Equal(t, "pa", list[0].PublicKey)
	assert.Equal(t, "zed_user", list[1].Username)
}

func testInsertFillsDefaults(t *testing.T, s store.Store) {
	insert(t, s, ir.Entry{Verb: ir.VerbBe, ContextID: "ctx", Key: "k", Value: "v"})

	got := get(t, s, ir.Filter{Verb: "be", ContextID: "ctx"})
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.Len(t, got[0].Timestamp, len(ir.TimestampLayout))
	assert.Equal(t, ir.VerbBe, got[0].Verb)
}

func testInsertRejectsInvalid(t *testing.T, s store.Store) {
	ctx := context.Background()
	for name, e := range map[string]ir.Entry{
		"unknown verb":  {Verb: "say", ContextID: "c", Key: "k"},
		"no context":    {Verb: ir.VerbBe, Key: "k"},
		"no key":        {Verb: ir.VerbBe, ContextID: "c"},
		"bad timestamp": {Verb: ir.VerbBe, ContextID: "c", Key: "k", Timestamp: "yesterday"},
	} {
		err := s.Insert(ctx, e)
		assert.True(t, store.IsValidation(err), "%s: got %v", name, err)
	}
}

func testInsertDuplicateID(t *testing.T, s store.Store) {
	e := ir.Entry{ID: "fixed-id", Verb: ir.VerbHave, ContextID: "c", Key: "k", Value: "v1", Timestamp: at(0)}
	insert(t, s, e)

	e.Value = "v2"
	err := s.Insert(context.Background(), e)
	require.Error(t, err)
	assert.True(t, store.IsAlreadyExists(err), "got %v", err)

	got := get(t, s, ir.Filter{Verb: "have"})
	assert.Equal(t, []string{"v1"}, values(got))
}

func testAppendOnly(t *testing.T, s store.Store) {
	insert(t, s, ir.Entry{Verb: ir.VerbBe, ContextID: "ctx", Key: "k", Value: "v", Timestamp: at(0)})
	before := get(t, s, ir.Filter{Verb: "be", ContextID: "ctx"})
	require.Len(t, before, 1)

	insert(t, s, ir.Entry{Verb: ir.VerbBe, ContextID: "ctx", Key: "k", Value: "v2", Timestamp: at(1)})
	after := get(t, s, ir.Filter{Verb: "be", ContextID: "ctx"})
	require.Len(t, after, 2)

	assert.Equal(t, before[0], after[1], "prior entry unchanged")

	exact := get(t, s, ir.Filter{Verb: "be", ContextID: "ctx", Key: "k", Value: "v"})
	require.Len(t, exact, 1)
	assert.Equal(t, "k", exact[0].Key)
}

func testFilterByContext(t *testing.T, s store.Store) {
	insert(t, s, ir.Entry{Verb: ir.VerbBe, ContextID: "ctx1", Key: "color", Value: "red", Timestamp: at(1)})
	insert(t, s, ir.Entry{Verb: ir.VerbBe, ContextID: "ctx2", Key: "color", Value: "blue", Timestamp: at(2)})

	got := get(t, s, ir.Filter{Verb: "be", ContextID: "ctx1"})
	require.Len(t, got, 1)
	assert.Equal(t, "red", got[0].Value)
	assert.Equal(t, "ctx1", got[0].ContextID)
}

func testFilterLike(t *testing.T, s store.Store) {
	insert(t, s, ir.Entry{Verb: ir.VerbBe, ContextID: "ctx1", Key: "color", Value: "red", Timestamp: at(1)})
	insert(t, s, ir.Entry{Verb: ir.VerbBe, ContextID: "ctx2", Key: "color", Value: "blue", Timestamp: at(2)})
	insert(t, s, ir.Entry{Verb: ir.VerbBe, ContextID: "ctx2", Key: "size", Value: "large", Timestamp: at(3)})

	got := get(t, s, ir.Filter{Verb: "be", Key: "like:col"})
	assert.Equal(t, []string{"blue", "red"}, values(got))

	got = get(t, s, ir.Filter{Verb: "be", Key: "like:COL"})
	assert.Len(t, got, 2, "substring match ignores ASCII case")

	got = get(t, s, ir.Filter{Verb: "be", Value: "like:ar"})
	assert.Equal(t, []string{"large"}, values(got))
}

func testFilterLikeLiteral(t *testing.T, s store.Store) {
	insert(t, s, ir.Entry{Verb: ir.VerbHave, ContextID: "c", Key: "discount", Value: "50% off", Timestamp: at(1)})
	insert(t, s, ir.Entry{Verb: ir.VerbHave, ContextID: "c", Key: "discount", Value: "500 off", Timestamp: at(2)})
	insert(t, s, ir.Entry{Verb: ir.VerbHave, ContextID: "c", Key: "snake_case", Value: "x", Timestamp: at(3)})
	insert(t, s, ir.Entry{Verb: ir.VerbHave, ContextID: "c", Key: "snakeXcase", Value: "y", Timestamp: at(4)})

	assert.Equal(t, []string{"50% off"}, values(get(t, s, ir.Filter{Verb: "have", Value: "like:50%"})))
	assert.Equal(t, []string{"x"}, values(get(t, s, ir.Filter{Verb: "have", Key: "like:e_c"})))
}

func testFilterJSONField(t *testing.T, s store.Store) {
	rows := []string{
		`{"shade":"red","n":1}`,
		`{"shade":"blue"}`,
		`not json`,
		`["shade","red"]`,
		`{"shade":"crimson red"}`,
		`{"other":"red"}`,
		`{"flag":true,"n":7}`,
		`{`,
	}
	for i, v := range rows {
		insert(t, s, ir.Entry{Verb: ir.VerbHave, ContextID: "c", Key: fmt.Sprintf("k%d", i), Value: v, Timestamp: at(i)})
	}

	got := get(t, s, ir.Filter{Verb: "have", Value: "json:shade=red"})
	assert.Equal(t, []string{`{"shade":"red","n":1}`}, values(got))

	got = get(t, s, ir.Filter{Verb: "have", Value: "json:n=7"})
	assert.Equal(t, []string{`{"flag":true,"n":7}`}, values(got))

	got = get(t, s, ir.Filter{Verb: "have", Value: "json:flag=true"})
	assert.Equal(t, []string{`{"flag":true,"n":7}`}, values(got))

	got = get(t, s, ir.Filter{Verb: "have", Value: "json:missing=red"})
	assert.Empty(t, got)
}

// testFilterJSONFieldNulEscape checks that an object holding a \u0000
// escape in another context does not break JSON filtering for the table.
func testFilterJSONFieldNulEscape(t *testing.T, s store.Store) {
	insert(t, s, ir.Entry{Verb: ir.VerbHave, ContextID: "a", Key: "paint", Value: `{"shade":"red"}`, Timestamp: at(0)})
	insert(t, s, ir.Entry{Verb: ir.VerbHave, ContextID: "b", Key: "blob", Value: `{"shade":"\u0000"}`, Timestamp: at(1)})

	got := get(t, s, ir.Filter{Verb: "have", Value: "json:shade=red"})
	assert.Equal(t, []string{`{"shade":"red"}`}, values(got))

	got = get(t, s, ir.Filter{Verb: "have", ContextID: "a", Value: "json:shade=red"})
	assert.Equal(t, []string{`{"shade":"red"}`}, values(got))

	got = get(t, s, ir.Filter{Verb: "have", Value: "like:shade"})
	assert.Len(t, got, 2, "the row itself is stored and readable")
}

func testFilterTimeRange(t *testing.T, s store.Store) {
	for i := 0; i < 5; i++ {
		insert(t, s, ir.Entry{Verb: ir.VerbDo, ContextID: "c", Key: "run", Value: fmt.Sprint(i), Timestamp: at(i * 60)})
	}

	got := get(t, s, ir.Filter{Verb: "do", Since: at(60), Until: at(180)})
	assert.Equal(t, []string{"3", "2", "1"}, values(got))

	got = get(t, s, ir.Filter{Verb: "do_", Since: at(240)})
	assert.Equal(t, []string{"4"}, values(got))

	// Since accepts any RFC 3339 offset and compares in UTC.
	got = get(t, s, ir.Filter{Verb: "do", Until: "2024-03-01T13:01:00+01:00"})
	assert.Equal(t, []string{"1", "0"}, values(got))
}

func testTargetVerbs(t *testing.T, s store.Store) {
	insert(t, s, ir.Entry{Verb: ir.VerbRelate, ContextID: "c", Key: "bob", Value: "friend", Timestamp: at(1)})
	insert(t, s, ir.Entry{Verb: ir.VerbReact, ContextID: "c", Key: "post-1", Value: "👍", Timestamp: at(2)})
	insert(t, s, ir.Entry{Verb: ir.VerbCommunicate, ContextID: "c", Key: "bob", Value: "hello there", Timestamp: at(3)})

	rel := get(t, s, ir.Filter{Verb: "relate", Key: "bob"})
	require.Len(t, rel, 1)
	assert.Equal(t, ir.Entry{ID: rel[0].ID, Verb: ir.VerbRelate, ContextID: "c", Key: "bob", Value: "friend", Timestamp: at(1)}, rel[0])

	react := get(t, s, ir.Filter{Verb: "react", Value: "👍"})
	require.Len(t, react, 1)
	assert.Equal(t, "post-1", react[0].Key)

	msg := get(t, s, ir.Filter{Verb: "communicate", Key: "bob", Value: "like:there"})
	require.Len(t, msg, 1)
	assert.Equal(t, "hello there", msg[0].Value)

	all := get(t, s, ir.Filter{Verb: "all", Key: "bob"})
	require.Len(t, all, 2)
	assert.Equal(t, ir.VerbCommunicate, all[0].Verb)
	assert.Equal(t, ir.VerbRelate, all[1].Verb)
}

func testPagination(t *testing.T, s store.Store) {
	for i := 0; i < 150; i++ {
		insert(t, s, ir.Entry{Verb: ir.VerbBe, ContextID: "c", Key: "n", Value: fmt.Sprintf("%03d", i), Timestamp: at(i)})
	}

	first := get(t, s, ir.Filter{Verb: "be", Limit: 50})
	last := get(t, s, ir.Filter{Verb: "be", Limit: 50, Offset: 100})
	require.Len(t, first, 50)
	require.Len(t, last, 50)

	assert.Equal(t, "149", first[0].Value)
	assert.Equal(t, "100", first[49].Value)
	assert.Equal(t, "049", last[0].Value)
	assert.Equal(t, "000", last[49].Value)

	seen := map[string]bool{}
	for _, e := range first {
		seen[e.ID] = true
	}
	for _, e := range last {
		assert.False(t, seen[e.ID], "offset pages must be disjoint")
	}

	assert.Len(t, get(t, s, ir.Filter{Verb: "be"}), ir.DefaultLimit)
}

func testAllVerbsPerTableLimit(t *testing.T, s store.Store) {
	for i, v := range ir.AllVerbs {
		for j := 0; j < 3; j++ {
			insert(t, s, ir.Entry{Verb: v, ContextID: "c", Key: "k", Value: fmt.Sprintf("%s-%d", v, j), Timestamp: at(i*10 + j)})
		}
	}

	got := get(t, s, ir.Filter{Verb: "all", ContextID: "c", Limit: 2})
	require.Len(t, got, 2*len(ir.AllVerbs), "limit applies per verb table")

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Timestamp, got[i].Timestamp, "merged result is newest first")
	}
	assert.Equal(t, "communicate-2", got[0].Value)

	got = get(t, s, ir.Filter{Verb: "all", ContextID: "c", Limit: 1, Offset: 2})
	require.Len(t, got, len(ir.AllVerbs))
	for _, e := range got {
		assert.Equal(t, fmt.Sprintf("%s-0", e.Verb), e.Value)
	}
}

func testOrderingTiebreak(t *testing.T, s store.Store) {
	ts := at(0)
	insert(t, s, ir.Entry{ID: "0190a000-0000-7000-8000-000000000001", Verb: ir.VerbAt, ContextID: "c", Key: "k", Value: "a", Timestamp: ts})
	insert(t, s, ir.Entry{ID: "0190a000-0000-7000-8000-000000000003", Verb: ir.VerbAt, ContextID: "c", Key: "k", Value: "c", Timestamp: ts})
	insert(t, s, ir.Entry{ID: "0190a000-0000-7000-8000-000000000002", Verb: ir.VerbAt, ContextID: "c", Key: "k", Value: "b", Timestamp: ts})

	for i := 0; i < 3; i++ {
		assert.Equal(t, []string{"c", "b", "a"}, values(get(t, s, ir.Filter{Verb: "at"})))
	}
}

func testEmptyResult(t *testing.T, s store.Store) {
	got := get(t, s, ir.Filter{Verb: "all", ContextID: "nothing-here"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func testInvalidFilter(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, f := range []ir.Filter{
		{},
		{Verb: "say"},
		{Verb: "be", Key: "json:a=b"},
		{Verb: "be", Since: "2024-02-01", Until: "2024-01-01"},
	} {
		_, err := s.Get(ctx, f)
		assert.True(t, store.IsValidation(err), "%+v: got %v", f, err)
	}
}
