package kv

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCollection_PutGetAllDelete(t *testing.T) {
	ctx := context.Background()
	col := openTestDB(t).Collection("tracks")

	base := time.Unix(1700000000, 0).UTC()
	recs := []Record{
		{Key: "a", Value: []byte(`{"n":1}`), Payload: []byte{0, 1, 2}, CreatedAt: base},
		{Key: "b", Value: []byte(`{"n":2}`), CreatedAt: base.Add(2 * time.Second)},
		{Key: "c", Value: []byte(`{"n":3}`), CreatedAt: base.Add(time.Second)},
	}
	for _, r := range recs {
		if err := col.Put(ctx, r); err != nil {
			t.Fatalf("put %s: %v", r.Key, err)
		}
	}

	all, err := col.GetAll(ctx)
	if err != nil {
		t.Fatalf("getall: %v", err)
	}
	if len(all) != 3 || all[0].Key != "b" || all[1].Key != "c" || all[2].Key != "a" {
		t.Fatalf("want newest first b,c,a; got %+v", all)
	}
	if !bytes.Equal(all[2].Payload, []byte{0, 1, 2}) {
		t.Fatalf("payload mismatch: %v", all[2].Payload)
	}
	if all[0].Payload != nil {
		t.Fatalf("text record grew a payload: %v", all[0].Payload)
	}
	if !all[2].CreatedAt.Equal(base) {
		t.Fatalf("created_at mismatch: %v", all[2].CreatedAt)
	}

	// upsert replaces
	if err := col.Put(ctx, Record{Key: "a", Value: []byte(`{"n":9}`), CreatedAt: base}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := col.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Value) != `{"n":9}` || got.Payload != nil {
		t.Fatalf("upsert not applied: %+v", got)
	}

	if err := col.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := col.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := col.Delete(ctx, "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestCollection_EmptyAndIsolated(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	all, err := db.Collection("transcriptions").GetAll(ctx)
	if err != nil {
		t.Fatalf("getall on fresh collection: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("fresh collection not empty: %+v", all)
	}

	if err := db.Collection("tracks").Put(ctx, Record{Key: "x", Value: []byte("v"), CreatedAt: time.Now()}); err != nil {
		t.Fatalf("put: %v", err)
	}
	all, _ = db.Collection("transcriptions").GetAll(ctx)
	if len(all) != 0 {
		t.Fatalf("collections leak into each other: %+v", all)
	}
}

func TestCollection_Errors(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	err := db.Collection("bad name; drop").Put(ctx, Record{Key: "k", CreatedAt: time.Now()})
	var se *StoreError
	if !errors.As(err, &se) || se.Op != "open" {
		t.Fatalf("want open StoreError, got %v", err)
	}

	if err := db.Collection("ok").Put(ctx, Record{CreatedAt: time.Now()}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestCollection_PutManyIsAtomic(t *testing.T) {
	ctx := context.Background()
	col := openTestDB(t).Collection("sessions")
	now := time.Now()

	err := col.PutMany(ctx, []Record{
		{Key: "one", Value: []byte("1"), CreatedAt: now},
		{Key: "", Value: []byte("2"), CreatedAt: now},
	})
	if err == nil {
		t.Fatalf("expected failure")
	}
	all, err := col.GetAll(ctx)
	if err != nil {
		t.Fatalf("getall: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("partial write survived: %+v", all)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Collection("tracks").Put(ctx, Record{Key: "k", Value: []byte("v"), Payload: []byte("p"), CreatedAt: time.Now()}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := db.Checkpoint(ctx); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	_ = db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	r, err := db.Collection("tracks").Get(ctx, "k")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(r.Payload) != "p" {
		t.Fatalf("payload lost: %q", r.Payload)
	}
}
