package hdf5

import (
	"errors"
	"reflect"
	"testing"
)

func TestGroupTree(t *testing.T) {
	f, path := newFile(t)
	a, err := f.Root().CreateGroup("a")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	b, err := a.CreateGroup("b")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if b.Path() != "/a/b" || b.Name() != "b" {
		t.Errorf("Path, Name = %q, %q", b.Path(), b.Name())
	}
	if _, err := a.CreateGroup("b"); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate CreateGroup = %v, want ErrExists", err)
	}
	if _, err := a.CreateGroup("x/y"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("CreateGroup(x/y) = %v, want ErrInvalidPath", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r := reopen(t, path, ReadOnly)
	g, err := r.OpenGroup("/a/b")
	if err != nil {
		t.Fatalf("OpenGroup failed: %v", err)
	}
	if g.Name() != "b" {
		t.Errorf("Name() = %q", g.Name())
	}
	if _, err := r.OpenGroup("/a/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenGroup missing = %v, want ErrNotFound", err)
	}
	if _, err := r.OpenDataset("/a"); !errors.Is(err, ErrNotDataset) {
		t.Errorf("OpenDataset on a group = %v, want ErrNotDataset", err)
	}
}

func TestRequireGroup(t *testing.T) {
	f, _ := newFile(t)
	g1, err := f.Root().RequireGroup("g")
	if err != nil {
		t.Fatal(err)
	}
	g2, err := f.Root().RequireGroup("g")
	if err != nil {
		t.Fatal(err)
	}
	if g1 != g2 {
		t.Error("RequireGroup returned a different group for an existing name")
	}
	f.Root().CreateDataset("d", 1)
	if _, err := f.Root().RequireGroup("d"); !errors.Is(err, ErrNotGroup) {
		t.Errorf("RequireGroup over a dataset = %v, want ErrNotGroup", err)
	}
}

func TestDeleteAndRecreate(t *testing.T) {
	f, path := newFile(t)
	g, _ := f.Root().CreateGroup("g")
	g.SetAttr("old", true)
	f.Flush()

	if err := f.Root().Delete("g"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := f.Root().Delete("g"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
	g, _ = f.Root().CreateGroup("g")
	g.SetAttr("new", true)
	f.Close()

	r := reopen(t, path, ReadOnly)
	got := mustGroup(t, r, "/g").Attrs()
	if want := []string{"new"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Attrs() = %v, want %v", got, want)
	}
}

func TestMembersSorted(t *testing.T) {
	f, _ := newFile(t)
	for _, name := range []string{"zeta", "alpha", "list_idx_10", "list_idx_2"} {
		if _, err := f.Root().CreateGroup(name); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := f.Root().Members()
	want := []string{"alpha", "list_idx_10", "list_idx_2", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Members() = %v, want %v", got, want)
	}
}

func TestChildIdentity(t *testing.T) {
	f, path := newFile(t)
	f.Root().CreateGroup("g")
	f.Close()

	w := reopen(t, path, Append)
	c1, _ := w.Root().Child("g")
	c2, _ := w.Root().Child("g")
	if c1 != c2 {
		t.Error("Child returned distinct objects for one link")
	}
	c1.SetAttr("x", 1.5)
	w.Close()

	r := reopen(t, path, ReadOnly)
	if v, _ := r.ReadAttr("/g@x"); v != 1.5 {
		t.Errorf("change through Child lost: %v", v)
	}
}

func TestOpenRelativeAndAbsolute(t *testing.T) {
	f, _ := newFile(t)
	a, _ := f.Root().CreateGroup("a")
	b, _ := a.CreateGroup("b")
	b.CreateDataset("d", []int32{1})

	if _, err := a.OpenDataset("b/d"); err != nil {
		t.Errorf("relative OpenDataset failed: %v", err)
	}
	if _, err := b.OpenGroup("/a"); err != nil {
		t.Errorf("absolute OpenGroup from a subgroup failed: %v", err)
	}
	if _, err := a.Open("b/d/e"); !errors.Is(err, ErrNotGroup) {
		t.Errorf("path through a dataset = %v, want ErrNotGroup", err)
	}
}

func TestCreateSoftLink(t *testing.T) {
	f, path := newFile(t)
	a, err := f.Root().CreateGroup("a")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := a.CreateDataset("x", []int64{1, 2}); err != nil {
		t.Fatalf("CreateDataset failed: %v", err)
	}
	if err := f.Root().CreateSoftLink("alias", "/a/x"); err != nil {
		t.Fatalf("CreateSoftLink failed: %v", err)
	}
	if err := a.CreateSoftLink("up", "/"); err != nil {
		t.Fatalf("CreateSoftLink failed: %v", err)
	}
	if err := a.CreateSoftLink("up", "/a"); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate CreateSoftLink = %v, want ErrExists", err)
	}
	if err := a.CreateSoftLink("rel", "x"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("relative CreateSoftLink = %v, want ErrInvalidPath", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r := reopen(t, path, ReadOnly)
	ds, err := r.OpenDataset("/alias")
	if err != nil {
		t.Fatalf("OpenDataset through soft link failed: %v", err)
	}
	if got, err := ds.ReadInt64(); err != nil || !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Errorf("ReadInt64 = %v, %v", got, err)
	}
	up, err := r.OpenGroup("/a/up")
	if err != nil {
		t.Fatalf("OpenGroup(/a/up) failed: %v", err)
	}
	if up != r.Root() {
		t.Errorf("/a/up resolved to %q, want the root group", up.Path())
	}
}
