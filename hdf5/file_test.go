package hdf5

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCreateAndReopen(t *testing.T) {
	f, path := newFile(t)
	if f.Version() != 2 {
		t.Errorf("Version() = %d, want 2", f.Version())
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r := reopen(t, path, ReadOnly)
	names, err := r.Root().Members()
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("new file has members %v", names)
	}
	if r.Writable() {
		t.Error("read-only file reports writable")
	}
}

func TestOpenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.hdf5")
	if _, err := Open(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open missing = %v, want ErrNotExist", err)
	}
	if _, err := OpenFile(path, ReadWrite); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("OpenFile(ReadWrite) missing = %v, want ErrNotExist", err)
	}
}

func TestOpenNotHDF5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.hdf5")
	if err := os.WriteFile(path, []byte("definitely not a container file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("Open junk = %v, want ErrNotHDF5", err)
	}
}

func TestAppendCreatesThenKeeps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.hdf5")
	f, err := OpenFile(path, Append)
	if err != nil {
		t.Fatalf("OpenFile(Append) failed: %v", err)
	}
	if _, err := f.Root().CreateGroup("first"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err = OpenFile(path, Append)
	if err != nil {
		t.Fatalf("second OpenFile(Append) failed: %v", err)
	}
	if _, err := f.Root().CreateGroup("second"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r := reopen(t, path, ReadOnly)
	names, _ := r.Root().Members()
	if want := []string{"first", "second"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Members() = %v, want %v", names, want)
	}
}

func TestTruncateReplaces(t *testing.T) {
	f, path := newFile(t)
	f.Root().CreateGroup("old")
	f.Close()

	f2 := reopen(t, path, Truncate)
	if f2.Root().Len() != 0 {
		t.Errorf("truncated file still has %d members", f2.Root().Len())
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	f, path := newFile(t)
	f.Root().CreateGroup("g")
	f.Close()

	r := reopen(t, path, ReadOnly)
	if _, err := r.Root().CreateGroup("x"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("CreateGroup = %v, want ErrReadOnly", err)
	}
	if err := r.Root().SetAttr("a", 1); !errors.Is(err, ErrReadOnly) {
		t.Errorf("SetAttr = %v, want ErrReadOnly", err)
	}
	if err := r.Root().Delete("g"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Delete = %v, want ErrReadOnly", err)
	}
}

func TestClosedFile(t *testing.T) {
	f, _ := newFile(t)
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if _, err := f.OpenGroup("/"); !errors.Is(err, ErrClosed) {
		t.Errorf("OpenGroup after Close = %v, want ErrClosed", err)
	}
	if err := f.Flush(); !errors.Is(err, ErrClosed) {
		t.Errorf("Flush after Close = %v, want ErrClosed", err)
	}
}

func TestWriterLock(t *testing.T) {
	f, path := newFile(t)
	_ = f
	if _, err := OpenFile(path, Append); !errors.Is(err, ErrLocked) {
		t.Errorf("second writer = %v, want ErrLocked", err)
	}
	if _, err := Open(path); !errors.Is(err, ErrLocked) {
		t.Errorf("reader while writing = %v, want ErrLocked", err)
	}
	r, err := Open(path, WithLocking(false))
	if err != nil {
		t.Fatalf("unlocked Open failed: %v", err)
	}
	r.Close()
}

func TestUnchangedObjectsKeepAddresses(t *testing.T) {
	f, path := newFile(t)
	keep, _ := f.Root().CreateGroup("keep")
	keep.CreateDataset("x", []float64{1, 2, 3})
	touch, _ := f.Root().CreateGroup("touch")
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	before := reopen(t, path, ReadOnly)
	keepAddr := mustGroup(t, before, "/keep").Address()
	touchAddr := mustGroup(t, before, "/touch").Address()
	dataAddr := mustDataset(t, before, "/keep/x").Address()
	before.Close()

	f = reopen(t, path, Append)
	touch = mustGroup(t, f, "/touch")
	if err := touch.SetAttr("n", 1); err != nil {
		t.Fatalf("SetAttr failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	after := reopen(t, path, ReadOnly)
	if got := mustGroup(t, after, "/keep").Address(); got != keepAddr {
		t.Errorf("/keep moved from 0x%x to 0x%x", keepAddr, got)
	}
	if got := mustDataset(t, after, "/keep/x").Address(); got != dataAddr {
		t.Errorf("/keep/x moved from 0x%x to 0x%x", dataAddr, got)
	}
	if got := mustGroup(t, after, "/touch").Address(); got == touchAddr {
		t.Error("/touch was not rewritten")
	}
	if v, err := after.ReadAttr("/touch@n"); err != nil || v != int64(1) {
		t.Errorf("ReadAttr = %v, %v", v, err)
	}
}

func TestFlushIsIdempotent(t *testing.T) {
	f, path := newFile(t)
	f.Root().SetAttr("a", "x")
	if err := f.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	st, _ := os.Stat(path)
	if err := f.Flush(); err != nil {
		t.Fatalf("second Flush failed: %v", err)
	}
	st2, _ := os.Stat(path)
	if st.Size() != st2.Size() {
		t.Errorf("clean Flush grew the file from %d to %d bytes", st.Size(), st2.Size())
	}
}

func TestSpaceStats(t *testing.T) {
	f, _ := newFile(t)
	f.Root().CreateDataset("d", make([]int64, 100))
	if err := f.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := f.Root().Delete("d"); err != nil {
		t.Fatal(err)
	}
	st := f.SpaceStats()
	if st.Placements == 0 || st.Bytes < 800 {
		t.Errorf("SpaceStats = %+v", st)
	}
	if st.Abandoned != 800 {
		t.Errorf("Abandoned = %d, want 800", st.Abandoned)
	}
}

func TestVersion0Fixture(t *testing.T) {
	for _, userBlock := range []bool{false, true} {
		path := writeV0Fixture(t, userBlock)
		f := reopen(t, path, ReadOnly)
		if f.Version() != 0 {
			t.Errorf("Version() = %d, want 0", f.Version())
		}
		names, err := f.Root().Members()
		if err != nil {
			t.Fatalf("Members failed: %v", err)
		}
		if want := []string{"data", "link"}; !reflect.DeepEqual(names, want) {
			t.Errorf("Members() = %v, want %v", names, want)
		}
		for _, p := range []string{"/data", "/link"} {
			ds := mustDataset(t, f, p)
			got, err := ds.ReadInt64()
			if err != nil {
				t.Fatalf("%s: ReadInt64 failed: %v", p, err)
			}
			if want := []int64{1, 2, 3}; !reflect.DeepEqual(got, want) {
				t.Errorf("%s = %v, want %v", p, got, want)
			}
		}
		if v, err := f.ReadAttr("/data@units"); err != nil || v != "mV" {
			t.Errorf("ReadAttr(/data@units) = %v, %v", v, err)
		}
	}
}

func TestVersion0Append(t *testing.T) {
	for _, userBlock := range []bool{false, true} {
		path := writeV0Fixture(t, userBlock)
		f := reopen(t, path, Append)
		if err := f.Root().SetAttr("note", "upgraded"); err != nil {
			t.Fatalf("SetAttr failed: %v", err)
		}
		if _, err := f.Root().CreateGroup("more"); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		r := reopen(t, path, ReadOnly)
		if r.Version() != 2 {
			t.Errorf("Version() after append = %d, want 2", r.Version())
		}
		names, _ := r.Root().Members()
		if want := []string{"data", "link", "more"}; !reflect.DeepEqual(names, want) {
			t.Errorf("Members() = %v, want %v", names, want)
		}
		ds := mustDataset(t, r, "/link")
		if ds.Address() != v0DataAddr {
			t.Errorf("/data moved to 0x%x", ds.Address())
		}
		if v, err := r.ReadAttr("/@note"); err != nil || v != "upgraded" {
			t.Errorf("ReadAttr(/@note) = %v, %v", v, err)
		}
	}
}

func mustGroup(t *testing.T, f *File, p string) *Group {
	t.Helper()
	g, err := f.OpenGroup(p)
	if err != nil {
		t.Fatalf("OpenGroup(%s) failed: %v", p, err)
	}
	return g
}

func mustDataset(t *testing.T, f *File, p string) *Dataset {
	t.Helper()
	d, err := f.OpenDataset(p)
	if err != nil {
		t.Fatalf("OpenDataset(%s) failed: %v", p, err)
	}
	return d
}
