package hdf5

import (
	"errors"
	"reflect"
	"testing"
)

func buildWalkTree(t *testing.T) *File {
	t.Helper()
	f, _ := newFile(t)
	a, _ := f.Root().CreateGroup("a")
	a.CreateDataset("x", []int{1}, WithAttribute("u", "m"))
	b, _ := a.CreateGroup("b")
	b.SetAttr("depth", 2)
	f.Root().CreateDataset("top", 1.0)
	f.Root().SetAttr("title", "t")
	return f
}

func TestWalkOrder(t *testing.T) {
	f := buildWalkTree(t)
	var paths []string
	err := Walk(f.Root(), func(p string, obj Object, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	want := []string{"/", "/a", "/a/b", "/a/x", "/top"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestWalkSkipAndStop(t *testing.T) {
	f := buildWalkTree(t)
	var paths []string
	Walk(f.Root(), func(p string, obj Object, err error) error {
		paths = append(paths, p)
		if p == "/a" {
			return SkipGroup
		}
		return nil
	})
	if want := []string{"/", "/a", "/top"}; !reflect.DeepEqual(paths, want) {
		t.Errorf("with SkipGroup: %v, want %v", paths, want)
	}

	paths = nil
	err := Walk(f.Root(), func(p string, obj Object, err error) error {
		paths = append(paths, p)
		if p == "/a/b" {
			return StopWalk
		}
		return nil
	})
	if err != nil {
		t.Errorf("StopWalk surfaced as %v", err)
	}
	if want := []string{"/", "/a", "/a/b"}; !reflect.DeepEqual(paths, want) {
		t.Errorf("with StopWalk: %v, want %v", paths, want)
	}

	boom := errors.New("boom")
	if err := Walk(f.Root(), func(string, Object, error) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Walk error = %v, want boom", err)
	}
}

func TestWalkAttrs(t *testing.T) {
	f := buildWalkTree(t)
	got := map[string]any{}
	err := f.WalkAttrs(func(info AttrInfo) error {
		if info.Err != nil {
			t.Errorf("%s: %v", info.Path, info.Err)
		}
		got[info.Path] = info.Value
		return nil
	})
	if err != nil {
		t.Fatalf("WalkAttrs failed: %v", err)
	}
	want := map[string]any{"/@title": "t", "/a/b@depth": int64(2), "/a/x@u": "m"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WalkAttrs = %v, want %v", got, want)
	}
}
