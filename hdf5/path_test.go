package hdf5

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseAttrPath(t *testing.T) {
	tests := []struct {
		in, obj, name string
		bad           bool
	}{
		{in: "/@root", obj: "/", name: "root"},
		{in: "@root", obj: "/", name: "root"},
		{in: "/data@units", obj: "/data", name: "units"},
		{in: "a/b/@x", obj: "/a/b", name: "x"},
		{in: "/a@b@c", obj: "/a@b", name: "c"},
		{in: "/data", bad: true},
		{in: "/data@", bad: true},
	}
	for _, tc := range tests {
		obj, name, err := ParseAttrPath(tc.in)
		if tc.bad {
			if !errors.Is(err, ErrInvalidPath) {
				t.Errorf("ParseAttrPath(%q) error = %v, want ErrInvalidPath", tc.in, err)
			}
			continue
		}
		if err != nil || obj != tc.obj || name != tc.name {
			t.Errorf("ParseAttrPath(%q) = %q, %q, %v; want %q, %q", tc.in, obj, name, err, tc.obj, tc.name)
		}
		back := JoinAttrPath(obj, name)
		if o2, n2, _ := ParseAttrPath(back); o2 != obj || n2 != name {
			t.Errorf("JoinAttrPath(%q, %q) = %q does not parse back", obj, name, back)
		}
	}
	if got := JoinAttrPath("/", "x"); got != "/@x" {
		t.Errorf("JoinAttrPath(/, x) = %q", got)
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	tests := []struct {
		in    string
		parts []string
		clean string
	}{
		{"/", []string{}, "/"},
		{"", []string{}, "/"},
		{"a", []string{"a"}, "/a"},
		{"/a//b/", []string{"a", "b"}, "/a/b"},
	}
	for _, tc := range tests {
		if got := SplitPath(tc.in); !reflect.DeepEqual(got, tc.parts) {
			t.Errorf("SplitPath(%q) = %q, want %q", tc.in, got, tc.parts)
		}
		if got := CleanPath(tc.in); got != tc.clean {
			t.Errorf("CleanPath(%q) = %q, want %q", tc.in, got, tc.clean)
		}
	}
}

func TestCheckName(t *testing.T) {
	for _, name := range []string{"", ".", "a/b", string(make([]byte, 70000))} {
		if err := checkName(name); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("checkName(%.10q) = %v, want ErrInvalidPath", name, err)
		}
	}
	for _, name := range []string{"a", "list_idx_0", "0", "with space", "@"} {
		if err := checkName(name); err != nil {
			t.Errorf("checkName(%q) = %v", name, err)
		}
	}
}
