package inputs

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gmaffy/minys-go/utils"
)

func writeFof(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reads.fof")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolve(t *testing.T) {
	fof := writeFof(t, "a_1.fq\ta_2.fq\nb.fq\n\nc_1.fq\tc_2.fq\n")

	tests := []struct {
		name string
		src  Source
		want []Entry
	}{
		{"single", Source{Single: "reads.fq"}, []Entry{{Read1: "reads.fq"}}},
		{"paired", Source{Forward: "r1.fq", Reverse: "r2.fq"}, []Entry{{Read1: "r1.fq", Read2: "r2.fq"}}},
		{"fof", Source{Fof: fof}, []Entry{
			{Read1: "a_1.fq", Read2: "a_2.fq"},
			{Read1: "b.fq"},
			{Read1: "c_1.fq", Read2: "c_2.fq"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.src, false)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	fof := writeFof(t, "a_1.fq\ta_2.fq\nb.fq\n")
	first, err := Resolve(Source{Fof: fof}, false)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Resolve(Source{Fof: fof}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-resolving differs: %+v vs %+v", first, second)
	}
}

func TestResolveContinuation(t *testing.T) {
	got, err := Resolve(Source{}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("continuation emitted %d entries", len(got))
	}

	if _, err := Resolve(Source{}, false); !errors.Is(err, utils.ErrConfiguration) {
		t.Errorf("empty source: got %v", err)
	}
	if _, err := Resolve(Source{Forward: "r1.fq"}, false); !errors.Is(err, utils.ErrConfiguration) {
		t.Errorf("half pair: got %v", err)
	}
}

func TestReadFofErrors(t *testing.T) {
	if _, err := ReadFof(writeFof(t, "a.fq\tb.fq\tc.fq\n")); !errors.Is(err, utils.ErrConfiguration) {
		t.Errorf("three columns: got %v", err)
	}
	if _, err := ReadFof(writeFof(t, "\n\n")); !errors.Is(err, utils.ErrConfiguration) {
		t.Errorf("empty fof: got %v", err)
	}
	if _, err := ReadFof(filepath.Join(t.TempDir(), "absent.fof")); !errors.Is(err, utils.ErrConfiguration) {
		t.Errorf("missing fof: got %v", err)
	}
}

func TestReadPaths(t *testing.T) {
	entries := []Entry{{Read1: "a_1.fq", Read2: "a_2.fq"}, {Read1: "b.fq"}}
	want := []string{"a_1.fq", "a_2.fq", "b.fq"}
	if got := ReadPaths(entries); !reflect.DeepEqual(got, want) {
		t.Errorf("ReadPaths = %v, want %v", got, want)
	}
	if Name(3) != "file3" {
		t.Errorf("Name(3) = %q", Name(3))
	}
}
