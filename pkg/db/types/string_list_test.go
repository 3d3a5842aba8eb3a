package dbtypes

import "testing"

func TestStringListScan(t *testing.T) {
	var l StringList
	if err := l.Scan([]byte(`["Main St","Airport"]`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(l) != 2 || l[1] != "Airport" {
		t.Fatalf("unexpected list %v", l)
	}

	if err := l.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if l == nil || len(l) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", l)
	}

	if err := l.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestStringListValueNil(t *testing.T) {
	var l StringList
	v, err := l.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != "[]" {
		t.Fatalf("expected [] got %v", v)
	}
}
