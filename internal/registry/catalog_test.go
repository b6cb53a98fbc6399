package registry

import "testing"

func TestCatalog_KeysUnique(t *testing.T) {
	seen := make(map[string]bool, len(Catalog))
	for _, d := range Catalog {
		if seen[d.Key] {
			t.Fatalf("duplicate key %q", d.Key)
		}
		seen[d.Key] = true
	}
}

func TestCatalog_CountMatchesEncoding(t *testing.T) {
	for _, d := range Catalog {
		switch d.Enc {
		case Uint16:
			if d.Count != 1 {
				t.Errorf("%s: uint16 register declares %d words", d.Key, d.Count)
			}
		case Uint32:
			if d.Count != 2 {
				t.Errorf("%s: uint32 register declares %d words", d.Key, d.Count)
			}
		case Text:
			if d.Count == 0 {
				t.Errorf("%s: text register declares zero words", d.Key)
			}
		default:
			t.Errorf("%s: unknown encoding %q", d.Key, d.Enc)
		}
		if d.Words() != d.Count {
			t.Errorf("%s: Words()=%d, Count=%d", d.Key, d.Words(), d.Count)
		}
	}
}

func TestCatalog_WriteOnlyImpliesWritable(t *testing.T) {
	for _, d := range Catalog {
		if d.WriteOnly && !d.Writable {
			t.Errorf("%s: write-only register must be writable", d.Key)
		}
	}
}

func TestCatalog_NoOverlapWithinSpace(t *testing.T) {
	type span struct {
		key        string
		start, end uint16 // end exclusive
	}
	bySpace := map[Space][]span{}
	for _, d := range Catalog {
		bySpace[d.Space] = append(bySpace[d.Space], span{d.Key, d.Address, d.Address + d.Words()})
	}
	for space, spans := range bySpace {
		for i, a := range spans {
			for _, b := range spans[i+1:] {
				if a.start < b.end && b.start < a.end {
					t.Errorf("%s: %s and %s overlap", space, a.key, b.key)
				}
			}
		}
	}
}

func TestGet(t *testing.T) {
	d, ok := Get(KeySendKeepalive)
	if !ok {
		t.Fatalf("life bit register missing from catalog")
	}
	if d.Address != 6000 || d.Space != Holding || !d.WriteOnly {
		t.Fatalf("unexpected life bit definition: %+v", d)
	}

	if _, ok := Get("bogus"); ok {
		t.Fatalf("Get must miss on unknown keys")
	}
}

func TestReadable_ExcludesWriteOnly(t *testing.T) {
	for _, d := range Readable() {
		if d.WriteOnly {
			t.Fatalf("%s: write-only register in readable set", d.Key)
		}
	}
	if len(Readable()) >= len(Catalog) {
		t.Fatalf("readable set should be smaller than the catalog")
	}
}
