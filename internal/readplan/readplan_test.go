package readplan

import (
	"testing"

	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/registry"
)

func def(key string, addr, count uint16, space registry.Space) registry.Definition {
	enc := registry.Uint16
	if count == 2 {
		enc = registry.Uint32
	}
	if count > 2 {
		enc = registry.Text
	}
	return registry.Definition{Key: key, Address: addr, Count: count, Space: space, Enc: enc, Scale: 1}
}

func TestBuild_MergesContiguousRegisters(t *testing.T) {
	plan := Build([]registry.Definition{
		def("a", 1000, 1, registry.Input),
		def("b", 1001, 1, registry.Input),
		def("c", 1002, 2, registry.Input),
	}, 110)

	if len(plan) != 1 {
		t.Fatalf("expected 1 request, got %d", len(plan))
	}
	req := plan[0]
	if req.Start != 1000 || req.Count != 4 {
		t.Fatalf("expected span 1000+4, got %d+%d", req.Start, req.Count)
	}
	if len(req.Registers) != 3 {
		t.Fatalf("expected 3 registers in request, got %d", len(req.Registers))
	}
}

func TestBuild_SplitsOnGap(t *testing.T) {
	plan := Build([]registry.Definition{
		def("a", 1000, 1, registry.Input),
		def("b", 1002, 1, registry.Input),
	}, 110)

	if len(plan) != 2 {
		t.Fatalf("expected 2 requests across the gap, got %d", len(plan))
	}
}

func TestBuild_NeverMergesSpaces(t *testing.T) {
	plan := Build([]registry.Definition{
		def("a", 1000, 1, registry.Input),
		def("b", 1001, 1, registry.Holding),
	}, 110)

	if len(plan) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(plan))
	}
	for _, req := range plan {
		for _, d := range req.Registers {
			if d.Space != req.Space {
				t.Fatalf("register %s in %s request", d.Key, req.Space)
			}
		}
	}
}

func TestBuild_RespectsMaxWords(t *testing.T) {
	defs := []registry.Definition{
		def("a", 0, 3, registry.Input),
		def("b", 3, 3, registry.Input),
		def("c", 6, 3, registry.Input),
	}
	plan := Build(defs, 6)

	if len(plan) != 2 {
		t.Fatalf("expected split at 6 words, got %d requests", len(plan))
	}
	for _, req := range plan {
		if req.Count > 6 {
			t.Fatalf("request span %d exceeds max", req.Count)
		}
	}
}

func TestBuild_UnsortedInput(t *testing.T) {
	plan := Build([]registry.Definition{
		def("b", 1001, 1, registry.Input),
		def("a", 1000, 1, registry.Input),
	}, 110)

	if len(plan) != 1 {
		t.Fatalf("expected addresses to be sorted before merging, got %d requests", len(plan))
	}
	if plan[0].Registers[0].Key != "a" {
		t.Fatalf("expected ascending register order, got %s first", plan[0].Registers[0].Key)
	}
}

// TestBuild_CatalogProperties checks the invariants that must hold for
// the real register map.
func TestBuild_CatalogProperties(t *testing.T) {
	plan := Build(registry.Readable(), registry.MaxWordsPerRequest)

	seen := map[string]int{}
	for _, req := range plan {
		if req.Count == 0 || req.Count > registry.MaxWordsPerRequest {
			t.Fatalf("request %s@%d has span %d", req.Space, req.Start, req.Count)
		}
		for _, d := range req.Registers {
			seen[d.Key]++
			if d.Space != req.Space {
				t.Fatalf("register %s crossed into %s request", d.Key, req.Space)
			}
			if d.Address < req.Start || d.Address+d.Words() > req.Start+req.Count {
				t.Fatalf("register %s outside request span", d.Key)
			}
		}
	}

	for _, d := range registry.Readable() {
		if seen[d.Key] != 1 {
			t.Fatalf("register %s appears %d times in plan", d.Key, seen[d.Key])
		}
	}
}

func TestBuild_OptionalRequest(t *testing.T) {
	opt := def("serial", 100, 4, registry.Input)
	opt.Optional = true
	required := def("state", 1000, 1, registry.Input)

	plan := Build([]registry.Definition{opt, required}, 110)
	if len(plan) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(plan))
	}
	if !plan[0].Optional() {
		t.Fatalf("identity request should be optional")
	}
	if plan[1].Optional() {
		t.Fatalf("telemetry request must not be optional")
	}
}
