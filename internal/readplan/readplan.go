// Package readplan groups register definitions into minimal batched
// Modbus read requests.
package readplan

import (
	"sort"

	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/registry"
)

// Request is one batched wire read covering an ordered run of
// definitions from a single register space.
type Request struct {
	Start     uint16
	Count     uint16
	Space     registry.Space
	Registers []registry.Definition
}

// Optional reports whether every register in the request is optional.
// Only fully-optional requests may be demoted after a device rejection.
func (r Request) Optional() bool {
	for _, d := range r.Registers {
		if !d.Optional {
			return false
		}
	}
	return len(r.Registers) > 0
}

// Build produces the read plan for defs: a single greedy sweep per
// register space. Two definitions share a request iff their address
// spans are contiguous or overlapping after sorting by address and the
// merged span stays within maxWords. Spaces never merge. The result is
// ordered by space, then ascending start address.
func Build(defs []registry.Definition, maxWords uint16) []Request {
	bySpace := map[registry.Space][]registry.Definition{}
	for _, d := range defs {
		bySpace[d.Space] = append(bySpace[d.Space], d)
	}

	var plan []Request
	for _, space := range []registry.Space{registry.Input, registry.Holding} {
		items := bySpace[space]
		if len(items) == 0 {
			continue
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Address < items[j].Address })

		var (
			run   []registry.Definition
			start uint16
			end   uint16 // one past the last covered word
		)
		flush := func() {
			if len(run) == 0 {
				return
			}
			plan = append(plan, Request{
				Start:     start,
				Count:     end - start,
				Space:     space,
				Registers: run,
			})
		}

		for _, d := range items {
			dStart := d.Address
			dEnd := d.Address + d.Words()

			if len(run) == 0 || dStart > end || dEnd-start > maxWords {
				flush()
				run = []registry.Definition{d}
				start = dStart
				end = dEnd
				continue
			}
			run = append(run, d)
			if dEnd > end {
				end = dEnd
			}
		}
		flush()
	}

	return plan
}
