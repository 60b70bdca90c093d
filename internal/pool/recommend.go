package pool

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nerrad567/riglab-core/internal/device"
)

// taskKeywords maps task-description vocabulary onto the capabilities a
// device needs to be useful for the task.
var taskKeywords = []struct {
	keyword string
	caps    []device.Capability
}{
	{"glitch", []device.Capability{device.CapFaultInject}},
	{"fault", []device.Capability{device.CapFaultInject}},
	{"inject", []device.Capability{device.CapFaultInject}},
	{"spi", []device.Capability{device.CapSPI}},
	{"flash", []device.Capability{device.CapSPI}},
	{"dump", []device.Capability{device.CapSPI}},
	{"i2c", []device.Capability{device.CapI2C}},
	{"eeprom", []device.Capability{device.CapI2C}},
	{"uart", []device.Capability{device.CapUART}},
	{"serial", []device.Capability{device.CapUART}},
	{"console", []device.Capability{device.CapUART}},
	{"monitor", []device.Capability{device.CapUART}},
	{"jtag", []device.Capability{device.CapJTAG}},
	{"swd", []device.Capability{device.CapSWD}},
	{"debug", []device.Capability{device.CapSWD, device.CapJTAG}},
}

// Candidate is one recommendation produced by RecommendForTask.
type Candidate struct {
	ID         string
	Descriptor device.Descriptor

	// Coverage counts how many of the task's wanted capabilities the
	// device declares. Candidates are ordered by coverage first.
	Coverage int
}

// capabilitiesForTask extracts the set of capabilities a free-text task
// description implies. Unknown vocabulary contributes nothing.
func capabilitiesForTask(task string) []device.Capability {
	lower := strings.ToLower(task)
	seen := make(map[device.Capability]bool)
	var wanted []device.Capability
	for _, kw := range taskKeywords {
		if !strings.Contains(lower, kw.keyword) {
			continue
		}
		for _, c := range kw.caps {
			if !seen[c] {
				seen[c] = true
				wanted = append(wanted, c)
			}
		}
	}
	return wanted
}

// RecommendForTask ranks non-stale devices against a free-text task
// description. Candidates are ordered by capability coverage, then
// throughput class, then the order the devices were first detected.
// An empty result means no device matched any implied capability.
func (p *Pool) RecommendForTask(task string) []Candidate {
	wanted := capabilitiesForTask(task)
	if len(wanted) == 0 {
		return nil
	}

	p.mu.RLock()
	order := append([]string(nil), p.order...)
	entries := make(map[string]*Entry, len(p.entries))
	for id, e := range p.entries {
		entries[id] = e
	}
	p.mu.RUnlock()

	type ranked struct {
		cand Candidate
		rank int
		pos  int
	}
	var out []ranked
	for pos, id := range order {
		entry := entries[id]
		if entry.isStale() {
			continue
		}
		desc := entry.Descriptor()
		coverage := 0
		for _, c := range wanted {
			if desc.HasCapability(c) {
				coverage++
			}
		}
		if coverage == 0 {
			continue
		}
		out = append(out, ranked{
			cand: Candidate{ID: id, Descriptor: desc, Coverage: coverage},
			rank: desc.Throughput.Rank(),
			pos:  pos,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].cand.Coverage != out[j].cand.Coverage {
			return out[i].cand.Coverage > out[j].cand.Coverage
		}
		if out[i].rank != out[j].rank {
			return out[i].rank < out[j].rank
		}
		return out[i].pos < out[j].pos
	})

	cands := make([]Candidate, len(out))
	for i, r := range out {
		cands[i] = r.cand
	}
	return cands
}

// AutoSelect returns the single best device id for a task description.
func (p *Pool) AutoSelect(task string) (string, error) {
	cands := p.RecommendForTask(task)
	if len(cands) == 0 {
		return "", fmt.Errorf("%w for task %q", ErrNoSuitableDevice, task)
	}
	return cands[0].ID, nil
}
