// Package stats tracks the VM subsystem's running counters (testable
// properties P6/P7: frames in use vs. pool capacity, swap slots used
// vs. swap size) and exports them as a pprof profile for external
// tooling. Counter_t/Stats2String are adapted from the teacher's
// stats.Counter_t atomic-counter idiom and its reflect-based struct
// printer, generalized from the teacher's build-time Stats flag to
// counters that are cheap enough to run unconditionally.
package stats

import (
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/pprof/profile"
)

// Counter_t is an atomically incremented statistical counter.
type Counter_t int64

// Inc increments the counter by one.
func (c *Counter_t) Inc() { atomic.AddInt64((*int64)(c), 1) }

// Add increments the counter by n.
func (c *Counter_t) Add(n int64) { atomic.AddInt64((*int64)(c), n) }

// Get reads the counter's current value.
func (c *Counter_t) Get() int64 { return atomic.LoadInt64((*int64)(c)) }

// VM collects the counters exercised across a space's lifetime.
type VM struct {
	PageFaults   Counter_t
	StackGrowths Counter_t
	Evictions    Counter_t
	SwapIns      Counter_t
	SwapOuts     Counter_t
	MmapCalls    Counter_t
	MunmapCalls  Counter_t
}

// Stats2String renders every Counter_t field of st as a line of text,
// via reflection, so new counters don't need a new printer.
func Stats2String(st interface{}) string {
	v := reflect.ValueOf(st)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	s := ""
	for i := 0; i < v.NumField(); i++ {
		t := v.Field(i).Type().String()
		if !strings.HasSuffix(t, "Counter_t") {
			continue
		}
		n := v.Field(i).Interface().(Counter_t)
		s += "\n\t#" + v.Type().Field(i).Name + ": " + strconv.FormatInt(int64(n), 10)
	}
	return s + "\n"
}

// Gauge reports a point-in-time resource level alongside its capacity
// (frames in use / pool size, slots used / swap size).
type Gauge struct {
	Name     string
	InUse    int64
	Capacity int64
}

// Profile packages the VM counters and gauges as a pprof profile.Profile,
// one sample per counter/gauge, so they can be written out with the
// same tooling used for CPU/heap profiles (spec.md's P6/P7 are exactly
// the two gauges this subsystem needs; counters round out the export
// with the operations that move gauges).
func Profile(v *VM, gauges []Gauge) *profile.Profile {
	valueType := &profile.ValueType{Type: "count", Unit: "count"}
	p := &profile.Profile{
		SampleType: []*profile.ValueType{valueType},
		PeriodType: valueType,
		Period:     1,
	}

	addSample := func(name string, value int64) {
		loc := &profile.Location{ID: uint64(len(p.Location)) + 1}
		fn := &profile.Function{ID: loc.ID, Name: name}
		loc.Line = []profile.Line{{Function: fn}}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{value},
			Label:    map[string][]string{"kind": {name}},
		})
	}

	addSample("page_faults", v.PageFaults.Get())
	addSample("stack_growths", v.StackGrowths.Get())
	addSample("evictions", v.Evictions.Get())
	addSample("swap_ins", v.SwapIns.Get())
	addSample("swap_outs", v.SwapOuts.Get())
	addSample("mmap_calls", v.MmapCalls.Get())
	addSample("munmap_calls", v.MunmapCalls.Get())
	for _, g := range gauges {
		addSample(g.Name+"_in_use", g.InUse)
		addSample(g.Name+"_capacity", g.Capacity)
	}
	return p
}
