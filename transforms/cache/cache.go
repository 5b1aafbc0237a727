// Package cache memoizes calls that take a WrappedFn as first argument.
//
// The underlying transformations, static params, and input signature of the
// WrappedFn form the cache key together with the extra call arguments, a
// runtime-flags key, and the execution-context epoch. Tables live per base
// computation and are held weakly: once nothing else references a *Fn, its
// table is dropped by the runtime, so caching never keeps a computation
// alive.
//
// A hit replays the recorded auxiliary values into the current stack's
// slots, so aux thunks see a value even though the transformation bodies did
// not run this time.
//
// The hit/populate/miss sequence is not atomic: concurrent callers may both
// miss and compute. Callers needing strict call-once semantics serialize
// externally.
package cache

import (
	"runtime"
	"sync"
	"time"
	"weak"

	"github.com/rickb777/date/v2/timespan"

	"github.com/on-the-ground/transform_ive_go/transforms"
	"github.com/on-the-ground/transform_ive_go/transforms/epoch"
	"github.com/on-the-ground/transform_ive_go/transforms/internal/memotable"
	"github.com/on-the-ground/transform_ive_go/transforms/slot"
)

// CallFn performs the actual invocation of a wrapped computation, typically
// by calling fun.CallWrapped on arguments derived from extra.
type CallFn func(fun transforms.WrappedFn, extra ...any) (any, error)

// HitInfo describes a served cache hit.
type HitInfo struct {
	Fn         string
	Digest     uint64
	ComputedIn timespan.TimeSpan // when the original computation ran
}

// MissInfo describes a cache miss about to be computed.
type MissInfo struct {
	Fn     string
	Digest uint64
}

// Observer receives hit/miss hooks; see the log subpackage for a zap-backed
// implementation.
type Observer interface {
	CacheHit(info HitInfo)
	CacheMiss(info MissInfo)
}

type nopObserver struct{}

func (nopObserver) CacheHit(HitInfo)   {}
func (nopObserver) CacheMiss(MissInfo) {}

// Option configures a Memoized.
type Option func(*Memoized)

// WithEpochSource supplies the execution-context epoch folded into every
// key. Defaults to a fixed zero epoch; wrap epoch.Current to track the
// process-wide one.
func WithEpochSource(src func() any) Option {
	return func(m *Memoized) { m.epochFn = src }
}

// WithFlagsKey supplies a comparable rendering of whatever runtime-mode
// flags should partition the cache. Defaults to none.
func WithFlagsKey(src func() any) Option {
	return func(m *Memoized) { m.flagsFn = src }
}

// WithMaxTableSize bounds each per-computation table before it rotates
// generations. Values below 1 fall back to the default.
func WithMaxTableSize(n uint32) Option {
	return func(m *Memoized) {
		if n > 0 {
			m.maxSize = n
		}
	}
}

// WithObserver attaches hit/miss hooks.
func WithObserver(obs Observer) Option {
	return func(m *Memoized) {
		if obs != nil {
			m.obs = obs
		}
	}
}

const defaultMaxTableSize = 1 << 20

type record struct {
	result any
	slots  []slot.Slot
	span   timespan.TimeSpan
}

// Memoized is the caching wrapper produced by Memoize.
type Memoized struct {
	call    CallFn
	tables  sync.Map // weak.Pointer[transforms.Fn] -> *memotable.Table[record]
	epochFn func() any
	flagsFn func() any
	maxSize uint32
	obs     Observer
}

// Memoize wraps call into a memoized variant keyed by the WrappedFn's
// identity and the extra arguments.
func Memoize(call CallFn, opts ...Option) *Memoized {
	m := &Memoized{
		call:    call,
		epochFn: func() any { return epoch.Zero() },
		flagsFn: func() any { return nil },
		maxSize: defaultMaxTableSize,
		obs:     nopObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	register(m)
	return m
}

// Call serves fun(extra...) from the cache, invoking the underlying CallFn
// only on a miss. Errors from the underlying call are returned as-is and
// never cached.
func (m *Memoized) Call(fun transforms.WrappedFn, extra ...any) (any, error) {
	tab := m.tableFor(fun.Fn())
	key := keyPath(fun, extra, m.flagsFn(), m.epochFn())

	if rec, ok := tab.Load(key); ok {
		if err := fun.PopulateSlots(rec.slots); err != nil {
			return nil, err
		}
		m.obs.CacheHit(HitInfo{Fn: fun.Fn().Name(), Digest: fun.Digest(), ComputedIn: rec.span})
		return rec.result, nil
	}

	m.obs.CacheMiss(MissInfo{Fn: fun.Fn().Name(), Digest: fun.Digest()})
	began := time.Now()
	result, err := m.call(fun, extra...)
	if err != nil {
		return nil, err
	}
	tab.Store(key, record{
		result: result,
		slots:  fun.Slots(),
		span:   timespan.BetweenTimes(began, time.Now()),
	})
	return result, nil
}

// tableFor returns the per-computation table, creating it lazily. The table
// is keyed by a weak pointer and unregistered by a runtime cleanup once the
// *Fn is collected.
func (m *Memoized) tableFor(fn *transforms.Fn) *memotable.Table[record] {
	wp := weak.Make(fn)
	if tab, ok := m.tables.Load(wp); ok {
		return tab.(*memotable.Table[record])
	}
	fresh := memotable.New[record](m.maxSize)
	actual, loaded := m.tables.LoadOrStore(wp, fresh)
	if !loaded {
		runtime.AddCleanup(fn, func(p weak.Pointer[transforms.Fn]) {
			m.tables.Delete(p)
		}, wp)
	}
	return actual.(*memotable.Table[record])
}

// Evict drops just this computation's table.
func (m *Memoized) Evict(fn *transforms.Fn) {
	m.tables.Delete(weak.Make(fn))
}

// Clear drops every table of this memoized function.
func (m *Memoized) Clear() {
	m.tables.Clear()
}

// TableCount reports how many per-computation tables are live.
func (m *Memoized) TableCount() int {
	n := 0
	m.tables.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// memoizers is the weakly-held registry behind ClearAllCaches. Registering
// must not keep a dead Memoized alive, so keys are weak pointers pruned by
// runtime cleanups.
var memoizers sync.Map // weak.Pointer[Memoized] -> struct{}

func register(m *Memoized) {
	wp := weak.Make(m)
	memoizers.Store(wp, struct{}{})
	runtime.AddCleanup(m, func(p weak.Pointer[Memoized]) {
		memoizers.Delete(p)
	}, wp)
}

// ClearAllCaches empties every table of every live memoized function.
func ClearAllCaches() {
	memoizers.Range(func(k, _ any) bool {
		if m := k.(weak.Pointer[Memoized]).Value(); m != nil {
			m.Clear()
		}
		return true
	})
}
