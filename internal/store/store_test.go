package store

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontostore/internal/identity"
	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/metrics"
	"github.com/roach88/ontostore/internal/notify"
	"github.com/roach88/ontostore/internal/schema"
)

func TestNewFreezesRegistry(t *testing.T) {
	reg := testRegistry(t)
	s := New(reg)

	assert.True(t, reg.Frozen())
	assert.Same(t, reg, s.Registry())

	err := reg.Register(schema.Table{
		Name:    "Late",
		Columns: []schema.Column{{Name: "V", Type: ir.TypeInt, Cardinality: schema.Unique}},
	})
	assert.True(t, schema.IsCode(err, schema.ErrCodeFrozen))
}

func TestCreateIDsStrictlyIncreaseAndNeverRepeat(t *testing.T) {
	s, rec := newTestStore(t)

	a := s.Create()
	require.Equal(t, Success, s.RemoveRecord(a))
	b := s.Create()
	c := s.Create()

	assert.NotEqual(t, a, b)
	assert.Less(t, uint32(a), uint32(b))
	assert.Less(t, uint32(b), uint32(c))
	assert.False(t, s.Exists(a))
	assert.True(t, s.Exists(b))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 0, rec.Len(), "creating and removing an empty record queues nothing")
}

func TestCreateNamed(t *testing.T) {
	s, _ := newTestStore(t)

	id, res := s.CreateNamed("alpha")
	require.Equal(t, Success, res)

	got, ok := s.ByName("alpha")
	require.True(t, ok)
	assert.Equal(t, id, got)

	name, ok := s.NameOf(id)
	require.True(t, ok)
	assert.Equal(t, "alpha", name)

	dup, res := s.CreateNamed("alpha")
	assert.Equal(t, AlreadyExists, res)
	assert.Equal(t, ir.NoID, dup)

	_, res = s.CreateNamed("")
	assert.Equal(t, Failed, res)
}

func TestCreateNamedNormalizesNames(t *testing.T) {
	s, _ := newTestStore(t)

	// "é" precomposed and as "e" + combining acute accent.
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	id, res := s.CreateNamed(decomposed)
	require.Equal(t, Success, res)

	got, ok := s.ByName(composed)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, res = s.CreateNamed(composed)
	assert.Equal(t, AlreadyExists, res)
}

func TestRemoveRecordReleasesName(t *testing.T) {
	s, _ := newTestStore(t)

	id, _ := s.CreateNamed("alpha")
	require.Equal(t, Success, s.RemoveRecord(id))

	_, ok := s.ByName("alpha")
	assert.False(t, ok)
	_, ok = s.NameOf(id)
	assert.False(t, ok)

	again, res := s.CreateNamed("alpha")
	require.Equal(t, Success, res)
	assert.NotEqual(t, id, again)
}

func TestLoad(t *testing.T) {
	s, _ := newTestStore(t)

	assert.Equal(t, Success, s.Load(100))
	assert.True(t, s.Exists(100))
	assert.Equal(t, AlreadyExists, s.Load(100))
	assert.Equal(t, Failed, s.Load(ir.NoID))

	next := s.Create()
	assert.Equal(t, ir.ID(101), next, "allocator skips past loaded ids")

	assert.Equal(t, Success, s.Load(50), "older ids may still be loaded")
	assert.Equal(t, ir.ID(102), s.Create())
}

func TestLoadRejectsRemovedID(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.Create()
	require.Equal(t, Success, s.RemoveRecord(id))

	assert.Equal(t, Failed, s.Load(id), "removed ids are never reissued")
	assert.False(t, s.Exists(id))
	assert.NotEqual(t, id, s.Create())
}

func TestWithAllocator(t *testing.T) {
	s := New(testRegistry(t), WithAllocator(identity.NewAllocatorAt(41)))
	assert.Equal(t, ir.ID(42), s.Create())
}

func TestRecords(t *testing.T) {
	s, _ := newTestStore(t)
	a := s.Create()
	b := s.Create()
	s.Load(10)

	assert.Equal(t, []ir.ID{a, b, 10}, s.Records())
}

func TestWithNotifier(t *testing.T) {
	n := notify.New()
	s := New(testRegistry(t), WithNotifier(n))
	assert.Same(t, n, s.Notifier())

	id := s.Create()
	calls := 0
	n.Subscribe(id, "Value", func(notify.Change) error {
		calls++
		return nil
	})

	s.Update(id, "Counter", "Value", ir.Int(1))
	assert.Equal(t, 1, calls)
}

func TestSchemaViolationIsLogged(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newTestStore(t, WithLogger(zerolog.New(&buf)))

	schemaPanic(t, func() { s.Select(1, "Nope", "Value") })

	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "UNKNOWN_TABLE")
}

func TestWithMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	s, _ := newTestStore(t, WithMetrics(m))

	id := s.Create()
	s.Insert(id, "Counter", "Items", ir.String("x"))
	s.Insert(id, "Counter", "Items", ir.String("x"))
	schemaPanic(t, func() { s.Insert(id, "Counter", "Value", ir.Int(1)) })

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("create", "", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("insert", "Counter", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("insert", "Counter", "already_exists")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SchemaViolations.WithLabelValues("CARDINALITY_MISMATCH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsLive))
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "already_exists", AlreadyExists.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Result(0).String())
	assert.True(t, Success.OK())
	assert.False(t, AlreadyExists.OK())
}
