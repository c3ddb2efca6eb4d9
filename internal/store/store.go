package store

import (
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ontostore/internal/identity"
	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/metrics"
	"github.com/roach88/ontostore/internal/notify"
	"github.com/roach88/ontostore/internal/schema"
	"github.com/roach88/ontostore/internal/txn"
)

// Store is the record store shared by every domain type in a process.
//
// The process entry point constructs one Store and passes it to domain
// constructors. There is no global instance.
type Store struct {
	reg      *schema.Registry
	tables   map[string]*table
	order    []*table // tables sorted by name
	alloc    *identity.Allocator
	notifier *notify.Notifier
	coord    *txn.Coordinator
	metrics  *metrics.Collector
	logger   zerolog.Logger

	records map[ir.ID]struct{}
	removed map[ir.ID]struct{} // ids torn down by RemoveRecord
	names   map[string]ir.ID
	nameOf  map[ir.ID]string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to zerolog.Nop().
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithAllocator sets the id allocator. Use identity.NewAllocatorAt to
// resume numbering after ids issued by an earlier session.
func WithAllocator(alloc *identity.Allocator) Option {
	return func(s *Store) {
		s.alloc = alloc
	}
}

// WithNotifier sets the notifier observers subscribe to.
func WithNotifier(n *notify.Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Store) {
		s.metrics = c
	}
}

// New builds a store over every table in reg.
//
// New freezes reg: all tables must be registered before the first record
// exists. Column storage is allocated here, once per column, according to
// its cardinality.
func New(reg *schema.Registry, opts ...Option) *Store {
	s := &Store{
		reg:     reg,
		tables:  make(map[string]*table),
		logger:  zerolog.Nop(),
		records: make(map[ir.ID]struct{}),
		removed: make(map[ir.ID]struct{}),
		names:   make(map[string]ir.ID),
		nameOf:  make(map[ir.ID]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.alloc == nil {
		s.alloc = identity.NewAllocator()
	}
	if s.notifier == nil {
		s.notifier = notify.New(notify.WithLogger(s.logger))
	}
	s.coord = txn.New(s.notifier, txn.WithLogger(s.logger))

	reg.Freeze()
	for _, def := range reg.Tables() {
		t := newTable(def)
		s.tables[def.Name] = t
		s.order = append(s.order, t)
	}

	s.logger.Debug().
		Int("tables", len(s.order)).
		Str("schema", reg.Fingerprint()).
		Msg("store ready")
	return s
}

// Registry returns the frozen schema registry.
func (s *Store) Registry() *schema.Registry {
	return s.reg
}

// Notifier returns the notifier observers subscribe to.
func (s *Store) Notifier() *notify.Notifier {
	return s.notifier
}

// Coordinator returns the scope coordinator that batches notifications.
func (s *Store) Coordinator() *txn.Coordinator {
	return s.coord
}

// Create allocates a fresh id and registers the record's existence.
// No column is written and no change is queued; the domain layer writes
// its defaults with Update.
func (s *Store) Create() ir.ID {
	id := s.alloc.Next()
	s.records[id] = struct{}{}
	s.recordOp("create", "", Success)
	s.logger.Debug().Uint32("id", uint32(id)).Msg("record created")
	return id
}

// CreateNamed is Create with a secondary lookup name.
//
// Names are NFC-normalized and unique among live records. Returns
// (NoID, AlreadyExists) if another record holds the name and (NoID, Failed)
// for an empty name.
func (s *Store) CreateNamed(name string) (ir.ID, Result) {
	name = norm.NFC.String(name)
	if name == "" {
		s.recordOp("create", "", Failed)
		return ir.NoID, Failed
	}
	if _, taken := s.names[name]; taken {
		s.recordOp("create", "", AlreadyExists)
		return ir.NoID, AlreadyExists
	}

	id := s.Create()
	s.names[name] = id
	s.nameOf[id] = name
	return id, Success
}

// Load registers the existence of an externally supplied id, for records
// restored by a persistence collaborator. No defaults are written.
//
// The allocator skips past id so fresh ids never collide with it. Returns
// AlreadyExists if id is live, and Failed for ir.NoID or an id this store
// already removed.
func (s *Store) Load(id ir.ID) Result {
	var res Result
	_, dead := s.removed[id]
	switch {
	case !id.Valid() || dead:
		res = Failed
	case s.Exists(id):
		res = AlreadyExists
	default:
		s.records[id] = struct{}{}
		s.alloc.Observe(id)
		res = Success
	}
	s.recordOp("load", "", res)
	return res
}

// Exists reports whether id is a live record.
func (s *Store) Exists(id ir.ID) bool {
	_, ok := s.records[id]
	return ok
}

// ByName returns the live record holding name.
func (s *Store) ByName(name string) (ir.ID, bool) {
	id, ok := s.names[norm.NFC.String(name)]
	return id, ok
}

// NameOf returns the name of id, if it has one.
func (s *Store) NameOf(id ir.ID) (string, bool) {
	name, ok := s.nameOf[id]
	return name, ok
}

// Len returns the number of live records.
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns every live record id, ascending.
func (s *Store) Records() []ir.ID {
	return sortedKeys(s.records)
}

func (s *Store) recordOp(op, table string, res Result) {
	if s.metrics == nil {
		return
	}
	s.metrics.Operation(op, table, res.String())
	s.metrics.SetRecords(len(s.records))
}

// violate logs a schema contract violation and panics with it.
func (s *Store) violate(err *schema.Error) {
	s.logger.Error().
		Str("code", string(err.Code)).
		Str("table", err.Table).
		Str("column", err.Column).
		Msg(err.Message)
	if s.metrics != nil {
		s.metrics.SchemaViolation(string(err.Code))
	}
	panic(err)
}

// resolve returns the storage for (table, column) or panics.
func (s *Store) resolve(tableName, columnName string) *column {
	t, ok := s.tables[tableName]
	if !ok {
		s.violate(schema.NewUnknownTable(tableName))
	}
	col, ok := t.byName[columnName]
	if !ok {
		s.violate(schema.NewUnknownColumn(tableName, columnName))
	}
	return col
}

// resolveTable returns the storage for a whole table or panics.
func (s *Store) resolveTable(tableName string) *table {
	t, ok := s.tables[tableName]
	if !ok {
		s.violate(schema.NewUnknownTable(tableName))
	}
	return t
}

func (s *Store) requireScalar(col *column, op string) *scalarCells {
	if !col.def.Cardinality.Scalar() {
		s.violate(schema.NewCardinalityMismatch(col.def, op))
	}
	return col.scalar()
}

func (s *Store) requireRelation(col *column, op string) *relationCells {
	if col.def.Cardinality != schema.Intermediate {
		s.violate(schema.NewCardinalityMismatch(col.def, op))
	}
	return col.relation()
}

// checkType panics if v is a non-null value of the wrong type.
// Null is accepted here; callers decide whether Null is permitted.
func (s *Store) checkType(col *column, v ir.Value) {
	if ir.IsNull(v) {
		return
	}
	if !col.def.Type.Accepts(v) {
		s.violate(schema.NewTypeMismatch(col.def, string(v.Type())))
	}
}
