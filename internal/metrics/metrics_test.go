package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontostore/internal/notify"
)

func TestNew(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	require.NotNil(t, m)
	assert.NotNil(t, m.OperationsTotal)
	assert.NotNil(t, m.SchemaViolations)
	assert.NotNil(t, m.RecordsLive)
	assert.NotNil(t, m.NotificationsDelivered)
	assert.NotNil(t, m.PropertiesDelivered)
	assert.NotNil(t, m.ChangeSize)
}

func TestOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Operation("insert", "Effect", "success")
	m.Operation("insert", "Effect", "success")
	m.Operation("insert", "Effect", "already_exists")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("insert", "Effect", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("insert", "Effect", "already_exists")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.OperationsTotal))
}

func TestSchemaViolationAndRecords(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SchemaViolation("UNKNOWN_COLUMN")
	m.SetRecords(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SchemaViolations.WithLabelValues("UNKNOWN_COLUMN")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsLive))
}

func TestHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	h := m.Handler()

	require.NoError(t, h(notify.Change{Owner: 1, Properties: []string{"A", "B"}}))
	require.NoError(t, h(notify.Change{Owner: 2, Properties: []string{"A"}}))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsDelivered))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PropertiesDelivered.WithLabelValues("A")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PropertiesDelivered.WithLabelValues("B")))
}

func TestDump(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Operation("update", "Chance", "success")
	m.SetRecords(2)
	require.NoError(t, m.Handler()(notify.Change{Owner: 1, Properties: []string{"P"}}))

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, reg))
	out := buf.String()

	assert.Contains(t, out, `ontostore_operations_total{op="update",result="success",table="Chance"} 1`)
	assert.Contains(t, out, "ontostore_records_live 2")
	assert.Contains(t, out, "ontostore_change_properties_count 1")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "ontostore_change_properties"), "families are sorted by name")
}
