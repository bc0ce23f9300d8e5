// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package metrics

import (
	"github.com/benderTheCrime/error-type-specific-catch-proposal/cvm"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func gather(t *testing.T, m *Metrics) map[string]*dto.MetricFamily {
	t.Helper()
	families, e := m.Registry.Gather()
	require.NoError(t, e)
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, family := range families {
		byName[family.GetName()] = family
	}
	return byName
}

func TestRecordEvaluation(t *testing.T) {
	m := New("catch")

	m.RecordEvaluation("handled", cvm.Stats{Throws: 2, Rethrows: 1, ClauseMatches: 2, FinallyRuns: 1}, time.Millisecond)
	m.RecordEvaluation("propagated", cvm.Stats{Throws: 1}, time.Millisecond)

	families := gather(t, m)

	evaluations := families["catch_evaluations"]
	require.NotNil(t, evaluations)
	byOutcome := map[string]float64{}
	for _, metric := range evaluations.GetMetric() {
		byOutcome[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, float64(1), byOutcome["handled"])
	assert.Equal(t, float64(1), byOutcome["propagated"])

	require.NotNil(t, families["catch_throws"])
	assert.Equal(t, float64(3), families["catch_throws"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, float64(1), families["catch_rethrows"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, float64(2), families["catch_clause_matches"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, float64(1), families["catch_finally_runs"].GetMetric()[0].GetCounter().GetValue())
}

func TestRecordGauges(t *testing.T) {
	m := New("catch")

	m.RecordRegistrySize(8)
	m.RecordCompilerCacheSize(3)
	m.RecordTypeRegistrations(2)
	m.RecordTypeRegistrations(1)

	families := gather(t, m)
	assert.Equal(t, float64(8), families["catch_registered_types"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, float64(3), families["catch_compiler_cache_entries"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, float64(3), families["catch_type_registrations"].GetMetric()[0].GetCounter().GetValue())
}

func TestRecordRequest(t *testing.T) {
	m := New("catch")

	m.RecordRequest("eval", 200, time.Millisecond)
	m.RecordRequest("eval", 200, time.Millisecond)
	m.RecordRequest("types", 400, time.Millisecond)

	families := gather(t, m)
	requests := families["catch_requests"]
	require.NotNil(t, requests)
	total := float64(0)
	for _, metric := range requests.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	assert.Equal(t, float64(3), total)
}

func TestHandler(t *testing.T) {
	m := New("catch")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catch_throws")
}
