/*
handlers_test.go - Unit tests for API handlers

Tests run against the in-memory store through the real router, so URL
params and middleware behave as in production.
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulcrum/download-planner/factory"
	"github.com/fulcrum/download-planner/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(NewRouter(NewHandler(memory.New())))
	t.Cleanup(srv.Close)
	return srv
}

// buildRequest is a two-cohort request with known anchors: the Steel
// defaulter anchors at 2019 (default_year-1), so the Steel non-defaulter
// inherits 2019 via sector median.
func buildRequest() BuildPlanRequest {
	return BuildPlanRequest{
		Defaulters: []map[string]string{
			{"company_name": "Acme Ltd", "cin": "L27100MH1995PLC084207", "sector": "Steel", "default_year": "2020"},
		},
		NonDefaulters: []map[string]string{
			{"company_name": "Steady Steel", "cin": "U27200MH2001PTC222222", "sector": "Steel"},
		},
	}
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createPlan(t *testing.T, srv *httptest.Server) BuildPlanResponse {
	resp := postJSON(t, srv, "/api/plans", buildRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[BuildPlanResponse](t, resp)
}

// =============================================================================
// PLAN BUILDING
// =============================================================================

func TestBuildPlan_DefaultConfig(t *testing.T) {
	// GIVEN: A two-company request with no config overrides
	srv := newTestServer(t)

	// WHEN: Building a plan
	created := createPlan(t, srv)

	// THEN: Both companies got the default 3-year window with one
	// required doc type each
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 2, created.Summary.Companies)
	assert.Equal(t, 6, created.Summary.TotalJobs)
	assert.Equal(t, 6, created.Summary.RequiredJobs)
	assert.Equal(t, 0, created.Summary.OptionalJobs)
	assert.Equal(t, map[string]int{"defaulter": 1, "non_defaulter": 1}, created.Summary.CompaniesByCohort)
}

func TestBuildPlan_ConfigOverrides(t *testing.T) {
	// GIVEN: A request that shortens the lookback window to two years
	srv := newTestServer(t)
	req := buildRequest()
	lookback := 2
	req.Config = &factory.ConfigDocument{
		General: &factory.GeneralDoc{LookbackYears: &lookback},
	}

	// WHEN: Building
	resp := postJSON(t, srv, "/api/plans", req)

	// THEN: Each company expands to two years instead of three
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[BuildPlanResponse](t, resp)
	assert.Equal(t, 4, created.Summary.TotalJobs)
}

func TestBuildPlan_InvalidConfig(t *testing.T) {
	srv := newTestServer(t)
	req := buildRequest()
	order := "sideways"
	req.Config = &factory.ConfigDocument{
		General: &factory.GeneralDoc{YearOrder: &order},
	}

	resp := postJSON(t, srv, "/api/plans", req)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBuildPlan_BadCINStillPlans(t *testing.T) {
	// GIVEN: One non-defaulter row with a malformed CIN
	srv := newTestServer(t)
	req := buildRequest()
	req.NonDefaulters[0]["cin"] = "NOT-A-CIN"

	// WHEN: Building
	resp := postJSON(t, srv, "/api/plans", req)

	// THEN: The plan builds and persists; the bad row plans as unlisted
	// and the finding rides along in the response
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[BuildPlanResponse](t, resp)
	assert.Equal(t, 2, created.Summary.Companies)
	require.NotEmpty(t, created.Findings)
	assert.Equal(t, "error", created.Findings[0].Severity)
	assert.Contains(t, created.Findings[0].Message, "invalid CIN")

	list := get(t, srv, "/api/plans")
	infos := decode[[]PlanInfoDTO](t, list)
	require.Len(t, infos, 1)

	stored := decode[PlanDTO](t, get(t, srv, "/api/plans/"+created.ID))
	for _, j := range stored.Jobs {
		if j.CompanyName == "Steady Steel" {
			assert.False(t, j.IsListed)
			assert.Equal(t, []string{"mca"}, j.SourcePriority)
		}
	}
}

func TestBuildPlan_DuplicateNamesStillPlan(t *testing.T) {
	// GIVEN: Two defaulter rows with the same company name
	srv := newTestServer(t)
	req := buildRequest()
	req.Defaulters = append(req.Defaulters, req.Defaulters[0])

	// WHEN: Building
	resp := postJSON(t, srv, "/api/plans", req)

	// THEN: The build still succeeds; the duplicate is reported, not fatal
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[BuildPlanResponse](t, resp)
	assert.Equal(t, 9, created.Summary.TotalJobs) // 3 rows x 3 years x 1 doc
	require.NotEmpty(t, created.Findings)
	assert.Contains(t, created.Findings[0].Message, "duplicate company_name")
}

func TestBuildPlan_MalformedBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/plans", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// PLAN RETRIEVAL
// =============================================================================

func TestGetPlan_RoundTrip(t *testing.T) {
	srv := newTestServer(t)
	created := createPlan(t, srv)

	resp := get(t, srv, "/api/plans/"+created.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stored := decode[PlanDTO](t, resp)

	assert.Equal(t, created.ID, stored.ID)
	require.Len(t, stored.Jobs, 6)
	// Defaulter rows sort before non-defaulter rows; years run descending.
	assert.Equal(t, "defaulter", stored.Jobs[0].Cohort)
	assert.Equal(t, 2019, stored.Jobs[0].TargetFY)
	assert.Equal(t, 2017, stored.Jobs[2].TargetFY)
	assert.Equal(t, "non_defaulter", stored.Jobs[3].Cohort)
	assert.Equal(t, "sector_median_from_defaulters", stored.Jobs[3].AnchorReason)
	// Listed Acme tries all exchanges; unlisted Steady Steel only the registry.
	assert.Equal(t, []string{"bse", "nse", "mca"}, stored.Jobs[0].SourcePriority)
	assert.Equal(t, []string{"mca"}, stored.Jobs[3].SourcePriority)
}

func TestGetPlan_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := get(t, srv, "/api/plans/plan-missing")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetSummary(t *testing.T) {
	srv := newTestServer(t)
	created := createPlan(t, srv)

	resp := get(t, srv, "/api/plans/"+created.ID+"/summary")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[SummaryDTO](t, resp)

	assert.Equal(t, created.Summary, summary)
}

func TestGetCSV(t *testing.T) {
	srv := newTestServer(t)
	created := createPlan(t, srv)

	resp := get(t, srv, "/api/plans/"+created.ID+"/csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7) // header + 6 rows
	assert.True(t, strings.HasPrefix(lines[0], "cohort,company_name,"))
}

// =============================================================================
// JOBS AND FETCH RESULTS
// =============================================================================

func TestListJobs_PendingShrinksAfterSuccess(t *testing.T) {
	// GIVEN: A stored plan
	srv := newTestServer(t)
	created := createPlan(t, srv)

	resp := get(t, srv, "/api/plans/"+created.ID+"/jobs?pending=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := decode[[]JobDTO](t, resp)
	require.Len(t, pending, 6)
	first := pending[0]

	// WHEN: A failed then a successful attempt are recorded for one job
	fail := FetchResultRequest{
		Cohort: first.Cohort, CompanyName: first.CompanyName,
		TargetFY: first.TargetFY, DocType: first.DocType,
		Source: "bse", Success: false, Message: "timeout",
	}
	resp = postJSON(t, srv, "/api/plans/"+created.ID+"/results", fail)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	ok := fail
	ok.Source = "nse"
	ok.Success = true
	ok.Message = ""
	resp = postJSON(t, srv, "/api/plans/"+created.ID+"/results", ok)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// THEN: The job left the pending set but the full job list is intact
	resp = get(t, srv, "/api/plans/"+created.ID+"/jobs?pending=true")
	pending = decode[[]JobDTO](t, resp)
	assert.Len(t, pending, 5)

	resp = get(t, srv, "/api/plans/"+created.ID+"/jobs")
	all := decode[[]JobDTO](t, resp)
	assert.Len(t, all, 6)

	// AND: The log keeps both attempts in order
	q := url.Values{}
	q.Set("cohort", first.Cohort)
	q.Set("company_name", first.CompanyName)
	q.Set("target_fy", fmt.Sprintf("%d", first.TargetFY))
	q.Set("doc_type", first.DocType)
	resp = get(t, srv, "/api/plans/"+created.ID+"/log?"+q.Encode())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	log := decode[[]FetchResultDTO](t, resp)
	require.Len(t, log, 2)
	assert.False(t, log[0].Success)
	assert.Equal(t, "timeout", log[0].Message)
	assert.True(t, log[1].Success)
}

func TestRecordResult_UnknownPlan(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/api/plans/plan-missing/results", FetchResultRequest{
		Cohort: "defaulter", CompanyName: "Acme Ltd", TargetFY: 2019, DocType: "annual_report",
	})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordResult_MissingKeyFields(t *testing.T) {
	srv := newTestServer(t)
	created := createPlan(t, srv)

	resp := postJSON(t, srv, "/api/plans/"+created.ID+"/results", FetchResultRequest{Source: "bse"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// HEALTH
// =============================================================================

func TestCORS_OnlyServiceOriginAllowed(t *testing.T) {
	srv := newTestServer(t)

	check := func(origin string) string {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.Header.Get("Access-Control-Allow-Origin")
	}

	assert.Equal(t, "http://localhost:8080", check("http://localhost:8080"))
	assert.Empty(t, check("http://localhost:5173"))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp := get(t, srv, "/api/health")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}
