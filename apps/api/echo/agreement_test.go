package echoapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/agreement"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
	"github.com/Junosprite007/mod-equipmentcheckout/tests"
)

func agreementBody(title, start, end string) []byte {
	return []byte(`{"title": "` + title + `", "content": "<p>Return the laptop by June.</p>", "agreementtype": "optinout",
		"active": true, "requiresignature": true, "startdate": "` + start + `", "enddate": "` + end + `"}`)
}

func Test_agreementAPI(t *testing.T) {
	f := setup(t)
	token := f.getToken(t, f.admin(t))
	manager := testutil.CreateUser(t, f.usrRepo, "Max", "Manager", "manager", "manager@test.local", "", []string{user.RoleAdminManager})

	runHTTPTests(t, f, []httpTest{
		{name: "auth required", path: "/api/agreements", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "capability required", path: "/api/agreements", token: f.getToken(t, manager),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "empty list", path: "/api/agreements", token: token, wantData: []byte(`[]`)},
		{
			name: "end before start", method: http.MethodPost, path: "/api/agreements", token: token,
			body:     agreementBody("Loan", "2027-06-30T00:00:00Z", "2026-09-01T00:00:00Z"),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"enddate": f.t(core.MsgEndDateAfterStart)}),
		},
		{
			name: "missing fields", method: http.MethodPost, path: "/api/agreements", token: token, body: []byte(`{"agreementtype": "informational"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"title":     "this field is required",
				"content":   "this field is required",
				"startdate": "this field is required",
				"enddate":   "this field is required",
			}),
		},
		{name: "unknown", path: "/api/agreements/42", token: token, wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "not found"})},
	})

	var first agreement.Agreement
	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/agreements", token, agreementBody("Loan", "2026-09-01T00:00:00Z", "2027-06-30T00:00:00Z"))
		f.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

		assert.Equal(t, 1, first.Version)
		assert.Equal(t, int64(0), first.PreviousVersionID)
		assert.Equal(t, agreement.TypeOptInOut, first.Type)
		assert.True(t, first.Active)
	})
	firstPath := "/api/agreements/" + strconv.FormatInt(first.ID, 10)

	t.Run("edit with invalid dates", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, firstPath, token, agreementBody("Loan", "2026-09-01T00:00:00Z", "2026-09-01T00:00:00Z"))
		f.do(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"enddate": f.t(core.MsgEndDateAfterStart)}),
		}, rec)
	})

	t.Run("edit creates a new version", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, firstPath, token, agreementBody("Loan v2", "2026-09-01T00:00:00Z", "2027-07-31T00:00:00Z"))
		f.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var second agreement.Agreement
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, 2, second.Version)
		assert.Equal(t, first.ID, second.PreviousVersionID)
		assert.Equal(t, "Loan v2", second.Title)
		assert.True(t, second.Active)

		var prev agreement.Agreement
		req, rec = newAuthRequest(http.MethodGet, firstPath, token)
		f.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prev))
		assert.False(t, prev.Active)
		assert.Equal(t, "Loan", prev.Title)

		var active []agreement.Agreement
		req, rec = newAuthRequest(http.MethodGet, "/api/agreements?active=1", token)
		f.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &active))
		if assert.Len(t, active, 1) {
			assert.Equal(t, second.ID, active[0].ID)
		}
	})

	t.Run("current agreements", func(t *testing.T) {
		agreement.NowFunc = func() time.Time { return time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC) }
		defer func() { agreement.NowFunc = time.Now }()

		req, rec := newAuthRequest(http.MethodPost, "/api/agreements", token, agreementBody("Next year", "2030-09-01T00:00:00Z", "2031-06-30T00:00:00Z"))
		f.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var current []agreement.Agreement
		req, rec = newAuthRequest(http.MethodGet, "/api/agreements?current=1", token)
		f.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &current))
		if assert.Len(t, current, 1) {
			assert.Equal(t, "Loan v2", current[0].Title)
		}
	})
}
