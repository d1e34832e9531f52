package echoapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/partnership"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
	"github.com/Junosprite007/mod-equipmentcheckout/tests"
)

func Test_partnershipAPI(t *testing.T) {
	f := setup(t)
	manager := testutil.CreateUser(t, f.usrRepo, "Max", "Manager", "manager", "manager@test.local", "", []string{user.RoleAdminManager})
	nobody := testutil.CreateUser(t, f.usrRepo, "No", "Body", "nobody", "nobody@test.local", "", nil)
	crs := testutil.CreateCourse(t, f.crsRepo, "Geometry")
	token := f.getToken(t, manager)
	notFound := marshalObj(t, httpErr{Error: "not found"})

	runHTTPTests(t, f, []httpTest{
		{name: "auth required", path: "/api/partnerships", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "capability required", path: "/api/partnerships", token: f.getToken(t, nobody),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "empty list", path: "/api/partnerships", token: token, wantData: []byte(`[]`)},
		{
			name: "no fieldsets", method: http.MethodPost, path: "/api/partnerships", token: token, body: []byte(`{"partnerships": []}`),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"partnerships": f.t(core.MsgPartnershipsRequired)}),
		},
		{
			name: "invalid fieldsets", method: http.MethodPost, path: "/api/partnerships", token: token,
			body:     []byte(`{"partnerships": [{"name": "Valid"}, {"name": "   ", "courses": [999]}]}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"partnerships[1].name":    "this field is required",
				"partnerships[1].courses": f.t(core.MsgUnknownCourse, "999"),
			}),
		},
		{name: "nothing created", path: "/api/partnerships", token: token, wantData: []byte(`[]`)},
		{name: "unknown", path: "/api/partnerships/999", token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "bad id", path: "/api/partnerships/abc", token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "delete unknown", method: http.MethodDelete, path: "/api/partnerships/999", token: token, wantCode: http.StatusNotFound, wantData: notFound},
	})

	var created []partnership.Partnership
	t.Run("create", func(t *testing.T) {
		body := `{"partnerships": [
		  {"name": " Zeta School ", "liaisons": [` + strconv.FormatInt(manager.ID, 10) + `], "courses": [` + strconv.FormatInt(crs.ID, 10) + `],
		   "pickup": {"streetaddress": "1 Main St", "city": "Flint", "state": "MI", "zipcode": "48502"}},
		  {"name": "Alpha Academy", "active": false}
		]}`
		req, rec := newAuthRequest(http.MethodPost, "/api/partnerships", token, []byte(body))
		f.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		require.Len(t, created, 2)

		assert.Equal(t, "Zeta School", created[0].Name)
		assert.True(t, created[0].Active)
		assert.Equal(t, []int64{manager.ID}, created[0].Liaisons)
		assert.Equal(t, []int64{crs.ID}, created[0].Courses)
		assert.Equal(t, "Flint", created[0].Pickup.City)
		assert.False(t, created[1].Active)
	})
	require.Len(t, created, 2)
	zeta, alpha := created[0], created[1]

	t.Run("list", func(t *testing.T) {
		var list []partnership.Partnership
		req, rec := newAuthRequest(http.MethodGet, "/api/partnerships", token)
		f.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		if assert.Len(t, list, 2) {
			assert.Equal(t, alpha.ID, list[0].ID)
			assert.Equal(t, zeta.ID, list[1].ID)
		}

		req, rec = newAuthRequest(http.MethodGet, "/api/partnerships?active=true", token)
		f.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		if assert.Len(t, list, 1) {
			assert.Equal(t, zeta.ID, list[0].ID)
		}
	})

	zetaPath := "/api/partnerships/" + strconv.FormatInt(zeta.ID, 10)

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, zetaPath, token)
		f.do(req, rec)
		checkCodeAndData(t, httpTest{wantData: marshalObj(t, zeta)}, rec)
	})

	t.Run("pickups", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, zetaPath+"/pickups", token,
			[]byte(`{"starttime": "2026-08-20T16:00:00Z", "endtime": "2026-08-20T15:00:00Z"}`))
		f.do(req, rec)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		var fields map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
		assert.Contains(t, fields, "endtime")

		req, rec = newAuthRequest(http.MethodPost, zetaPath+"/pickups", token,
			[]byte(`{"starttime": "2026-08-20T15:00:00Z", "endtime": "2026-08-20T16:00:00Z"}`))
		f.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var pickup partnership.Pickup
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pickup))
		assert.Equal(t, zeta.ID, pickup.PartnershipID)
		assert.Equal(t, partnership.PickupPending, pickup.Status)

		req, rec = newAuthRequest(http.MethodGet, zetaPath+"/pickups", token)
		f.do(req, rec)
		checkCodeAndData(t, httpTest{wantData: marshalObj(t, []partnership.Pickup{pickup})}, rec)

		req, rec = newAuthRequest(http.MethodGet, "/api/partnerships/999/pickups", token)
		f.do(req, rec)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: notFound}, rec)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, zetaPath, token)
		f.do(req, rec)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, zetaPath, token)
		f.do(req, rec)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: notFound}, rec)
	})
}
