package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"complianceai/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompanyHandler(companies *stubCompanies, quota model.QuotaStatus) *CompanyHandler {
	return NewCompanyHandler(companies, &stubSubscriptions{quota: quota}, testValidate, false, testLogger)
}

func TestCreateCompany(t *testing.T) {
	companies := &stubCompanies{}
	h := newCompanyHandler(companies, model.QuotaStatus{})

	rec, env := serve(t, h, http.MethodPost, "/companies", map[string]interface{}{
		"companyName":       " <b>Acme</b> Private Limited ",
		"companyType":       "LLP",
		"incorporationDate": "2023-08-15",
		"gstin":             "27AAPFU0939F1ZV",
		"pan":               "AAPFU0939F",
		"pincode":           "400001",
		"state":             "Maharashtra",
		"authorizedCapital": 1000000,
	}, true)

	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	require.Len(t, companies.created, 1)
	c := companies.created[0]
	assert.Equal(t, testUser.ID, c.UserID)
	assert.NotContains(t, c.CompanyName, "<")
	assert.Equal(t, "LLP", c.CompanyType)
	require.NotNil(t, c.IncorporationDate)
	assert.Equal(t, 2023, c.IncorporationDate.Year())
	require.NotNil(t, c.AuthorizedCapital)
	assert.EqualValues(t, 1000000, *c.AuthorizedCapital)
	assert.Nil(t, c.CIN)
}

func TestCreateCompanyValidation(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value interface{}
		want  string
	}{
		{"bad gstin", "gstin", "27AAPFU0939F1Z", "gstin: Invalid GSTIN format"},
		{"bad pan", "pan", "AAPF0939F", "pan: Invalid PAN format"},
		{"bad pincode", "pincode", "012345", "pincode: Invalid pincode"},
		{"bad company type", "companyType", "Trust", "companyType: Invalid company type"},
		{"negative capital", "paidUpCapital", -1, "paidUpCapital"},
		{"bad date", "incorporationDate", "15/08/2023", "incorporationDate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			companies := &stubCompanies{}
			rec, env := serve(t, newCompanyHandler(companies, model.QuotaStatus{}), http.MethodPost, "/companies",
				map[string]interface{}{"companyName": "Acme", tc.field: tc.value}, true)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, env.Error, tc.want)
			assert.Empty(t, companies.created)
		})
	}

	rec, env := serve(t, newCompanyHandler(&stubCompanies{}, model.QuotaStatus{}), http.MethodPost, "/companies", map[string]interface{}{}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "companyName: Required")
}

func TestCompanyRoutesRequireSession(t *testing.T) {
	h := newCompanyHandler(&stubCompanies{}, model.QuotaStatus{})
	for _, path := range []string{"/companies", "/companies/c1/limits"} {
		rec, _ := serve(t, h, http.MethodGet, path, nil, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestCompanyLimits(t *testing.T) {
	companies := &stubCompanies{owned: map[string]*model.Company{"c1": {ID: "c1", CompanyName: "Acme"}}}
	h := newCompanyHandler(companies, model.QuotaStatus{CanGenerate: true, DocumentsUsed: 3, DocumentsLimit: 25})

	rec, env := serve(t, h, http.MethodGet, "/companies/c1/limits", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var q model.QuotaStatus
	require.NoError(t, json.Unmarshal(env.Data, &q))
	assert.Equal(t, model.QuotaStatus{CanGenerate: true, DocumentsUsed: 3, DocumentsLimit: 25}, q)

	rec, env = serve(t, h, http.MethodGet, "/companies/c2/limits", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Company not found", env.Error)

	rec, env = serve(t, h, http.MethodGet, "/companies", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Company
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
}
