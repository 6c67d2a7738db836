package wfs

import (
	"errors"
	"testing"

	"github.com/jacksmith/zonesync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transactionResponse = `<?xml version="1.0" encoding="UTF-8"?>
<wfs:TransactionResponse xmlns:wfs="http://www.opengis.net/wfs" xmlns:ogc="http://www.opengis.net/ogc" version="1.1.0">
  <wfs:TransactionSummary>
    <wfs:totalInserted>2</wfs:totalInserted>
    <wfs:totalUpdated>1</wfs:totalUpdated>
    <wfs:totalDeleted>3</wfs:totalDeleted>
  </wfs:TransactionSummary>
  <wfs:TransactionResults/>
  <wfs:InsertResults>
    <wfs:Feature><ogc:FeatureId fid="zones.41"/></wfs:Feature>
    <wfs:Feature><ogc:FeatureId fid="zones.42"/></wfs:Feature>
  </wfs:InsertResults>
</wfs:TransactionResponse>`

const exceptionReport = `<?xml version="1.0" encoding="UTF-8"?>
<ows:ExceptionReport xmlns:ows="http://www.opengis.net/ows" version="1.0.0">
  <ows:Exception exceptionCode="InvalidParameterValue">
    <ows:ExceptionText>Feature type geoimage:zones unknown</ows:ExceptionText>
  </ows:Exception>
</ows:ExceptionReport>`

func TestParseTransactionResponse(t *testing.T) {
	result, err := ParseTransactionResponse(200, "200 OK", []byte(transactionResponse))
	require.NoError(t, err)
	assert.True(t, result.Summarized)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 3, result.Deleted)
	assert.Equal(t, []string{"zones.41", "zones.42"}, result.InsertedIDs)
}

func TestParseTransactionResponseWithoutSummary(t *testing.T) {
	for name, body := range map[string]string{
		"empty":     "",
		"plain":     "ok",
		"json":      `{"ok":true}`,
		"other xml": "<done/>",
	} {
		t.Run(name, func(t *testing.T) {
			result, err := ParseTransactionResponse(200, "200 OK", []byte(body))
			require.NoError(t, err)
			assert.False(t, result.Summarized)
		})
	}
}

func TestParseTransactionResponseRejections(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{name: "ows exception report", body: exceptionReport, detail: "Feature type geoimage:zones unknown"},
		{
			name: "service exception report",
			body: `<ServiceExceptionReport version="1.2.0"><ServiceException code="InvalidParameterValue">` +
				`bad geometry</ServiceException></ServiceExceptionReport>`,
			detail: "bad geometry",
		},
		{
			name:   "exception without text",
			body:   `<ows:ExceptionReport><ows:Exception exceptionCode="NoApplicableCode"/></ows:ExceptionReport>`,
			detail: "NoApplicableCode",
		},
		{
			name: "wfs 1.0 failure",
			body: `<wfs:WFS_TransactionResponse><wfs:TransactionResult><wfs:Status><wfs:FAILED/></wfs:Status>` +
				`<wfs:Message>lock held</wfs:Message></wfs:TransactionResult></wfs:WFS_TransactionResponse>`,
			detail: "lock held",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTransactionResponse(200, "200 OK", []byte(tt.body))
			var rejected *model.TransactionRejectedError
			require.True(t, errors.As(err, &rejected), "got %v", err)
			assert.Equal(t, 200, rejected.StatusCode)
			assert.Equal(t, tt.detail, rejected.Detail)
		})
	}
}

func TestParseWFS10Success(t *testing.T) {
	body := `<wfs:WFS_TransactionResponse><wfs:InsertResult><ogc:FeatureId fid="zones.7"/></wfs:InsertResult>` +
		`<wfs:TransactionResult><wfs:Status><wfs:SUCCESS/></wfs:Status></wfs:TransactionResult></wfs:WFS_TransactionResponse>`

	result, err := ParseTransactionResponse(200, "200 OK", []byte(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"zones.7"}, result.InsertedIDs)
}

func TestIsExceptionReport(t *testing.T) {
	detail, ok := IsExceptionReport([]byte(exceptionReport))
	assert.True(t, ok)
	assert.Equal(t, "Feature type geoimage:zones unknown", detail)

	_, ok = IsExceptionReport([]byte(transactionResponse))
	assert.False(t, ok)
	_, ok = IsExceptionReport([]byte(`{"type":"FeatureCollection"}`))
	assert.False(t, ok)
}
