package wfs

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/jacksmith/zonesync/internal/model"
	"github.com/jacksmith/zonesync/internal/xmltree"
)

// TransactionResult is what the server reported for an applied transaction.
type TransactionResult struct {
	// Summarized is false when the body carried no TransactionSummary.
	Summarized  bool
	Inserted    int
	Updated     int
	Deleted     int
	InsertedIDs []string
}

// ParseTransactionResponse reads the body of a successful (2xx) reply.
// Exception reports and failed WFS 1.0 results are returned as
// *model.TransactionRejectedError. A body that is not XML is taken as
// success without a summary.
func ParseTransactionResponse(statusCode int, status string, body []byte) (*TransactionResult, error) {
	result := &TransactionResult{}
	if len(bytes.TrimSpace(body)) == 0 {
		return result, nil
	}
	root, err := xmltree.Parse(bytes.NewReader(body))
	if err != nil {
		return result, nil
	}

	switch root.Local() {
	case "ExceptionReport", "ServiceExceptionReport":
		return nil, &model.TransactionRejectedError{
			StatusCode: statusCode,
			Status:     status,
			Detail:     exceptionText(root),
		}
	case "TransactionResponse":
		summary := root.Child("TransactionSummary")
		if summary != nil {
			result.Summarized = true
			result.Inserted = intChild(summary, "totalInserted")
			result.Updated = intChild(summary, "totalUpdated")
			result.Deleted = intChild(summary, "totalDeleted")
		}
		if inserts := root.Child("InsertResults"); inserts != nil {
			result.InsertedIDs = featureIDs(inserts)
		}
	case "WFS_TransactionResponse":
		// WFS 1.0.0 reply shape.
		tr := root.Child("TransactionResult")
		if tr == nil {
			return result, nil
		}
		if st := tr.Child("Status"); st != nil && st.Child("FAILED") != nil {
			detail := ""
			if msg := tr.Child("Message"); msg != nil {
				detail = msg.Text
			}
			return nil, &model.TransactionRejectedError{StatusCode: statusCode, Status: status, Detail: detail}
		}
		result.InsertedIDs = featureIDs(root)
	}
	return result, nil
}

// exceptionText joins the messages of an OWS or OGC exception report.
func exceptionText(root *xmltree.Element) string {
	var parts []string
	for _, name := range []string{"ExceptionText", "ServiceException"} {
		for _, el := range root.Find(name) {
			if t := strings.TrimSpace(el.Text); t != "" {
				parts = append(parts, t)
			}
		}
	}
	if len(parts) == 0 {
		for _, el := range root.Find("Exception") {
			if code, ok := el.Attr("exceptionCode"); ok {
				parts = append(parts, code)
			}
		}
	}
	return strings.Join(parts, "; ")
}

// IsExceptionReport reports whether body is an OWS or OGC exception report.
func IsExceptionReport(body []byte) (string, bool) {
	root, err := xmltree.Parse(bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	switch root.Local() {
	case "ExceptionReport", "ServiceExceptionReport":
		return exceptionText(root), true
	}
	return "", false
}

func featureIDs(el *xmltree.Element) []string {
	var ids []string
	for _, fid := range el.Find("FeatureId") {
		if v, ok := fid.Attr("fid"); ok && v != "" && v != "none" {
			ids = append(ids, v)
		}
	}
	return ids
}

func intChild(el *xmltree.Element, name string) int {
	c := el.Child(name)
	if c == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(c.Text))
	if err != nil {
		return 0
	}
	return n
}
