package constants

import "strings"

// DocType is a document type label. The set below is advisory: it is listed
// in the classification prompt, but labels outside it are accepted as-is.
type DocType string

const (
	Invoice         DocType = "Invoice"
	Contract        DocType = "Contract"
	KYCForm         DocType = "KYC Form"
	LoanDocument    DocType = "Loan Document"
	CreditCardBill  DocType = "Credit Card Bill"
	InsurancePolicy DocType = "Insurance Policy"
)

var exampleDocTypes = []DocType{
	Invoice,
	Contract,
	KYCForm,
	LoanDocument,
	CreditCardBill,
	InsurancePolicy,
}

func ExampleDocTypes() []string {
	result := make([]string, len(exampleDocTypes))
	for i, dt := range exampleDocTypes {
		result[i] = string(dt)
	}
	return result
}

// IsExampleDocType reports whether label matches one of the example labels, ignoring case.
func IsExampleDocType(label string) bool {
	normalized := strings.ToLower(strings.TrimSpace(label))
	for _, dt := range exampleDocTypes {
		if normalized == strings.ToLower(string(dt)) {
			return true
		}
	}
	return false
}
