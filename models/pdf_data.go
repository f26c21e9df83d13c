package models

import "github.com/shopspring/decimal"

const (
	HSNTransport = "9965"
	HSNHandling  = "9967"
)

type ServiceBillPDFData struct {
	Company  *CompanyProfile
	Contacts string // formatted mobile numbers
	Bill     *ServiceBill
	Date     string // formatted bill date

	Handling      *HandlingSection
	HandlingClaim string

	Depot      *DepotSection
	DepotRows  []DepotRow
	DepotClaim string

	FOL      *FOLSection
	FOLClaim string

	HSNTransport string
	HSNHandling  string
}

type DestinationEntryPDFData struct {
	Company     *CompanyProfile
	Contacts    string
	Entry       *DestinationEntry
	Destination string
	Date        string
	TotalAmount decimal.Decimal
	Claim       string
}
