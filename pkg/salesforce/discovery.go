package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrQuoteNotFound is returned when no quote record matches a lookup, or the
// matched record carries no transaction ID.
var ErrQuoteNotFound = eris.New("sf: quote not found")

// Quote is a CPQ quote record as mirrored into Salesforce by the CPQ managed
// package. TransactionID is the CPQ-side transaction identifier.
type Quote struct {
	ID            string  `json:"Id" salesforce:"Id"`
	Name          string  `json:"Name" salesforce:"Name"`
	TransactionID string  `json:"BigMachines__Transaction_Id__c" salesforce:"BigMachines__Transaction_Id__c"`
	OpportunityID string  `json:"BigMachines__Opportunity__c" salesforce:"BigMachines__Opportunity__c"`
	Status        string  `json:"BigMachines__Status__c" salesforce:"BigMachines__Status__c"`
	IsPrimary     bool    `json:"BigMachines__Is_Primary__c" salesforce:"BigMachines__Is_Primary__c"`
	Total         float64 `json:"BigMachines__Total__c" salesforce:"BigMachines__Total__c"`
}

// quoteFields are the SOQL fields selected for quote queries.
var quoteFields = []string{
	"Id", "Name", "BigMachines__Transaction_Id__c", "BigMachines__Opportunity__c",
	"BigMachines__Status__c", "BigMachines__Is_Primary__c", "BigMachines__Total__c",
}

// FindQuoteByNumber queries Salesforce for the quote record matching the given
// quote number. Returns nil if no quote is found.
func FindQuoteByNumber(ctx context.Context, c Client, quoteNumber string) (*Quote, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM BigMachines__Quote__c WHERE Name = '%s' LIMIT 1",
		strings.Join(quoteFields, ", "),
		escapeSoql(quoteNumber),
	)

	var quotes []Quote
	if err := c.Query(ctx, soql, &quotes); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find quote by number %s", quoteNumber))
	}
	if len(quotes) == 0 {
		return nil, nil
	}
	return &quotes[0], nil
}

// FindQuotesByOpportunity queries Salesforce for all quote records attached to
// an opportunity, primary quote first, then newest first.
func FindQuotesByOpportunity(ctx context.Context, c Client, opportunityID string) ([]Quote, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM BigMachines__Quote__c WHERE BigMachines__Opportunity__c = '%s' "+
			"ORDER BY BigMachines__Is_Primary__c DESC, LastModifiedDate DESC",
		strings.Join(quoteFields, ", "),
		escapeSoql(opportunityID),
	)

	var quotes []Quote
	if err := c.Query(ctx, soql, &quotes); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find quotes for opportunity %s", opportunityID))
	}
	return quotes, nil
}

// ResolveTransactionID finds the CPQ transaction ID for a quote number.
// Wraps ErrQuoteNotFound when the number resolves to nothing usable.
func ResolveTransactionID(ctx context.Context, c Client, quoteNumber string) (string, error) {
	q, err := FindQuoteByNumber(ctx, c, quoteNumber)
	if err != nil {
		return "", err
	}
	if q == nil || q.TransactionID == "" {
		return "", eris.Wrap(ErrQuoteNotFound, fmt.Sprintf("quote number %s", quoteNumber))
	}
	return q.TransactionID, nil
}

// ResolveTransactionIDByOpportunity finds the CPQ transaction ID for an
// opportunity's primary quote, falling back to the most recently modified
// quote when none is flagged primary.
func ResolveTransactionIDByOpportunity(ctx context.Context, c Client, opportunityID string) (string, error) {
	quotes, err := FindQuotesByOpportunity(ctx, c, opportunityID)
	if err != nil {
		return "", err
	}
	for _, q := range quotes {
		if q.TransactionID != "" {
			return q.TransactionID, nil
		}
	}
	return "", eris.Wrap(ErrQuoteNotFound, fmt.Sprintf("opportunity %s", opportunityID))
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
