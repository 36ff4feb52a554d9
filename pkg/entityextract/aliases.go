package entityextract

// aliasTable maps normalized surface variants to a single canonical
// product/term identity.
var aliasTable = map[string]string{
	"fx forward":                    "fx_forward",
	"fx forwards":                   "fx_forward",
	"foreign exchange forward":      "fx_forward",
	"foreign exchange forwards":     "fx_forward",
	"currency forward contract":     "fx_forward",
	"currency forward contracts":    "fx_forward",
	"fx swap":                       "fx_swap",
	"fx swaps":                      "fx_swap",
	"currency swap":                 "fx_swap",
	"currency swaps":                "fx_swap",
	"interest rate swap":            "interest_rate_swap",
	"interest rate swaps":           "interest_rate_swap",
	"cross currency swap":           "cross_currency_swap",
	"cross-currency swap":           "cross_currency_swap",
	"cross currency swaps":          "cross_currency_swap",
	"cross-currency swaps":          "cross_currency_swap",
	"letter of credit":              "letter_of_credit",
	"letters of credit":             "letter_of_credit",
	"standby letter of credit":      "letter_of_credit",
	"standby letters of credit":     "letter_of_credit",
	"documentary credit":            "letter_of_credit",
	"documentary credits":           "letter_of_credit",
	"bank guarantee":                "bank_guarantee",
	"bank guarantees":                "bank_guarantee",
	"performance bond":              "bank_guarantee",
	"performance bonds":             "bank_guarantee",
	"term deposit":                  "term_deposit",
	"term deposits":                 "term_deposit",
	"certificate of deposit":        "term_deposit",
	"certificates of deposit":       "term_deposit",
	"revolving credit facility":     "revolving_credit_facility",
	"revolving credit facilities":   "revolving_credit_facility",
	"overdraft facility":            "overdraft_facility",
	"overdraft facilities":          "overdraft_facility",
	"know your customer":            "kyc",
	"anti-money laundering":         "aml",
	"anti money laundering":         "aml",
	"mark-to-market":                "mark_to_market",
	"mark to market":                "mark_to_market",
}
