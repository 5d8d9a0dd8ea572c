package models

// CompanyInfo represents the descriptive data shown next to a chart
type CompanyInfo struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	// Sector is left empty by the Yahoo provider; finance-go quotes carry none
	Sector   string `json:"sector,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	Currency string `json:"currency,omitempty"`
	// Degraded is set when the upstream lookup failed and Name fell back to the symbol
	Degraded bool `json:"degraded,omitempty"`
}

// FallbackCompanyInfo builds the record used when the upstream lookup fails
func FallbackCompanyInfo(symbol string) *CompanyInfo {
	return &CompanyInfo{
		Symbol:   symbol,
		Name:     symbol,
		Degraded: true,
	}
}
