// Package entity defines the domain entities for the quotes feature.
package entity

import (
	"strings"
	"time"
)

// Quote is the last known price of one security.
type Quote struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	ChangePct float64   `json:"change_pct"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

// Snapshot is the persisted form of the quote universe.
type Snapshot struct {
	LastCacheTime time.Time `json:"lastCacheTime"`
	Stocks        []Quote   `json:"stocks"`
}

// NormalizeCode は "sh600000" や "600000.SH" のような表記を6桁の銘柄コードに揃えます。
func NormalizeCode(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	for _, p := range []string{"sh", "sz", "bj"} {
		if strings.HasPrefix(c, p) && len(c) > len(p) {
			c = c[len(p):]
			break
		}
		if strings.HasSuffix(c, "."+p) {
			c = strings.TrimSuffix(c, "."+p)
			break
		}
	}
	return c
}
