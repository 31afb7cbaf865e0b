package dataprocessing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"policydash/pkg/contracts/domain"
)

const exampleCSV = `Category,Commissionable Premium,Issued Date
Health,1000,2024-03-05
Health,500,2024-03-20
Life,2000,2024-02-10
`

const registerCSV = `Category,Insurer Name,Agent Name,Branch Name,Manager Name,Product,Issued Date,Commissionable Premium,Premium Paying Term,Benefit Term,Premium Paid
Health,Acme,Asha,North,Mehta,Care Plus,2024-01-15,1200,10,20,1200
Life,Zenith,Ravi,South,Iyer,Term Shield,2024-02-02,5000,20,30,2500
Health,Zenith,Asha,North,Mehta,Care Plus,2024-02-28,800,10,20,800
Motor,Acme,Kiran,East,Iyer,Drive Safe,2024-03-01,450,1,1,450
Life,Acme,Ravi,South,Iyer,Term Shield,2024-03-18,5000,20,30,0
Health,Orbit,Kiran,East,Mehta,Care Lite,not a date,300,5,10,
Motor,Orbit,,West,,Drive Safe,2024-03-10,n/a,1,1,
`

func mustParseCSV(t *testing.T, data string) *domain.Table {
	t.Helper()
	table, _, err := NewParser(nil).Parse(strings.NewReader(data), domain.IngestFormatCSV)
	require.NoError(t, err)
	return table
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func columnValues(table *domain.Table, column string) []string {
	var out []string
	for _, row := range table.Rows {
		out = append(out, table.Value(row, column).String())
	}
	return out
}
