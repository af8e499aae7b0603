package loader

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCompanies(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"company_name,cae_primary_label,trade_description_native,website",
		"Acme Steelworks,manufacturing,steel fabrication,https://acme.example",
		",agriculture,nameless row is skipped,",
		"Beta Farms,agriculture,,",
	}, "\n")

	companies, err := New(nil).readCompanies(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, companies, 2, "rows without a company name are skipped")

	assert.Equal(t, "Acme Steelworks", companies[0].Name)
	assert.Equal(t, "manufacturing", companies[0].ActivityLabel)
	assert.Equal(t, "steel fabrication", companies[0].TradeDescription)
	assert.Equal(t, "https://acme.example", companies[0].Website)
	assert.Equal(t, "Beta Farms", companies[1].Name)
}

func TestReadCompaniesHandlesReorderedColumns(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"Website,Company_Name",
		"https://acme.example,Acme Steelworks",
	}, "\n")

	companies, err := New(nil).readCompanies(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme Steelworks", companies[0].Name)
	assert.Equal(t, "https://acme.example", companies[0].Website)
}

func TestReadIncentives(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"title,description,ai_description,document_urls,publication_date,start_date,end_date,total_budget,source_link",
		`Green Tax Credit,long text,manufacturing firms reducing emissions,https://docs.example,2024-03-01 10:30:00+00:00,2024-04-01,2024-12-31,1500000.50,https://source.example`,
	}, "\n")

	incentives, err := New(nil).readIncentives(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, incentives, 1)

	incentive := incentives[0]
	assert.Equal(t, "Green Tax Credit", incentive.Title)
	assert.Equal(t, "manufacturing firms reducing emissions", incentive.AIDescription)

	require.NotNil(t, incentive.PublicationDate)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), *incentive.PublicationDate)
	require.NotNil(t, incentive.StartDate)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), *incentive.StartDate)
	require.NotNil(t, incentive.EndDate)

	require.NotNil(t, incentive.TotalBudget)
	assert.InDelta(t, 1500000.50, *incentive.TotalBudget, 1e-9)
}

func TestReadIncentivesUsesAlternateDateColumns(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"title,date_publication,date_start,date_end",
		"Export Grant,2023-06-15,2023-07-01,2023-09-30",
	}, "\n")

	incentives, err := New(nil).readIncentives(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, incentives, 1)

	require.NotNil(t, incentives[0].PublicationDate)
	assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), *incentives[0].PublicationDate)
	require.NotNil(t, incentives[0].StartDate)
	require.NotNil(t, incentives[0].EndDate)
}

func TestReadIncentivesToleratesBadValues(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"title,publication_date,total_budget",
		"Messy Grant,not-a-date,about a million",
	}, "\n")

	incentives, err := New(nil).readIncentives(strings.NewReader(input))
	require.NoError(t, err, "malformed optional fields must not fail the import")
	require.Len(t, incentives, 1)

	assert.Nil(t, incentives[0].PublicationDate)
	assert.Nil(t, incentives[0].TotalBudget)
}

func TestReadCompaniesRejectsEmptyFile(t *testing.T) {
	t.Parallel()

	_, err := New(nil).readCompanies(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read companies header")
}
