package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augusta-labs/incentive-matcher/internal/store"
)

type fakeRetriever struct {
	companies       store.Companies
	incentives      store.Incentives
	correspondences []store.Correspondence
	recent          []store.Correspondence

	searchedTerms         []string
	forCompanyIDs         []uint
	forIncentiveRequested bool
	recentRequested       bool
	searchErr             error
}

func (f *fakeRetriever) SearchCompanies(_ context.Context, terms []string, _ int) (store.Companies, error) {
	f.searchedTerms = terms
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.companies, nil
}

func (f *fakeRetriever) SearchIncentives(_ context.Context, _ []string, _ int) (store.Incentives, error) {
	return f.incentives, nil
}

func (f *fakeRetriever) CorrespondencesFor(_ context.Context, companyIDs, _ []uint) ([]store.Correspondence, error) {
	f.forCompanyIDs = companyIDs
	f.forIncentiveRequested = true
	return f.correspondences, nil
}

func (f *fakeRetriever) RecentCorrespondences(_ context.Context, _ int) ([]store.Correspondence, error) {
	f.recentRequested = true
	return f.recent, nil
}

// fakeAssistant records what it was asked and answers with a fixed string.
type fakeAssistant struct {
	lastQuestion string
	lastContext  string
	answer       string
	err          error
}

func (f *fakeAssistant) Answer(_ context.Context, question, context string) (string, error) {
	f.lastQuestion = question
	f.lastContext = context
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func seededRetriever() *fakeRetriever {
	company := store.Company{ID: 1, Name: "Acme Steelworks", ActivityLabel: "manufacturing", TradeDescription: "steel fabrication"}
	incentive := store.Incentive{ID: 10, Title: "Green Tax Credit", AIDescription: "manufacturing firms reducing emissions"}

	return &fakeRetriever{
		companies:  store.Companies{company},
		incentives: store.Incentives{incentive},
		correspondences: []store.Correspondence{
			{
				RunID:       "run-1",
				CompanyID:   1,
				IncentiveID: 10,
				Score:       0.9,
				Rationale:   "emission reduction fits the criteria",
				Company:     company,
				Incentive:   incentive,
			},
		},
	}
}

func TestAskComposesContextFromMatchingRows(t *testing.T) {
	t.Parallel()

	retriever := seededRetriever()
	assistant := &fakeAssistant{answer: "Acme Steelworks qualifies."}
	session := New(retriever, assistant, 8, nil)

	answer, err := session.Ask(context.Background(), "Which incentives suit Acme?")
	require.NoError(t, err)
	assert.Equal(t, "Acme Steelworks qualifies.", answer)

	assert.Equal(t, []string{"which", "incentives", "suit", "acme"}, retriever.searchedTerms)
	assert.Equal(t, []uint{1}, retriever.forCompanyIDs)
	assert.False(t, retriever.recentRequested)

	assert.Equal(t, "Which incentives suit Acme?", assistant.lastQuestion)
	assert.Contains(t, assistant.lastContext, "Companies:")
	assert.Contains(t, assistant.lastContext, "[1] Acme Steelworks (manufacturing): steel fabrication")
	assert.Contains(t, assistant.lastContext, "Incentives:")
	assert.Contains(t, assistant.lastContext, "[10] Green Tax Credit")
	assert.Contains(t, assistant.lastContext, `Acme Steelworks matches "Green Tax Credit" (score 0.90)`)
	assert.Contains(t, assistant.lastContext, "emission reduction fits the criteria")
}

func TestAskFallsBackToRecentCorrespondences(t *testing.T) {
	t.Parallel()

	retriever := seededRetriever()
	retriever.companies = nil
	retriever.incentives = nil
	retriever.recent = retriever.correspondences
	assistant := &fakeAssistant{answer: "Here is what was matched recently."}
	session := New(retriever, assistant, 8, nil)

	_, err := session.Ask(context.Background(), "what happened lately?")
	require.NoError(t, err)

	assert.True(t, retriever.recentRequested, "with no keyword hits, recent correspondences ground the answer")
	assert.False(t, retriever.forIncentiveRequested)
	assert.Contains(t, assistant.lastContext, "Correspondences (company matched to incentive):")
	assert.NotContains(t, assistant.lastContext, "Companies:")
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	t.Parallel()

	session := New(&fakeRetriever{}, &fakeAssistant{}, 0, nil)

	_, err := session.Ask(context.Background(), "   ")
	require.Error(t, err)
}

func TestAskPropagatesRetrievalError(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{searchErr: errors.New("connection lost")}
	session := New(retriever, &fakeAssistant{}, 0, nil)

	_, err := session.Ask(context.Background(), "anything interesting?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieve companies")
}

func TestAskPropagatesAssistantError(t *testing.T) {
	t.Parallel()

	retriever := seededRetriever()
	assistant := &fakeAssistant{err: errors.New("model overloaded")}
	session := New(retriever, assistant, 8, nil)

	_, err := session.Ask(context.Background(), "Which incentives suit Acme?")
	require.Error(t, err)
	assert.EqualError(t, err, "model overloaded")
}
