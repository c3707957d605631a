package services

import (
	"math"
	"net/url"
	"testing"
	"time"

	"event-management/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLimits = ListLimits{DefaultLimit: 10, MaxLimit: 100}

func TestParsePublicQuery_Defaults(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	q, err := ParsePublicQuery(url.Values{}, testLimits, now)
	require.NoError(t, err)

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)
	require.NotNil(t, q.Filter.Published)
	assert.True(t, *q.Filter.Published)
	require.NotNil(t, q.Filter.DateFrom)
	assert.True(t, now.Equal(*q.Filter.DateFrom))
	assert.Nil(t, q.Filter.Featured)
	assert.Nil(t, q.Filter.Category)
	assert.Nil(t, q.Filter.Search)
}

func TestParsePublicQuery_Values(t *testing.T) {
	values := url.Values{
		"category": {"seminar"},
		"status":   {"Ongoing"},
		"featured": {"true"},
		"upcoming": {"false"},
		"search":   {"  go  "},
		"page":     {"3"},
		"limit":    {"500"},
	}

	q, err := ParsePublicQuery(values, testLimits, time.Now())
	require.NoError(t, err)

	require.NotNil(t, q.Filter.Category)
	assert.Equal(t, models.CategorySeminar, *q.Filter.Category)
	require.NotNil(t, q.Filter.Status)
	assert.Equal(t, models.EventStatusOngoing, *q.Filter.Status)
	require.NotNil(t, q.Filter.Featured)
	assert.True(t, *q.Filter.Featured)
	assert.Nil(t, q.Filter.DateFrom)
	require.NotNil(t, q.Filter.Search)
	assert.Equal(t, "go", *q.Filter.Search)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 100, q.Limit, "limit is capped")
}

func TestParsePublicQuery_Invalid(t *testing.T) {
	values := url.Values{
		"category": {"PARTY"},
		"status":   {"CANCELLED"},
		"page":     {"0"},
		"limit":    {"abc"},
	}

	_, err := ParsePublicQuery(values, testLimits, time.Now())

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 4)
	for _, key := range []string{"category", "status", "page", "limit"} {
		assert.Contains(t, verrs, key)
	}
}

func TestParseAdminQuery(t *testing.T) {
	values := url.Values{
		"published": {"false"},
		"authorId":  {"abc123"},
		"startDate": {"2024-01-01"},
		"endDate":   {"2024-12-31"},
		"featured":  {"true"},
	}

	q, err := ParseAdminQuery(values, testLimits)
	require.NoError(t, err)

	require.NotNil(t, q.Filter.Published)
	assert.False(t, *q.Filter.Published)
	require.NotNil(t, q.Filter.AuthorID)
	assert.Equal(t, "abc123", *q.Filter.AuthorID)
	assert.Nil(t, q.Filter.Featured, "admin listing ignores featured")

	require.NotNil(t, q.Filter.DateFrom)
	assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(*q.Filter.DateFrom))
	require.NotNil(t, q.Filter.DateTo)
	assert.Equal(t, 2024, q.Filter.DateTo.Year())
	assert.Equal(t, time.December, q.Filter.DateTo.Month())
	assert.Equal(t, 31, q.Filter.DateTo.Day())
	assert.Equal(t, 23, q.Filter.DateTo.Hour())
}

func TestParseAdminQuery_PublishedIsOptional(t *testing.T) {
	q, err := ParseAdminQuery(url.Values{"published": {"maybe"}}, testLimits)
	require.NoError(t, err)
	assert.Nil(t, q.Filter.Published)
	assert.Nil(t, q.Filter.DateFrom)
}

func TestParseAdminQuery_InvalidDates(t *testing.T) {
	_, err := ParseAdminQuery(url.Values{"startDate": {"yesterday"}, "endDate": {"2024-13-45"}}, testLimits)

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "startDate")
	assert.Contains(t, verrs, "endDate")
}

func TestParseStatsQuery(t *testing.T) {
	q, err := ParseStatsQuery(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, q.From)
	assert.Nil(t, q.To)

	q, err = ParseStatsQuery(url.Values{"startDate": {"2024-02-01T10:00:00Z"}, "endDate": {"2024-02-29"}})
	require.NoError(t, err)
	require.NotNil(t, q.From)
	require.NotNil(t, q.To)
	assert.True(t, q.From.Before(*q.To))
	assert.Equal(t, 29, q.To.Day())

	_, err = ParseStatsQuery(url.Values{"endDate": {"soon"}})
	assert.Error(t, err)
}

func TestEventFilter_Expression(t *testing.T) {
	assert.Nil(t, EventFilter{}.Expression("e"))
	assert.Nil(t, EventFilter{}.with("e"))

	published := true
	assert.NotNil(t, EventFilter{Published: &published}.Expression("e"))

	empty := ""
	assert.Nil(t, EventFilter{Search: &empty}.Expression("e"), "empty search does not filter")
}

func TestDBTime(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("ICT", 7*3600))
	assert.Equal(t, "2024-05-06 00:08:09.000Z", dbTime(ts))
}

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"plain":   "plain",
		"node_js": `node\_js`,
		"50%":     `50\%`,
		`a\b`:     `a\\b`,
		`%_\`:     `\%\_\\`,
	}
	for in, want := range tests {
		assert.Equal(t, want, escapeLike(in), in)
	}
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, int64(0), pageOffset(1, 10))
	assert.Equal(t, int64(0), pageOffset(0, 10))
	assert.Equal(t, int64(20), pageOffset(3, 10))
	assert.Equal(t, int64(math.MaxInt64), pageOffset(math.MaxInt, 10))
	assert.Equal(t, int64(math.MaxInt-1), pageOffset(math.MaxInt, 1))
	assert.Greater(t, pageOffset(maxPage(100), 100), int64(0))
}

func TestParsePublicQuery_PageOutOfRange(t *testing.T) {
	values := url.Values{"page": {"9000000000000000000"}, "limit": {"10"}}

	_, err := ParsePublicQuery(values, testLimits, time.Now())

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "page")

	q, err := ParsePublicQuery(url.Values{"page": {"900000000000000000"}, "limit": {"10"}}, testLimits, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 900000000000000000, q.Page)
}
