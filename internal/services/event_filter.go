package services

import (
	"math"
	"net/url"
	"strings"
	"time"

	"event-management/models"
	"event-management/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/spf13/cast"
)

// EventFilter is the set of optional predicates over events. Nil fields do not filter.
type EventFilter struct {
	Published   *bool
	Category    *models.EventCategory
	Status      *models.EventStatus
	Featured    *bool
	Search      *string
	AuthorID    *string
	DateFrom    *time.Time
	DateTo      *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Expression translates the present fields into one dbx condition over the events table
// aliased as alias. It returns nil when no field is set.
func (f EventFilter) Expression(alias string) dbx.Expression {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	var exprs []dbx.Expression

	if f.Published != nil {
		exprs = append(exprs, dbx.HashExp{col("published"): *f.Published})
	}
	if f.Category != nil {
		exprs = append(exprs, dbx.HashExp{col("category"): string(*f.Category)})
	}
	if f.Status != nil {
		exprs = append(exprs, dbx.HashExp{col("status"): string(*f.Status)})
	}
	if f.Featured != nil {
		exprs = append(exprs, dbx.HashExp{col("featured"): *f.Featured})
	}
	if f.AuthorID != nil {
		exprs = append(exprs, dbx.HashExp{col("author"): *f.AuthorID})
	}
	if f.Search != nil && *f.Search != "" {
		// search_text holds lower-cased name, description and location
		exprs = append(exprs, dbx.NewExp(
			"[["+col("search_text")+"]] LIKE {:search} ESCAPE '\\'",
			dbx.Params{"search": "%" + escapeLike(strings.ToLower(*f.Search)) + "%"},
		))
	}
	if f.DateFrom != nil {
		exprs = append(exprs, dbx.NewExp("[["+col("date")+"]] >= {:dateFrom}", dbx.Params{"dateFrom": dbTime(*f.DateFrom)}))
	}
	if f.DateTo != nil {
		exprs = append(exprs, dbx.NewExp("[["+col("date")+"]] <= {:dateTo}", dbx.Params{"dateTo": dbTime(*f.DateTo)}))
	}
	if f.CreatedFrom != nil {
		exprs = append(exprs, dbx.NewExp("[["+col("created")+"]] >= {:createdFrom}", dbx.Params{"createdFrom": dbTime(*f.CreatedFrom)}))
	}
	if f.CreatedTo != nil {
		exprs = append(exprs, dbx.NewExp("[["+col("created")+"]] <= {:createdTo}", dbx.Params{"createdTo": dbTime(*f.CreatedTo)}))
	}

	if len(exprs) == 0 {
		return nil
	}
	return dbx.And(exprs...)
}

// with combines the filter with extra conditions for a single sub-query.
func (f EventFilter) with(alias string, extra ...dbx.Expression) dbx.Expression {
	exprs := make([]dbx.Expression, 0, len(extra)+1)
	if base := f.Expression(alias); base != nil {
		exprs = append(exprs, base)
	}
	exprs = append(exprs, extra...)
	if len(exprs) == 0 {
		return nil
	}
	return dbx.And(exprs...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes s match literally inside a LIKE pattern using '\' as the escape character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// dates are stored in the PocketBase text layout, which orders lexically
func dbTime(t time.Time) string {
	dt, _ := types.ParseDateTime(t.UTC())
	return dt.String()
}

// EventListQuery is a parsed listing request.
type EventListQuery struct {
	Filter EventFilter
	Page   int
	Limit  int
}

// StatsQuery bounds the statistics to events created inside [From, To].
type StatsQuery struct {
	From *time.Time
	To   *time.Time
}

// ListLimits carries the configured page size defaults.
type ListLimits struct {
	DefaultLimit int
	MaxLimit     int
}

// ParsePublicQuery reads the public listing parameters. Only published events are ever
// listed and, unless upcoming is set to something other than "true", only future ones.
func ParsePublicQuery(values url.Values, limits ListLimits, now time.Time) (EventListQuery, error) {
	q, errs := parseCommon(values, limits)

	published := true
	q.Filter.Published = &published

	if values.Get("featured") == "true" {
		featured := true
		q.Filter.Featured = &featured
	}

	upcoming := values.Get("upcoming")
	if upcoming == "" || upcoming == "true" {
		from := now.UTC()
		q.Filter.DateFrom = &from
	}

	return q, errs.Filter()
}

// ParseAdminQuery reads the administrative listing parameters.
func ParseAdminQuery(values url.Values, limits ListLimits) (EventListQuery, error) {
	q, errs := parseCommon(values, limits)

	switch values.Get("published") {
	case "true":
		v := true
		q.Filter.Published = &v
	case "false":
		v := false
		q.Filter.Published = &v
	}

	if authorID := strings.TrimSpace(values.Get("authorId")); authorID != "" {
		q.Filter.AuthorID = &authorID
	}

	if raw := values.Get("startDate"); raw != "" {
		if t, err := utils.ParseDate(raw); err != nil {
			errs["startDate"] = invalidDateError()
		} else {
			q.Filter.DateFrom = &t
		}
	}
	if raw := values.Get("endDate"); raw != "" {
		if t, err := utils.ParseRangeEnd(raw); err != nil {
			errs["endDate"] = invalidDateError()
		} else {
			q.Filter.DateTo = &t
		}
	}

	return q, errs.Filter()
}

// ParseStatsQuery reads startDate and endDate. A date-only endDate covers the whole day.
func ParseStatsQuery(values url.Values) (StatsQuery, error) {
	var q StatsQuery
	errs := validation.Errors{}

	if raw := values.Get("startDate"); raw != "" {
		if t, err := utils.ParseDate(raw); err != nil {
			errs["startDate"] = invalidDateError()
		} else {
			q.From = &t
		}
	}
	if raw := values.Get("endDate"); raw != "" {
		if t, err := utils.ParseRangeEnd(raw); err != nil {
			errs["endDate"] = invalidDateError()
		} else {
			q.To = &t
		}
	}

	return q, errs.Filter()
}

func parseCommon(values url.Values, limits ListLimits) (EventListQuery, validation.Errors) {
	errs := validation.Errors{}
	q := EventListQuery{Page: 1, Limit: limits.DefaultLimit}

	if raw := values.Get("category"); raw != "" {
		c := models.EventCategory(strings.ToUpper(raw))
		if !c.Valid() {
			errs["category"] = validation.NewError("validation_invalid_category", "must be a valid event category")
		} else {
			q.Filter.Category = &c
		}
	}

	if raw := values.Get("status"); raw != "" {
		s := models.EventStatus(strings.ToUpper(raw))
		if !s.Valid() {
			errs["status"] = validation.NewError("validation_invalid_status", "must be one of UPCOMING, ONGOING, COMPLETED")
		} else {
			q.Filter.Status = &s
		}
	}

	if search := strings.TrimSpace(values.Get("search")); search != "" {
		q.Filter.Search = &search
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := cast.ToIntE(raw)
		if err != nil || limit < 1 {
			errs["limit"] = validation.NewError("validation_invalid_limit", "must be a positive integer")
		} else {
			q.Limit = limit
		}
	}
	if limits.MaxLimit > 0 && q.Limit > limits.MaxLimit {
		q.Limit = limits.MaxLimit
	}
	if q.Limit < 1 {
		q.Limit = 10
	}

	if raw := values.Get("page"); raw != "" {
		page, err := cast.ToIntE(raw)
		switch {
		case err != nil || page < 1:
			errs["page"] = validation.NewError("validation_invalid_page", "must be a positive integer")
		case page > maxPage(q.Limit):
			errs["page"] = validation.NewError("validation_page_too_large", "is out of range")
		default:
			q.Page = page
		}
	}

	return q, errs
}

// maxPage is the largest page whose row offset fits in an int64.
func maxPage(limit int) int {
	if limit < 1 {
		limit = 1
	}
	pages := math.MaxInt64 / int64(limit)
	if pages >= math.MaxInt {
		return math.MaxInt
	}
	return int(pages) + 1
}

// pageOffset is the row offset of page, saturating instead of overflowing.
func pageOffset(page, limit int) int64 {
	if page <= 1 || limit < 1 {
		return 0
	}
	if page > maxPage(limit) {
		return math.MaxInt64
	}
	return int64(page-1) * int64(limit)
}

func invalidDateError() validation.Error {
	return validation.NewError("validation_invalid_date", "must be a valid ISO 8601 date")
}
