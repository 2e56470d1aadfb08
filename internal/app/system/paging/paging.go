// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Default page sizes for list endpoints.
const (
	DefaultLimit      = 100 // students, professors, research, groups, chat history
	NotificationLimit = 50
	MaxLimit          = 1000
)

// Window is a skip/limit page request.
type Window struct {
	Skip  int64
	Limit int64
}

// Parse reads "skip" and "limit" from the query string. Missing or invalid
// values fall back to 0 and def; limit is capped at MaxLimit.
func Parse(r *http.Request, def int) Window {
	return Window{
		Skip:  int64(parseNonNegative(query.Get(r, "skip"), 0)),
		Limit: int64(clampLimit(parseNonNegative(query.Get(r, "limit"), def), def)),
	}
}

func parseNonNegative(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func clampLimit(n, def int) int {
	if n == 0 {
		return def
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// FindOptions returns Find options applying the window and sort.
// A nil sort leaves natural order; a zero Limit means no limit.
func (w Window) FindOptions(sort bson.D) *options.FindOptions {
	find := options.Find().SetSkip(w.Skip)
	if w.Limit > 0 {
		find.SetLimit(w.Limit)
	}
	if sort != nil {
		find.SetSort(sort)
	}
	return find
}

// Stages returns the $skip/$limit pipeline stages for aggregations.
func (w Window) Stages() []bson.D {
	stages := []bson.D{{{Key: "$skip", Value: w.Skip}}}
	if w.Limit > 0 {
		stages = append(stages, bson.D{{Key: "$limit", Value: w.Limit}})
	}
	return stages
}
