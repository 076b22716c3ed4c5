package dtos

import (
	"net/url"
	"strconv"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type ListMeta struct {
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
	TotalCount int64   `json:"total_count"`
	Next       *string `json:"next"`
	Previous   *string `json:"previous"`
}

type ListResponse[T any] struct {
	Meta    ListMeta `json:"meta"`
	Objects []T      `json:"objects"`
}

// ParseLimitOffset reads ?limit and ?offset, applying the default limit
// and capping it. Invalid values fall back to the defaults.
func ParseLimitOffset(q url.Values) (limit, offset int) {
	limit = DefaultListLimit
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = min(v, MaxListLimit)
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// NewList builds a list envelope whose next/previous links keep every
// other query parameter of u.
func NewList[T any](u *url.URL, objects []T, limit, offset int, total int64) ListResponse[T] {
	if objects == nil {
		objects = []T{}
	}
	meta := ListMeta{Limit: limit, Offset: offset, TotalCount: total}
	if int64(offset+limit) < total {
		meta.Next = pageLink(u, limit, offset+limit)
	}
	if offset > 0 {
		meta.Previous = pageLink(u, limit, max(offset-limit, 0))
	}
	return ListResponse[T]{Meta: meta, Objects: objects}
}

func pageLink(u *url.URL, limit, offset int) *string {
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	link := u.Path + "?" + q.Encode()
	return &link
}
