package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"inventory-system/pkg/types"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ParseFilterFromQuery разбирает limit, page, offset, search, sort[поле] и filter[поле].
func ParseFilterFromQuery(values url.Values) types.Filter {
	f := types.Filter{
		Sort:           make(map[string]string),
		Filter:         make(map[string]interface{}),
		Limit:          DefaultLimit,
		Page:           1,
		WithPagination: values.Get("withPagination") != "false",
	}

	if l, err := strconv.Atoi(values.Get("limit")); err == nil && l > 0 {
		f.Limit = min(l, MaxLimit)
	}
	if p, err := strconv.Atoi(values.Get("page")); err == nil && p > 0 {
		f.Page = p
	}
	if o, err := strconv.Atoi(values.Get("offset")); err == nil && o >= 0 {
		f.Offset = o
	} else {
		f.Offset = (f.Page - 1) * f.Limit
	}

	for key, vals := range values {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		switch {
		case key == "search":
			f.Search = vals[0]
		case strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]"):
			if dir := strings.ToLower(vals[0]); dir == "asc" || dir == "desc" {
				f.Sort[key[5:len(key)-1]] = dir
			}
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			field := key[7 : len(key)-1]
			if existing, ok := f.Filter[field]; ok {
				f.Filter[field] = fmt.Sprintf("%v,%s", existing, vals[0])
			} else {
				f.Filter[field] = strings.Join(vals, ",")
			}
		}
	}
	return f
}
