package db

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"inventory-system/pkg/types"
)

// ApplyListParams накладывает фильтры, сортировку и пагинацию из types.Filter.
// В запрос попадают только поля из allowedMap (json-имя -> колонка), остальное молча игнорируется.
func ApplyListParams(builder sq.SelectBuilder, filter types.Filter, allowedMap map[string]string, defaultOrder string) sq.SelectBuilder {
	builder = ApplyFilters(builder, filter, allowedMap)

	sorted := false
	for jsonField, dir := range filter.Sort {
		dbCol, ok := allowedMap[jsonField]
		if !ok {
			continue
		}
		sqlDir := "ASC"
		if strings.ToLower(dir) == "desc" {
			sqlDir = "DESC"
		}
		builder = builder.OrderBy(fmt.Sprintf("%s %s", dbCol, sqlDir))
		sorted = true
	}
	if !sorted && defaultOrder != "" {
		builder = builder.OrderBy(defaultOrder)
	}

	if filter.WithPagination {
		if filter.Limit > 0 {
			builder = builder.Limit(uint64(filter.Limit))
		}
		if filter.Offset > 0 {
			builder = builder.Offset(uint64(filter.Offset))
		}
	}

	return builder
}

// ApplyFilters - только условия WHERE, без сортировки и пагинации (для COUNT).
// Значение "a,b,c" превращается в IN.
func ApplyFilters(builder sq.SelectBuilder, filter types.Filter, allowedMap map[string]string) sq.SelectBuilder {
	for jsonField, val := range filter.Filter {
		dbCol, ok := allowedMap[jsonField]
		if !ok {
			continue
		}

		if s, ok := val.(string); ok && strings.Contains(s, ",") {
			builder = builder.Where(sq.Eq{dbCol: strings.Split(s, ",")})
		} else {
			builder = builder.Where(sq.Eq{dbCol: val})
		}
	}
	return builder
}

// ApplySearch добавляет ILIKE по перечисленным колонкам через OR.
func ApplySearch(builder sq.SelectBuilder, search string, columns ...string) sq.SelectBuilder {
	if search == "" || len(columns) == 0 {
		return builder
	}
	pattern := "%" + search + "%"
	var conditions sq.Or
	for _, col := range columns {
		conditions = append(conditions, sq.ILike{col: pattern})
	}
	return builder.Where(conditions)
}
