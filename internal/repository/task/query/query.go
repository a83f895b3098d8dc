// Package query строит WHERE и ORDER BY для списка задач из ListOptions.
// Имена колонок берутся только из allow-list, значения уходят в аргументы.
package query

import (
	"fmt"
	"strings"
	"taskManager/internal/models/task"
)

type Dialect struct {
	// Placeholder возвращает плейсхолдер для n-го аргумента (с единицы)
	Placeholder func(n int) string
	// SearchExpr собирает условие поиска по имени для плейсхолдера
	SearchExpr func(placeholder string) string
}

var Postgres = Dialect{
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	SearchExpr: func(ph string) string {
		return "name ILIKE " + ph
	},
}

// FoldFunc - имя функции SQLite для перевода в нижний регистр с учётом Unicode.
// Встроенная lower() меняет только ASCII, функцию регистрирует пакет sqlite
const FoldFunc = "unicode_lower"

var SQLite = Dialect{
	Placeholder: func(int) string { return "?" },
	SearchExpr: func(ph string) string {
		return FoldFunc + "(name) LIKE " + FoldFunc + "(" + ph + ") ESCAPE '\\'"
	},
}

var sortColumns = map[task.SortField]string{
	task.SortByName:      "name",
	task.SortByStatus:    "status",
	task.SortByCreatedAt: "created_at",
}

type Built struct {
	Where   string
	OrderBy string
	Args    []any
}

// Build нормализует опции и возвращает готовые куски запроса
func Build(d Dialect, opts task.ListOptions) Built {
	opts = opts.Normalized()

	var clauses []string
	var args []any

	if opts.HasStatus() {
		args = append(args, opts.Status)
		clauses = append(clauses, "status = "+d.Placeholder(len(args)))
	}
	if opts.HasSearch() {
		args = append(args, "%"+EscapeLike(opts.Search)+"%")
		clauses = append(clauses, d.SearchExpr(d.Placeholder(len(args))))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	column := sortColumns[opts.SortBy]
	dir := "DESC"
	if opts.Order == task.OrderAsc {
		dir = "ASC"
	}

	return Built{
		Where:   where,
		OrderBy: fmt.Sprintf(" ORDER BY %s %s, id %s", column, dir, dir),
		Args:    args,
	}
}

// EscapeLike экранирует спецсимволы LIKE, чтобы поиск был буквальным
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
