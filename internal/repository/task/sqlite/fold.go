package sqlite

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"taskManager/internal/repository/task/query"

	moderncsqlite "modernc.org/sqlite"
)

// регистрация глобальная для драйвера и действует на все новые соединения
func init() {
	moderncsqlite.MustRegisterDeterministicScalarFunction(query.FoldFunc, 1, foldCase)
}

// foldCase переводит текст в нижний регистр так же, как поиск в памяти
func foldCase(_ *moderncsqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: неподдерживаемый тип %T", query.FoldFunc, v)
	}
}
