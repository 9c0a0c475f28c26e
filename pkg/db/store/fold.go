package store

import (
	"database/sql/driver"
	"strings"

	gosqlite "github.com/glebarez/go-sqlite"
)

// foldFunc names the SQL function used for case-insensitive search. It applies
// Unicode lowercasing, the same folding the query receives in Go, where the
// built-in LOWER only folds ASCII.
const foldFunc = "photocat_fold"

func init() {
	gosqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}
