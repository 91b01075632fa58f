package mysql

import (
	"errors"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const mysqlDuplicateEntry = 1062

// forUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
// sqlite (tests) serializes writers already.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// notFound maps gorm's sentinel to a domain one and passes other errors through.
func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}

// uniqueViolation reports a duplicate key on column. MySQL names the index
// (ux_users_referral_code), sqlite the column (users.referral_code).
func uniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	var my *mysqldrv.MySQLError
	if errors.As(err, &my) {
		return my.Number == mysqlDuplicateEntry && strings.Contains(my.Message, column)
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
