package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// isLockContention reports whether err is an InnoDB deadlock (1213) or lock
// wait timeout (1205).  Two transactions probing an empty index range with
// SELECT ... FOR UPDATE take only gap locks, which do not conflict with
// each other; when both then insert into that gap, the insert intention
// locks wait on the other side's gap lock and InnoDB rolls one transaction
// back.  The losing transaction is safe to run again: after the survivor
// commits its row is visible to the probe, so the retry resolves to the
// proper conflict sentinel instead of a driver error.
func isLockContention(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == 1213 || me.Number == 1205
}
