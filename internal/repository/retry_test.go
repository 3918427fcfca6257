package repository

import (
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsLockContention(t *testing.T) {
	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock; try restarting transaction"}
	lockWait := &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded; try restarting transaction"}
	dupKey := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"deadlock", deadlock, true},
		{"lock wait timeout", lockWait, true},
		{"wrapped deadlock", fmt.Errorf("create reservation: %w", deadlock), true},
		{"duplicate key", dupKey, false},
		{"sentinel", ErrOverlap, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := isLockContention(tc.err); got != tc.want {
			t.Errorf("isLockContention(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
