package sqlite

import "testing"

func TestDialectRebind(t *testing.T) {
	q := "UPDATE t SET a = ?, b = ? WHERE id = ?"

	if got := DialectSQLite.rebind(q); got != q {
		t.Errorf("sqlite rebind = %q, want unchanged", got)
	}
	want := "UPDATE t SET a = $1, b = $2 WHERE id = $3"
	if got := DialectPostgres.rebind(q); got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
}
