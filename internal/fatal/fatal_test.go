package fatal

import "testing"

func TestErrorfPanicsWithError(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected Errorf to panic")
		}
		err, ok := r.(*Error)
		if !ok {
			t.Fatalf("recovered value is %T, expected *fatal.Error", r)
		}
		if err.Error() != "boom: 42" {
			t.Errorf("Error() = %q, expected %q", err.Error(), "boom: 42")
		}
	}()
	Errorf(nil, "boom: %d", 42)
}
