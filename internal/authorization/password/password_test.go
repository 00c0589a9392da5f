package password

import "testing"

func TestHashVerify(t *testing.T) {
	encoded, err := Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !Verify("correct-horse", encoded) {
		t.Fatal("expected password to verify")
	}
	if Verify("wrong", encoded) {
		t.Fatal("expected wrong password to fail")
	}
	if Verify("correct-horse", "$2y$10$notargon") {
		t.Fatal("expected foreign hash format to fail")
	}
}
