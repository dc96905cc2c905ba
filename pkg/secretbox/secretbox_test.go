package secretbox

import "testing"

func TestSealOpenRoundTrip(t *testing.T) {
	box, err := New("test-passphrase")
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := box.Seal("imap-password")
	if err != nil {
		t.Fatal(err)
	}
	if sealed == "imap-password" {
		t.Fatal("sealed value must not equal plaintext")
	}

	plain, err := box.Open(sealed)
	if err != nil {
		t.Fatal(err)
	}
	if plain != "imap-password" {
		t.Fatalf("got %q, want original plaintext", plain)
	}
}

func TestOpenRejectsWrongKey(t *testing.T) {
	a, _ := New("passphrase-a")
	b, _ := New("passphrase-b")

	sealed, err := a.Seal("secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Open(sealed); err == nil {
		t.Fatal("expected error opening with wrong key")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	box, _ := New("passphrase")
	for _, v := range []string{"", "not-base64!!", "AAAA"} {
		if _, err := box.Open(v); err == nil {
			t.Fatalf("expected error for %q", v)
		}
	}
}

func TestEmptyPassphrase(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty passphrase")
	}
}
