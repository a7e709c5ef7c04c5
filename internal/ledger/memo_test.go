package ledger

import "testing"

func TestMemoRoundTripPrintableASCII(t *testing.T) {
	var all []byte
	for b := byte(0x20); b <= 0x7e; b++ {
		all = append(all, b)
	}
	inputs := []string{
		"did:claim",
		`{"name":"Amina","phone":"+2348012345678"}`,
		"loan:fund:stablecoin",
		"sewing machine for tailoring business",
		string(all),
	}
	for _, in := range inputs {
		out, err := DecodeMemo(EncodeMemo(in))
		if err != nil {
			t.Fatalf("%q: decode: %v", in, err)
		}
		if out != in {
			t.Fatalf("round trip changed %q to %q", in, out)
		}
	}
}

func TestDecodeMemoRejectsNonHex(t *testing.T) {
	if _, err := DecodeMemo("ZZZZ"); err == nil {
		t.Fatalf("expected error for non-hex input")
	}
}

func TestAmountShapes(t *testing.T) {
	native := NativeAmount(1500000)
	if !native.IsNative() || native.Value != "1500000" {
		t.Fatalf("unexpected native amount: %+v", native)
	}
	issued := IssuedAmount("524C555344000000000000000000000000000000", "rIssuer", "25")
	if issued.IsNative() || issued.Value != "25" {
		t.Fatalf("unexpected issued amount: %+v", issued)
	}
}
