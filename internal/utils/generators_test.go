package utils

import (
	"strings"
	"testing"
)

func TestGenerateReference(t *testing.T) {
	ref := GenerateReference()
	if !strings.HasPrefix(ref, "FPB-") {
		t.Errorf("reference %q missing FPB prefix", ref)
	}
	if GenerateReference() == ref {
		t.Error("two references should never collide")
	}
}

func TestGenerateReceiptNumber(t *testing.T) {
	rct := GenerateReceiptNumber()
	if !strings.HasPrefix(rct, "RCT-") {
		t.Errorf("receipt number %q missing RCT prefix", rct)
	}
	if rct != strings.ToUpper(rct) {
		t.Errorf("receipt number %q should be upper case", rct)
	}
	if GenerateReceiptNumber() == rct {
		t.Error("two receipt numbers should never collide")
	}
}
