package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RegisterRequest{
		Username:  "  ada  ",
		Password:  "  password123  ",
		FirstName: " Ada ",
		LastName:  " Lovelace ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "ada", req.Username)
	assert.Equal(t, "password123", req.Password)
	assert.Equal(t, "Ada", req.FirstName)
	assert.Equal(t, "Lovelace", req.LastName)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := IdentityRequest{
		FirstName:     "<script>alert('x')</script>",
		LastName:      "Lovelace",
		CompanySecret: "secret",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.FirstName, "&lt;script&gt;")
	assert.NotContains(t, req.FirstName, "<script>")
}

func TestSanitizeStruct_RecursesNestedStruct(t *testing.T) {
	req := PurchaseRequest{
		Card: CardRequest{
			HolderName: "  Ada Lovelace  ",
			Number:     " 4111111111111111 ",
			Expiry:     "12/30",
			CVV:        "123",
		},
	}
	SanitizeStruct(&req)

	assert.Equal(t, "Ada Lovelace", req.Card.HolderName)
	assert.Equal(t, "4111111111111111", req.Card.Number)
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	companyID := "  b7f0c9a0-0000-0000-0000-000000000000  "
	req := RegisterRequest{
		Username:  "ada",
		Password:  "password123",
		CompanyID: &companyID,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "b7f0c9a0-0000-0000-0000-000000000000", *req.CompanyID)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := RegisterRequest{Username: "ada", Password: "password123"}
	SanitizeStruct(&req)
	assert.Nil(t, req.CompanyID)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom validator tests ---

func TestWalletPin_Valid(t *testing.T) {
	for _, tc := range []string{"0000", "1234", "9999"} {
		assert.True(t, pinRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestWalletPin_Invalid(t *testing.T) {
	for _, tc := range []string{"", "123", "12345", "abcd", "12 4", "12.4"} {
		assert.False(t, pinRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestWalletAddress_Valid(t *testing.T) {
	cases := []string{
		"TXYZdestaddress000000000000000000",
		"0123456789abcdef0123456789abcdef01234567",
		"abcdefghij1234567890", // exactly 20 chars
	}
	for _, tc := range cases {
		assert.True(t, addressRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestWalletAddress_Invalid(t *testing.T) {
	cases := []string{
		"",
		"tooshort",
		"has spaces in the middle 123456789",
		"bad<chars>aaaaaaaaaaaaaaaaaaaa",
	}
	for _, tc := range cases {
		assert.False(t, addressRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestCardExpiry_Format(t *testing.T) {
	for _, tc := range []string{"01/30", "12/99"} {
		assert.True(t, expiryRe.MatchString(tc), "expected valid: %s", tc)
	}
	for _, tc := range []string{"13/30", "00/30", "1/30", "01-30", "01/3"} {
		assert.False(t, expiryRe.MatchString(tc), "expected invalid: %s", tc)
	}
}
