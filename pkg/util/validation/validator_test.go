package validation

import (
	"encoding/json"
	"strings"
	"testing"
)

type signup struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,pwd"`
	Images   []image `json:"images" validate:"dive"`
}

type image struct {
	URL string `json:"url" validate:"required"`
}

func TestToDetailsUsesJSONNames(t *testing.T) {
	err := Struct(signup{Email: "not-an-email", Password: "abc", Images: []image{{}}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	details := ToDetails(err)

	want := map[string]string{
		"name":          "is required",
		"email":         "must be a valid email",
		"password":      "must be between 5 and 72 characters long",
		"images[0].url": "is required",
	}
	for field, msg := range want {
		if details[field] != msg {
			t.Fatalf("%s: got %v, want %q (all: %v)", field, details[field], msg, details)
		}
	}
}

func TestToDetailsInvalidJSON(t *testing.T) {
	var v signup
	err := json.Unmarshal([]byte("{"), &v)
	if got := ToDetails(err)["payload"]; got != "invalid json" {
		t.Fatalf("unexpected details %v", got)
	}
	if ToDetails(nil) != nil {
		t.Fatal("nil error must yield nil details")
	}
}

func TestValidPayloadPasses(t *testing.T) {
	err := Struct(signup{Name: "Bea", Email: "bea@example.com", Password: "secret1", Images: []image{{URL: "a.jpg"}}})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestPasswordUpperBound(t *testing.T) {
	err := Struct(signup{Name: "Bea", Email: "bea@example.com", Password: strings.Repeat("p", 73)})
	if got := ToDetails(err)["password"]; got != "must be between 5 and 72 characters long" {
		t.Fatalf("73 byte password: got %v", got)
	}
	if err := Struct(signup{Name: "Bea", Email: "bea@example.com", Password: strings.Repeat("p", 72)}); err != nil {
		t.Fatalf("72 byte password must pass: %v", err)
	}
}
