// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package validation

import (
	"strings"
	"testing"
)

type profileRequest struct {
	Name   string `validate:"required,max=100"`
	Email  string `validate:"required,email"`
	Handle string `validate:"required,cfhandle"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		req       profileRequest
		wantErr   bool
		wantField string
	}{
		{
			name: "valid request",
			req:  profileRequest{Name: "Alice", Email: "alice@example.com", Handle: "tourist"},
		},
		{
			name:      "missing name",
			req:       profileRequest{Email: "alice@example.com", Handle: "tourist"},
			wantErr:   true,
			wantField: "Name",
		},
		{
			name:      "bad email",
			req:       profileRequest{Name: "Alice", Email: "not-an-email", Handle: "tourist"},
			wantErr:   true,
			wantField: "Email",
		},
		{
			name:      "handle too short",
			req:       profileRequest{Name: "Alice", Email: "alice@example.com", Handle: "ab"},
			wantErr:   true,
			wantField: "Handle",
		},
		{
			name:      "handle with spaces",
			req:       profileRequest{Name: "Alice", Email: "alice@example.com", Handle: "not a handle"},
			wantErr:   true,
			wantField: "Handle",
		},
		{
			name: "handle with allowed punctuation",
			req:  profileRequest{Name: "Alice", Email: "alice@example.com", Handle: "m_x.-42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected validation error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("expected validation error")
			}
			if got := err.Errors()[0].Field(); got != tt.wantField {
				t.Errorf("expected failing field %q, got %q", tt.wantField, got)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single error carries details", func(t *testing.T) {
		err := ValidateStruct(&profileRequest{Name: "Alice", Email: "alice@example.com"})
		if err == nil {
			t.Fatal("expected validation error")
		}

		apiErr := err.ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("expected VALIDATION_ERROR, got %q", apiErr.Code)
		}
		if apiErr.Details["field"] != "Handle" {
			t.Errorf("unexpected details: %+v", apiErr.Details)
		}
	})

	t.Run("multiple errors joined", func(t *testing.T) {
		err := ValidateStruct(&profileRequest{})
		if err == nil {
			t.Fatal("expected validation error")
		}

		apiErr := err.ToAPIError()
		if !strings.Contains(apiErr.Message, ";") {
			t.Errorf("expected joined message, got %q", apiErr.Message)
		}
		if _, ok := apiErr.Details["fields"]; !ok {
			t.Errorf("expected fields detail, got %+v", apiErr.Details)
		}
	})
}
