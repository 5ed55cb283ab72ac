package appdata

import (
	"testing"

	"github.com/charlie0129/tomato/pkg/apperr"
)

func TestValidateDateRange(t *testing.T) {
	tests := []struct {
		name    string
		r       DateRange
		wantErr bool
	}{
		{name: "single day", r: DateRange{From: "2024-05-01", To: "2024-05-01"}},
		{name: "week", r: DateRange{From: "2024-04-29", To: "2024-05-05"}},
		{name: "reversed", r: DateRange{From: "2024-05-05", To: "2024-04-29"}, wantErr: true},
		{name: "bad from", r: DateRange{From: "2024/05/01", To: "2024-05-05"}, wantErr: true},
		{name: "impossible date", r: DateRange{From: "2024-02-30", To: "2024-03-01"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDateRange(tt.r)
			if tt.wantErr != (err != nil) {
				t.Fatalf("ValidateDateRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperr.IsValidation(err) {
				t.Fatalf("expected validation kind, got %v", err)
			}
		})
	}
}

func TestValidateBlacklist(t *testing.T) {
	tests := []struct {
		name    string
		items   []BlacklistItem
		wantErr bool
	}{
		{name: "empty list", items: nil},
		{name: "ok", items: []BlacklistItem{{Name: "steam", DisplayName: "Steam"}, {Name: "discord", DisplayName: "Discord"}}},
		{name: "blank name", items: []BlacklistItem{{Name: " ", DisplayName: "Steam"}}, wantErr: true},
		{name: "blank display name", items: []BlacklistItem{{Name: "steam", DisplayName: ""}}, wantErr: true},
		{name: "case-insensitive duplicate", items: []BlacklistItem{{Name: "Steam", DisplayName: "Steam"}, {Name: "steam", DisplayName: "steam"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateBlacklist(tt.items); tt.wantErr != (err != nil) {
				t.Fatalf("ValidateBlacklist() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
