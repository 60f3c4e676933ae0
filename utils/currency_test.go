package utils

import "testing"

func TestConvertKMToEUR(t *testing.T) {
	tests := []struct {
		name     string
		amountKM float64
		want     float64
	}{
		{name: "zero", amountKM: 0, want: 0},
		{name: "one euro worth", amountKM: 1.95583, want: 1.00},
		{name: "catalog order", amountKM: 128, want: 65.45},
		{name: "single medium chocolate", amountKM: 48, want: 24.54},
		{name: "custom two tier", amountKM: 100, want: 51.13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertKMToEUR(tt.amountKM); got != tt.want {
				t.Errorf("ConvertKMToEUR(%v) = %v, want %v", tt.amountKM, got, tt.want)
			}
		})
	}
}

func TestFormatKM(t *testing.T) {
	if got := FormatKM(128); got != "128.00 KM" {
		t.Errorf("FormatKM(128) = %q, want %q", got, "128.00 KM")
	}
	if got := FormatKM(65.456); got != "65.46 KM" {
		t.Errorf("FormatKM(65.456) = %q, want %q", got, "65.46 KM")
	}
}
