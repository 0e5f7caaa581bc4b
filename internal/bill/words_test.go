package bill

import (
	"testing"
)

func TestAmountToWords(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "Zero"},
		{"7", "Seven"},
		{"15", "Fifteen"},
		{"40", "Forty"},
		{"95", "Ninety-Five"},
		{"100", "One Hundred"},
		{"1005", "One Thousand And Five"},
		{"95000", "Ninety-Five Thousand"},
		{"95000.75", "Ninety-Five Thousand"},
		{"123456", "One Lakh, Twenty-Three Thousand, Four Hundred And Fifty-Six"},
		{"250100", "Two Lakh, Fifty Thousand, One Hundred"},
		{"10000000", "One Crore"},
		{"123456789", "Twelve Crore, Thirty-Four Lakh, Fifty-Six Thousand, Seven Hundred And Eighty-Nine"},
		{"-5", "Minus Five"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			if got := AmountToWords(dec(tt.amount)); got != tt.want {
				t.Errorf("AmountToWords(%s) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}
