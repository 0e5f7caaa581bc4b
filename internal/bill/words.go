package bill

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountToWords spells the whole part of amount in the Indian numbering
// system, title-cased.
//
//	95000    -> "Ninety-Five Thousand"
//	123456   -> "One Lakh, Twenty-Three Thousand, Four Hundred And Fifty-Six"
//	10000000 -> "One Crore"
func AmountToWords(amount decimal.Decimal) string {
	n := amount.IntPart()
	if n == 0 {
		return "Zero"
	}
	if n < 0 {
		return "Minus " + titleWords(indianWords(-n))
	}
	return titleWords(indianWords(n))
}

// indianWords splits n into crore, lakh, thousand and hundred groups. Groups
// are joined with commas, and a trailing part under one hundred is joined
// with "and".
func indianWords(n int64) string {
	var groups []string

	if n >= 10000000 {
		groups = append(groups, indianWords(n/10000000)+" crore")
		n %= 10000000
	}
	if n >= 100000 {
		groups = append(groups, wordsUnder100(n/100000)+" lakh")
		n %= 100000
	}
	if n >= 1000 {
		groups = append(groups, wordsUnder100(n/1000)+" thousand")
		n %= 1000
	}
	if n >= 100 {
		groups = append(groups, onesWords[n/100]+" hundred")
		n %= 100
	}

	text := strings.Join(groups, ", ")
	if n > 0 {
		if text != "" {
			return text + " and " + wordsUnder100(n)
		}
		return wordsUnder100(n)
	}
	return text
}

func wordsUnder100(n int64) string {
	if n < 20 {
		return onesWords[n]
	}
	word := tensWords[n/10]
	if n%10 != 0 {
		word += "-" + onesWords[n%10]
	}
	return word
}

// titleWords capitalises the first letter of every word, including the
// halves of hyphenated tens.
func titleWords(s string) string {
	b := []byte(s)
	start := true
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			if start {
				b[i] = c - 'a' + 'A'
			}
			start = false
			continue
		}
		start = c == ' ' || c == '-' || c == ','
	}
	return string(b)
}

var onesWords = []string{
	"", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
	"seventeen", "eighteen", "nineteen",
}

var tensWords = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
}
