package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trading-journal/internal/models"
)

// FormatMoney formats an amount in its currency: USD as $1,234.56 and IDR
// as Rp1.234.567 without fractional digits. Other codes print as
// "1,234.56 EUR".
func FormatMoney(amount float64, cur models.Currency) string {
	negative := amount < 0
	amount = math.Abs(amount)

	var digits, result string
	switch cur {
	case models.IDR:
		digits = groupThousands(fmt.Sprintf("%.0f", amount), ".")
		result = "Rp" + digits
	case models.USD, "":
		digits = formatDecimal(amount, ",")
		result = "$" + digits
	default:
		digits = formatDecimal(amount, ",")
		result = digits + " " + string(cur)
	}

	// No sign on amounts that print as zero.
	if negative && strings.Trim(digits, "0.,") != "" {
		return "-" + result
	}
	return result
}

// FormatMoneyDecimal formats a ledger amount.
func FormatMoneyDecimal(amount decimal.Decimal, cur models.Currency) string {
	return FormatMoney(amount.InexactFloat64(), cur)
}

func formatDecimal(amount float64, sep string) string {
	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	return groupThousands(parts[0], sep) + "." + parts[1]
}

// groupThousands inserts sep between groups of three digits.
func groupThousands(s, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	s = s[:n-3]
	for len(s) > 3 {
		result = s[len(s)-3:] + sep + result
		s = s[:len(s)-3]
	}
	return s + sep + result
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatPnL formats a money amount with an explicit sign for gains.
func FormatPnL(pnl float64, cur models.Currency) string {
	formatted := FormatMoney(pnl, cur)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatPrice formats a price with appropriate decimal places.
func FormatPrice(price float64) string {
	if price >= 10 {
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.4f", price)
}

// FormatOptionalPrice formats p or a dash when unset.
func FormatOptionalPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return FormatPrice(*p)
}

// FormatDate formats a date in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// FormatDateTime formats a datetime in loc.
func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02 15:04")
}

// FormatHours formats a fractional hour count in human-readable form.
func FormatHours(hours float64) string {
	return FormatDuration(time.Duration(hours * float64(time.Hour)))
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// FormatRiskReward formats a risk-reward ratio.
func FormatRiskReward(rr float64) string {
	return fmt.Sprintf("1:%.2f", rr)
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
