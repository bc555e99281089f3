package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/inbucket/html2text"
	"github.com/sandevgo/reportgen/internal/core"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	noData      = "_No data available._"
	asnCategory = "ASN"
	asnYears    = 3
)

var printer = message.NewPrinter(language.English)

func renderOverview(c *core.Company, _ toolArgs, _ time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s overview\n\n", c.CompanyName)

	if desc := plainText(c.CompanyDescription); desc != "" {
		sb.WriteString(desc)
		sb.WriteString("\n\n")
	}
	if c.Revenue != nil {
		fmt.Fprintf(&sb, "- Revenue: %s\n", printer.Sprintf("%d", *c.Revenue))
	}
	if c.MarketCap != nil {
		fmt.Fprintf(&sb, "- Market cap: %s\n", printer.Sprintf("%d", *c.MarketCap))
	}

	if len(c.NewsData) > 0 {
		sb.WriteString("\n### Recent news\n")
		for _, n := range c.NewsData {
			if n.Source != "" {
				fmt.Fprintf(&sb, "- %s (%s)\n", n.Headline, n.Source)
			} else {
				fmt.Fprintf(&sb, "- %s\n", n.Headline)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func renderLeadership(c *core.Company, _ toolArgs, _ time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s leadership\n\n### Top executives\n", c.CompanyName)
	writePeople(&sb, c.TopExecutives)
	sb.WriteString("\n### Board members\n")
	writePeople(&sb, c.BoardMembers)
	return strings.TrimSpace(sb.String())
}

func writePeople(sb *strings.Builder, people []core.Person) {
	if len(people) == 0 {
		sb.WriteString(noData + "\n")
		return
	}
	for _, p := range people {
		line := "- " + p.Name
		if p.Role != "" {
			line += ", " + p.Role
		}
		var details []string
		if p.Age != nil {
			details = append(details, fmt.Sprintf("age %d", *p.Age))
		}
		if p.Tenure != nil {
			details = append(details, fmt.Sprintf("tenure %d years", *p.Tenure))
		}
		if len(details) > 0 {
			line += " (" + strings.Join(details, ", ") + ")"
		}
		sb.WriteString(line + "\n")
	}
}

func renderEngagement(c *core.Company, args toolArgs, _ time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s engagement activity\n", c.CompanyName)

	groups := make(map[string][]core.EngagementActivity)
	var order []string
	for _, a := range c.EngagementActivity {
		if args.Category != "" && !strings.EqualFold(a.Category, args.Category) {
			continue
		}
		if _, ok := groups[a.Category]; !ok {
			order = append(order, a.Category)
		}
		groups[a.Category] = append(groups[a.Category], a)
	}

	if len(order) == 0 {
		sb.WriteString("\n" + noData)
		return sb.String()
	}

	for _, category := range order {
		name := category
		if name == "" {
			name = "Uncategorized"
		}
		fmt.Fprintf(&sb, "\n### %s\n", name)
		for _, a := range groups[category] {
			pairs := make([]string, 0, len(a.Attributes))
			for _, attr := range a.Attributes {
				pairs = append(pairs, attr.Key+": "+a.Text(attr.Key))
			}
			sb.WriteString("- " + strings.Join(pairs, "; ") + "\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

func renderASN(c *core.Company, args toolArgs, now time.Time) string {
	years := args.Years
	if len(years) == 0 {
		for y := now.Year() - asnYears + 1; y <= now.Year(); y++ {
			years = append(years, y)
		}
	}
	sort.Ints(years)

	byYear := make(map[int][]string)
	for _, a := range c.EngagementActivity {
		if !strings.EqualFold(a.Category, asnCategory) {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(a.Text("fiscal_year")))
		if err != nil {
			continue
		}
		if n := a.Text("new_assignments"); n != "" {
			byYear[year] = append(byYear[year], n)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s ASN activity\n\n", c.CompanyName)
	for _, y := range years {
		counts, ok := byYear[y]
		if !ok {
			fmt.Fprintf(&sb, "- FY%d: no ASN recorded\n", y)
			continue
		}
		fmt.Fprintf(&sb, "- FY%d: %s new assignments\n", y, strings.Join(counts, " + "))
	}
	return strings.TrimSpace(sb.String())
}

func renderFinancials(c *core.Company, _ toolArgs, _ time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s financials\n\n", c.CompanyName)

	if len(c.FinancialData) > 0 {
		sb.WriteString("| Fiscal period | Currency | Total revenue | Net income | Net margin |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, f := range c.FinancialData {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				f.FiscalPeriodEnding, f.Currency, amount(f.TotalRevenue), amount(f.NetIncome), percent(f.NetIncomeMarginPercent))
		}
	} else {
		sb.WriteString(noData + "\n")
	}

	if len(c.SummaryData) > 0 {
		sb.WriteString("\n### Summary data\n")
		for _, s := range c.SummaryData {
			fmt.Fprintf(&sb, "- FY %s (as of %s): revenue %s\n", s.FiscalYear, s.AsOfDate, amount(s.Revenue))
		}
	}
	return strings.TrimSpace(sb.String())
}

func renderTimeline(c *core.Company, _ toolArgs, _ time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s corporate timeline\n\n", c.CompanyName)

	if len(c.CorporateTimelines) == 0 {
		sb.WriteString(noData)
		return sb.String()
	}

	events := make([]core.TimelineEvent, len(c.CorporateTimelines))
	copy(events, c.CorporateTimelines)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date > events[j].Date })

	for _, e := range events {
		if e.Type != "" {
			fmt.Fprintf(&sb, "- %s [%s] %s\n", e.Date, e.Type, e.Headline)
		} else {
			fmt.Fprintf(&sb, "- %s %s\n", e.Date, e.Headline)
		}
	}
	return strings.TrimSpace(sb.String())
}

func renderFull(c *core.Company, args toolArgs, now time.Time) string {
	sections := []string{
		renderOverview(c, args, now),
		renderLeadership(c, args, now),
		renderFinancials(c, args, now),
		renderEngagement(c, toolArgs{}, now),
		renderASN(c, toolArgs{}, now),
		renderTimeline(c, args, now),
	}
	return strings.Join(sections, "\n\n")
}

func amount(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return printer.Sprintf("%.2f", *v)
}

func percent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

// plainText strips markup from ingested descriptions.
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.Contains(s, "<") {
		return s
	}
	text, err := html2text.FromString(s, html2text.Options{TextOnly: true})
	if err != nil {
		return s
	}
	return strings.TrimSpace(text)
}
