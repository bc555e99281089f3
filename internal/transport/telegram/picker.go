package telegram

import (
	"sync"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/internal/service/report"
	tele "gopkg.in/telebot.v3"
)

const (
	pickUnique    = "pick"
	maxPickerRows = 10
)

type pendingPick struct {
	prompt     string
	candidates []core.CompanyRef
}

// picks remembers, per chat, the question that came back ambiguous so a tapped
// candidate can replay it against the chosen company.
type picks struct {
	mu      sync.Mutex
	pending map[int64]pendingPick
}

func newPicks() *picks {
	return &picks{pending: make(map[int64]pendingPick)}
}

func (p *picks) offer(chatID int64, prompt string, candidates []core.CompanyRef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[chatID] = pendingPick{prompt: prompt, candidates: candidates}
}

func (p *picks) forget(chatID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, chatID)
}

// take consumes the pending pick when companyID is one of its candidates.
func (p *picks) take(chatID int64, companyID string) (report.Turn, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending, ok := p.pending[chatID]
	if !ok {
		return report.Turn{}, false
	}
	for _, c := range pending.candidates {
		if c.ID == companyID {
			delete(p.pending, chatID)
			return report.Turn{
				SessionID:   sessionID(chatID),
				CompanyID:   c.ID,
				CompanyName: c.Name,
				Prompt:      pending.prompt,
			}, true
		}
	}
	return report.Turn{}, false
}

func pickerMarkup(candidates []core.CompanyRef) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, min(len(candidates), maxPickerRows))
	for _, c := range candidates[:min(len(candidates), maxPickerRows)] {
		rows = append(rows, markup.Row(markup.Data(c.Name, pickUnique, c.ID)))
	}
	markup.Inline(rows...)
	return markup
}
