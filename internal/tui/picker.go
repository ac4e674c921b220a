package tui

import (
	"fmt"
	"strings"
)

// Picker renders the numbered option list for the current wizard stage.
type Picker struct {
	question string
	options  []string
	selected map[string]bool
	loading  bool
	hint     string
}

func NewPicker() *Picker {
	return &Picker{selected: map[string]bool{}}
}

// SetStage replaces the picker content for a stage.
func (p *Picker) SetStage(question string, options []string, selected []string, loading bool, hint string) {
	p.question = question
	p.options = options
	p.loading = loading
	p.hint = hint
	p.selected = make(map[string]bool, len(selected))
	for _, s := range selected {
		p.selected[s] = true
	}
}

// Option returns the option at the 1-based index, or "" when out of range.
func (p *Picker) Option(n int) string {
	if n < 1 || n > len(p.options) {
		return ""
	}
	return p.options[n-1]
}

func (p *Picker) View(width, height int) string {
	var sb strings.Builder
	if p.question != "" {
		sb.WriteString(QuestionStyle.Render(p.question))
		sb.WriteString("\n\n")
	}

	if p.loading {
		sb.WriteString(OptionStyle.Render("Loading options..."))
	} else {
		for i, opt := range p.options {
			line := fmt.Sprintf("%d. %s", i+1, opt)
			if p.selected[opt] {
				sb.WriteString(SelectedOptionStyle.Render("✓ " + line))
			} else {
				sb.WriteString(OptionStyle.Render("  " + line))
			}
			sb.WriteString("\n")
		}
	}

	if p.hint != "" {
		sb.WriteString("\n")
		sb.WriteString(HintStyle.Render(p.hint))
	}

	return OptionsPanelStyle.Width(width).Height(height).Render(sb.String())
}
