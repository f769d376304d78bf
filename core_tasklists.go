package mdit

import (
	"regexp"
	"strings"
)

var taskMarkerRe = regexp.MustCompile(`^\[([ xX])\]\s+`)

const (
	taskListClass     = "task-list"
	taskListItemClass = "task-list-item"
	taskCheckboxClass = "task-list-checkbox"
)

// ruleTaskLists turns list items that start with "[ ]" or "[x]" into
// disabled checkboxes and tags the item and its list with CSS classes.
func ruleTaskLists(s *StateCore) {
	tokens := s.Tokens
	for i, item := range tokens {
		if item.Type != "list_item_open" {
			continue
		}
		var inline *Token
		for j := i + 1; j < len(tokens); j++ {
			if tokens[j].Type == "list_item_close" {
				break
			}
			if tokens[j].Type == "inline" && tokens[j].Content != "" {
				inline = tokens[j]
				break
			}
		}
		if inline == nil {
			continue
		}
		m := taskMarkerRe.FindStringSubmatch(inline.Content)
		if m == nil {
			continue
		}
		checked := strings.EqualFold(m[1], "x")
		inline.Content = inline.Content[len(m[0]):]
		if len(inline.Children) > 0 && inline.Children[0].Type == "text" {
			first := inline.Children[0]
			if cm := taskMarkerRe.FindString(first.Content); cm != "" {
				first.Content = first.Content[len(cm):]
			}
		}

		item.AttrJoin("class", taskListItemClass)

		box := NewToken("html_inline", "", 0)
		box.Content = taskCheckbox(checked)
		inline.Children = append([]*Token{box}, inline.Children...)

		for k := i - 1; k >= 0; k-- {
			t := tokens[k]
			if (t.Type == "bullet_list_open" || t.Type == "ordered_list_open") && t.Level == item.Level-1 {
				if !hasClass(t, taskListClass) {
					t.AttrJoin("class", taskListClass)
				}
				break
			}
		}
	}
}

func taskCheckbox(checked bool) string {
	if checked {
		return `<input type="checkbox" class="` + taskCheckboxClass + `" checked disabled> `
	}
	return `<input type="checkbox" class="` + taskCheckboxClass + `" disabled> `
}

func hasClass(t *Token, class string) bool {
	v, ok := t.AttrGet("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}
