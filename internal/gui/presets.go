package gui

import (
	"fyne.io/fyne/v2/widget"
)

// preset is one entry of a filter drop-down
type preset struct {
	Label string
	Value string
}

var (
	categoryPresets = []preset{
		{"General", "100"},
		{"Anime", "010"},
		{"People", "001"},
		{"All", "111"},
	}

	purityPresets = []preset{
		{"SFW", "100"},
		{"SFW + Sketchy", "110"},
		{"All", "111"},
	}

	ratioPresets = []preset{
		{"16:9", "16x9"},
		{"21:9", "21x9"},
		{"Any", ""},
	}
)

// presetOptions returns the drop-down labels, the label for current and the
// label to value mapping. A current value without a preset gets its own
// "Custom" entry.
func presetOptions(presets []preset, current string) ([]string, string, map[string]string) {
	options := make([]string, 0, len(presets)+1)
	values := make(map[string]string, len(presets)+1)
	selected := ""

	for _, p := range presets {
		options = append(options, p.Label)
		values[p.Label] = p.Value
		if p.Value == current {
			selected = p.Label
		}
	}

	if selected == "" {
		selected = "Custom (" + current + ")"
		options = append(options, selected)
		values[selected] = current
	}

	return options, selected, values
}

// newPresetSelect creates a drop-down that reports the preset value
func newPresetSelect(presets []preset, current string, onChanged func(value string)) *widget.Select {
	options, selected, values := presetOptions(presets, current)

	sel := widget.NewSelect(options, nil)
	sel.SetSelected(selected)
	sel.OnChanged = func(label string) {
		if v, ok := values[label]; ok {
			onChanged(v)
		}
	}
	return sel
}
